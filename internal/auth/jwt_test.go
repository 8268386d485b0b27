package auth

import (
	"testing"
	"time"
)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name       string
		subject    string
		role       Role
		secret     string
		expiration time.Duration
	}{
		{name: "admin", subject: "admin", role: RoleAdmin, secret: "test-secret", expiration: time.Hour},
		{name: "bot", subject: "virtbot", role: RoleBot, secret: "test-secret", expiration: time.Hour},
		{name: "empty subject", subject: "", role: RoleBot, secret: "test-secret", expiration: time.Hour},
		{name: "empty secret", subject: "admin", role: RoleAdmin, secret: "", expiration: time.Hour},
		{name: "negative expiration", subject: "admin", role: RoleAdmin, secret: "test-secret", expiration: -time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.subject, tt.role, tt.secret, tt.expiration)
			if err != nil {
				t.Fatalf("GenerateToken() error = %v", err)
			}
			if token == "" {
				t.Error("GenerateToken() returned empty token")
			}
		})
	}
}

func TestValidateToken(t *testing.T) {
	secret := "test-secret"

	valid, _ := GenerateToken("admin", RoleAdmin, secret, time.Hour)
	expired, _ := GenerateToken("admin", RoleAdmin, secret, -time.Hour)

	tests := []struct {
		name     string
		token    string
		secret   string
		wantErr  bool
		wantRole Role
	}{
		{name: "valid token", token: valid, secret: secret, wantRole: RoleAdmin},
		{name: "wrong secret", token: valid, secret: "wrong-secret", wantErr: true},
		{name: "expired token", token: expired, secret: secret, wantErr: true},
		{name: "malformed token", token: "invalid.token.here", secret: secret, wantErr: true},
		{name: "empty token", token: "", secret: secret, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if claims.Role != tt.wantRole {
				t.Errorf("Role = %v, want %v", claims.Role, tt.wantRole)
			}
			if claims.Subject != "admin" {
				t.Errorf("Subject = %v, want admin", claims.Subject)
			}
		})
	}
}

func TestTokenSourceReusesToken(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	src := NewTokenSource("virtbot", RoleBot, "test-secret", time.Hour)
	src.now = func() time.Time { return now }

	first, err := src.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	now = now.Add(10 * time.Minute)
	second, _ := src.Token()
	if first != second {
		t.Error("token should be reused while more than half of ttl remains")
	}

	now = now.Add(25 * time.Minute)
	src.expires = now.Add(20 * time.Minute)
	third, _ := src.Token()
	if third == "" {
		t.Fatal("Token() returned empty token")
	}
	if src.expires != now.Add(time.Hour) {
		t.Error("token should be reissued when less than half of ttl remains")
	}

	claims, err := ValidateToken(third, "test-secret")
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Role != RoleBot || claims.Subject != "virtbot" {
		t.Errorf("claims = %+v", claims)
	}
}

func BenchmarkValidateToken(b *testing.B) {
	token, _ := GenerateToken("admin", RoleAdmin, "test-secret", time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ValidateToken(token, "test-secret")
	}
}
