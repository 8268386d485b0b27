package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") && !strings.HasPrefix(hash, "$2b$") {
		t.Errorf("HashPassword() = %q, want bcrypt hash", hash)
	}

	other, _ := HashPassword("s3cret")
	if hash == other {
		t.Error("bcrypt hashes of the same password should differ by salt")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, _ := HashPassword("s3cret")

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{name: "correct password", password: "s3cret", hash: hash, want: true},
		{name: "wrong password", password: "secret", hash: hash, want: false},
		{name: "empty password", password: "", hash: hash, want: false},
		{name: "empty hash", password: "s3cret", hash: "", want: false},
		{name: "not a bcrypt hash", password: "s3cret", hash: "plain", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}
