package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role - роль владельца токена.
type Role string

const (
	// RoleAdmin - единственная административная учётная запись.
	RoleAdmin Role = "admin"
	// RoleBot - доверенный фронтенд (Telegram-бот).
	RoleBot Role = "bot"
)

// Claims содержит информацию о владельце JWT токена.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

var (
	// ErrInvalidToken возвращается при невалидном токене.
	ErrInvalidToken = errors.New("invalid token")
)

// GenerateToken генерирует JWT токен для субъекта с указанной ролью.
func GenerateToken(subject string, role Role, secret string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken валидирует JWT токен и возвращает claims.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Проверка метода подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// TokenSource выпускает токены для сервисных клиентов и обновляет их,
// когда до истечения остаётся меньше половины срока жизни.
type TokenSource struct {
	subject string
	role    Role
	secret  string
	ttl     time.Duration

	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

// NewTokenSource создаёт источник токенов.
func NewTokenSource(subject string, role Role, secret string, ttl time.Duration) *TokenSource {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenSource{subject: subject, role: role, secret: secret, ttl: ttl, now: time.Now}
}

// Token возвращает действующий токен.
func (s *TokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && s.expires.Sub(now) > s.ttl/2 {
		return s.token, nil
	}

	token, err := GenerateToken(s.subject, s.role, s.secret, s.ttl)
	if err != nil {
		return "", err
	}
	s.token = token
	s.expires = now.Add(s.ttl)
	return token, nil
}
