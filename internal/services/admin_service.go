package services

import (
	"time"

	"github.com/agamariel/virtshop/internal/auth"
)

// AdminSubject - субъект токена единственного администратора.
const AdminSubject = "admin"

// AdminService выдаёт токены администратору.
type AdminService interface {
	Login(password string) (string, error)
}

// AdminServiceImpl реализует AdminService поверх bcrypt-хеша из конфигурации.
type AdminServiceImpl struct {
	passwordHash    string
	jwtSecret       string
	tokenExpiration time.Duration
}

// NewAdminService создаёт сервис входа администратора.
func NewAdminService(passwordHash, jwtSecret string, tokenExpiration time.Duration) *AdminServiceImpl {
	return &AdminServiceImpl{
		passwordHash:    passwordHash,
		jwtSecret:       jwtSecret,
		tokenExpiration: tokenExpiration,
	}
}

// Login сверяет пароль и возвращает JWT с ролью admin.
func (s *AdminServiceImpl) Login(password string) (string, error) {
	if !auth.CheckPassword(password, s.passwordHash) {
		return "", ErrUnauthorized
	}
	return auth.GenerateToken(AdminSubject, auth.RoleAdmin, s.jwtSecret, s.tokenExpiration)
}
