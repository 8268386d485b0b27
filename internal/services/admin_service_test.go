package services

import (
	"testing"
	"time"

	"github.com/agamariel/virtshop/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_Login(t *testing.T) {
	hash, err := auth.HashPassword("open-sesame")
	require.NoError(t, err)

	svc := NewAdminService(hash, "test-secret", time.Hour)

	token, err := svc.Login("open-sesame")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
	assert.Equal(t, AdminSubject, claims.Subject)

	_, err = svc.Login("wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAdminService_LoginWithoutHash(t *testing.T) {
	svc := NewAdminService("", "test-secret", time.Hour)
	_, err := svc.Login("anything")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
