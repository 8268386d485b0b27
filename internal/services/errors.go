package services

import (
	"errors"
	"fmt"

	"github.com/agamariel/virtshop/internal/models"
	"github.com/agamariel/virtshop/internal/storage"
)

var (
	ErrValidation    = models.ErrValidation
	ErrOrderNotFound = storage.ErrOrderNotFound
	ErrBanNotFound   = storage.ErrBanNotFound
	ErrUnauthorized  = models.ErrUnauthorized
	ErrUpstream      = models.ErrUpstream
)

// ValidationError описывает отклонённое поле запроса.
type ValidationError = models.ValidationError

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// upstream оборачивает ошибку хранилища, если это не известная доменная ошибка.
func upstream(op string, err error) error {
	if errors.Is(err, storage.ErrOrderNotFound) || errors.Is(err, storage.ErrBanNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}
