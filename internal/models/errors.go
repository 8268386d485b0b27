package models

import (
	"errors"
	"fmt"
)

// Ошибки, общие для сервиса заявок и его клиентов.
var (
	ErrValidation    = errors.New("validation failed")
	ErrOrderNotFound = errors.New("order not found")
	ErrBanNotFound   = errors.New("ban record not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUpstream      = errors.New("storage unavailable")
)

// ValidationError описывает отклонённое поле запроса.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
