package handlers

import (
	"errors"
	"net/http"

	"github.com/agamariel/virtshop/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DegradedHeader выставляется, когда ответ получен по политике fail-open.
const DegradedHeader = "X-Degraded"

// mapServiceError переводит ошибку сервиса в HTTP-ответ.
func mapServiceError(logger *zap.SugaredLogger, op string, err error) error {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case errors.Is(err, services.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	case errors.Is(err, services.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, services.ErrBanNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "ban not found")
	case errors.Is(err, services.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	default:
		logger.Errorw(op+" failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func markDegraded(c echo.Context, degraded bool) {
	if degraded {
		c.Response().Header().Set(DegradedHeader, "true")
	}
}
