package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/agamariel/virtshop/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// LoginRequest - тело запроса входа администратора.
type LoginRequest struct {
	Password string `json:"password"`
}

// AdminHandler обрабатывает вход администратора и health-check.
type AdminHandler struct {
	adminService services.AdminService
	tokenTTL     time.Duration
	logger       *zap.SugaredLogger
}

func NewAdminHandler(adminService services.AdminService, tokenTTL time.Duration, logger *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{adminService: adminService, tokenTTL: tokenTTL, logger: logger}
}

// Login обрабатывает POST /api/admin/login.
func (h *AdminHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	token, err := h.adminService.Login(req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			h.logger.Warnw("admin login rejected", "remote", c.RealIP())
		}
		return mapServiceError(h.logger, "admin login", err)
	}

	setAuthToken(c, token, h.tokenTTL)
	return c.JSON(http.StatusOK, map[string]interface{}{"token": token})
}

// Health обрабатывает GET /api/health.
func (h *AdminHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok"})
}

// setAuthToken устанавливает токен в cookie и заголовок ответа.
func setAuthToken(c echo.Context, token string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     "Authorization",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(ttl.Seconds()),
	})
	c.Response().Header().Set("Authorization", "Bearer "+token)
}
