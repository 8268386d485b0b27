package handlers

import (
	"net/http"
	"strconv"

	"github.com/agamariel/virtshop/internal/models"
	"github.com/agamariel/virtshop/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// BanHandler обрабатывает запросы реестра блокировок.
type BanHandler struct {
	banService services.BanService
	logger     *zap.SugaredLogger
}

func NewBanHandler(banService services.BanService, logger *zap.SugaredLogger) *BanHandler {
	return &BanHandler{banService: banService, logger: logger}
}

// Check обрабатывает GET /api/banned/:user_id.
func (h *BanHandler) Check(c echo.Context) error {
	userID, err := pathUserID(c)
	if err != nil {
		return err
	}

	status := h.banService.IsBanned(c.Request().Context(), userID)
	markDegraded(c, status.Degraded)
	return c.JSON(http.StatusOK, status)
}

// Ban обрабатывает POST /api/banned.
func (h *BanHandler) Ban(c echo.Context) error {
	var req models.BanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	record, err := h.banService.Ban(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(h.logger, "ban user", err)
	}
	return c.JSON(http.StatusOK, record)
}

// Unban обрабатывает DELETE /api/banned/:user_id.
func (h *BanHandler) Unban(c echo.Context) error {
	userID, err := pathUserID(c)
	if err != nil {
		return err
	}

	existed, err := h.banService.Unban(c.Request().Context(), userID)
	if err != nil {
		return mapServiceError(h.logger, "unban user", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": existed})
}

// List обрабатывает GET /api/banned.
func (h *BanHandler) List(c echo.Context) error {
	list := h.banService.ListActive(c.Request().Context())
	markDegraded(c, list.Degraded)
	return c.JSON(http.StatusOK, list.Bans)
}

func pathUserID(c echo.Context) (int64, error) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}
	return userID, nil
}
