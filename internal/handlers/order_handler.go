package handlers

import (
	"net/http"
	"strconv"

	"github.com/agamariel/virtshop/internal/models"
	"github.com/agamariel/virtshop/internal/services"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// OrderHandler обрабатывает запросы, связанные с заявками.
type OrderHandler struct {
	orderService services.OrderService
	logger       *zap.SugaredLogger
}

func NewOrderHandler(orderService services.OrderService, logger *zap.SugaredLogger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

// Create обрабатывает POST /api/orders.
func (h *OrderHandler) Create(c echo.Context) error {
	var req models.OrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	order, err := h.orderService.Create(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(h.logger, "create order", err)
	}

	return c.JSON(http.StatusOK, order)
}

// List обрабатывает GET /api/orders.
func (h *OrderHandler) List(c echo.Context) error {
	filter, err := parseOrderFilter(c)
	if err != nil {
		return err
	}

	orders, err := h.orderService.List(c.Request().Context(), filter)
	if err != nil {
		return mapServiceError(h.logger, "list orders", err)
	}

	return c.JSON(http.StatusOK, orders)
}

// Approve обрабатывает PATCH /api/orders/:id/approve.
func (h *OrderHandler) Approve(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	order, err := h.orderService.Approve(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(h.logger, "approve order", err)
	}
	return c.JSON(http.StatusOK, order)
}

// Reject обрабатывает PATCH /api/orders/:id/reject.
func (h *OrderHandler) Reject(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	order, err := h.orderService.Reject(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(h.logger, "reject order", err)
	}
	return c.JSON(http.StatusOK, order)
}

// Amend обрабатывает PATCH /api/orders/:id.
func (h *OrderHandler) Amend(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var patch models.OrderPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	order, err := h.orderService.Amend(c.Request().Context(), id, patch)
	if err != nil {
		return mapServiceError(h.logger, "amend order", err)
	}
	return c.JSON(http.StatusOK, order)
}

// Delete обрабатывает DELETE /api/orders/:id.
func (h *OrderHandler) Delete(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	existed, err := h.orderService.Delete(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(h.logger, "delete order", err)
	}
	if !existed {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

// ServerStats обрабатывает GET /api/orders/stats/servers.
func (h *OrderHandler) ServerStats(c echo.Context) error {
	res := h.orderService.ServerStats(c.Request().Context(), c.QueryParam("project"))
	markDegraded(c, res.Degraded)
	return c.JSON(http.StatusOK, res.Stats)
}

func orderID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	return id, nil
}

func parseOrderFilter(c echo.Context) (models.OrderFilter, error) {
	filter := models.OrderFilter{
		OrderType: models.OrderType(c.QueryParam("order_type")),
		Status:    models.OrderStatus(c.QueryParam("status")),
		Project:   c.QueryParam("project"),
		Source:    models.OrderSource(c.QueryParam("source")),
	}
	if raw := c.QueryParam("user_id"); raw != "" {
		uid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
		}
		filter.UserID = &uid
	}
	return filter, nil
}
