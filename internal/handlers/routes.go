package handlers

import (
	"github.com/agamariel/virtshop/internal/auth"
	"github.com/labstack/echo/v4"
)

// Router собирает обработчики API.
type Router struct {
	Orders    *OrderHandler
	Bans      *BanHandler
	Admin     *AdminHandler
	JWTSecret string
}

// Register настраивает маршруты /api.
func (r *Router) Register(e *echo.Echo) {
	api := e.Group("/api")

	// Публичные маршруты
	api.GET("/health", r.Admin.Health)
	api.POST("/admin/login", r.Admin.Login)

	// Бот и администратор
	shared := api.Group("", auth.JWTMiddleware(r.JWTSecret), auth.RequireRole(auth.RoleBot, auth.RoleAdmin))
	shared.POST("/orders", r.Orders.Create)
	shared.GET("/orders", r.Orders.List)
	shared.GET("/orders/stats/servers", r.Orders.ServerStats)
	shared.GET("/banned/:user_id", r.Bans.Check)

	// Только администратор
	admin := api.Group("", auth.JWTMiddleware(r.JWTSecret), auth.RequireRole(auth.RoleAdmin))
	admin.PATCH("/orders/:id/approve", r.Orders.Approve)
	admin.PATCH("/orders/:id/reject", r.Orders.Reject)
	admin.PATCH("/orders/:id", r.Orders.Amend)
	admin.DELETE("/orders/:id", r.Orders.Delete)
	admin.POST("/banned", r.Bans.Ban)
	admin.DELETE("/banned/:user_id", r.Bans.Unban)
	admin.GET("/banned", r.Bans.List)
}
