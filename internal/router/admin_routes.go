package router

// This file registers admin-only routes.  Admins manage promotion codes,
// pull platform-wide sales reports, and inspect the user directory with
// loyalty reconciliation totals.

import (
	"github.com/labstack/echo/v4"

	"github.com/eventsphere/eventsphere/internal/handler"
	"github.com/eventsphere/eventsphere/internal/middleware"
)

// RegisterAdmin registers routes under /v1/admin.  All routes require a
// JWT token as well as the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)
	// Promotion code management
	g.POST("/promotions", h.CreatePromotion)
	g.GET("/promotions", h.ListPromotions)
	g.PUT("/promotions/:id", h.UpdatePromotion)
	// Platform-wide sales report over a date range
	g.GET("/reports", h.SalesReport)
	// User directory with loyalty ledger reconciliation
	g.GET("/users", h.ListUsers)
}
