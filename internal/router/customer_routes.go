package router

import (
	"github.com/labstack/echo/v4"

	"github.com/eventsphere/eventsphere/internal/handler"
	"github.com/eventsphere/eventsphere/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  Customers create
// bookings against published events, confirm their payment, browse
// their own bookings, and read their loyalty balance and history.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, l *handler.LoyaltyHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)
	// Note: GET /v1/events and GET /v1/events/:id are registered on the
	// public router so that guests can browse the catalogue.  Customer
	// endpoints begin here.
	g.POST("/events/:id/bookings", b.Create)
	g.POST("/bookings/:id/payment", b.ConfirmPayment)
	g.GET("/my-bookings", b.ListMine)
	g.GET("/bookings/:id", b.Get)

	// Loyalty balance with the full audit history.
	g.GET("/loyalty", l.Get)
}
