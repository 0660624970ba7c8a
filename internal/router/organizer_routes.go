package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/eventsphere/eventsphere/internal/handler"    // organizer handlers
	"github.com/eventsphere/eventsphere/internal/middleware" // JWT + role middlewares
)

// RegisterOrganizer registers ORGANIZER-scoped endpoints under /v1.
// All routes require a valid JWT and ORGANIZER role.
func RegisterOrganizer(e *echo.Echo, o *handler.OrganizerHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1/organizer",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ORGANIZER"),
	)

	// ---- Events ----
	g.POST("/events", o.CreateEvent)
	g.GET("/events", o.ListEvents)
	g.PUT("/events/:id", o.UpdateEvent)
	g.PATCH("/events/:id", o.UpdateEvent) // allow partial/semantic updates via PATCH as well
	g.DELETE("/events/:id", o.DeleteEvent)

	// ---- Bookings and sales ----
	g.GET("/events/:id/bookings", o.ListBookings)
	g.GET("/sales", o.Sales)
	g.POST("/bookings/:id/check-in", o.CheckIn)
}
