package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventsphere/eventsphere/internal/middleware"
	"github.com/eventsphere/eventsphere/internal/model"
	"github.com/eventsphere/eventsphere/internal/repository"
)

// OrganizerHandler groups the organizer-facing surface: event CRUD,
// per-event booking listings, sales summaries, and venue check-in.
// Ownership of the touched event is verified on every call.
type OrganizerHandler struct {
	Events   *repository.EventRepo
	Bookings *repository.BookingRepo
}

func NewOrganizerHandler(events *repository.EventRepo, bookings *repository.BookingRepo) *OrganizerHandler {
	if events == nil || bookings == nil {
		panic("nil repository passed to NewOrganizerHandler")
	}
	return &OrganizerHandler{Events: events, Bookings: bookings}
}

type eventReq struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	Venue            string `json:"venue"`
	StartsAt         string `json:"starts_at"` // RFC3339
	EndsAt           string `json:"ends_at"`   // RFC3339
	TicketPriceCents int64  `json:"ticket_price_cents"`
	TotalTickets     uint32 `json:"total_tickets"`
	Status           string `json:"status"` // optional on update
}

// parse validates the request body and returns the populated event.
func (req *eventReq) parse() (model.Event, string) {
	req.Title = strings.TrimSpace(req.Title)
	req.Venue = strings.TrimSpace(req.Venue)
	if req.Title == "" {
		return model.Event{}, "title is required"
	}
	if req.Venue == "" {
		return model.Event{}, "venue is required"
	}
	if req.TicketPriceCents < 0 {
		return model.Event{}, "ticket_price_cents must not be negative"
	}
	if req.TotalTickets == 0 {
		return model.Event{}, "total_tickets must be greater than zero"
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return model.Event{}, "starts_at must be RFC3339"
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return model.Event{}, "ends_at must be RFC3339"
	}
	if !endsAt.After(startsAt) {
		return model.Event{}, "ends_at must be after starts_at"
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status != "" && status != model.EventStatusPublished && status != model.EventStatusCancelled {
		return model.Event{}, "invalid status"
	}
	return model.Event{
		Title:            req.Title,
		Description:      req.Description,
		Category:         strings.TrimSpace(req.Category),
		Venue:            req.Venue,
		StartsAt:         startsAt.UTC(),
		EndsAt:           endsAt.UTC(),
		TicketPriceCents: req.TicketPriceCents,
		TotalTickets:     req.TotalTickets,
		Status:           status,
	}, ""
}

// CreateEvent handles POST /v1/organizer/events.
func (h *OrganizerHandler) CreateEvent(c echo.Context) error {
	organizerID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	event, msg := req.parse()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	event.OrganizerID = organizerID

	if err := h.Events.Create(c.Request().Context(), &event); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toEventResp(event)})
}

// ListEvents handles GET /v1/organizer/events.
func (h *OrganizerHandler) ListEvents(c echo.Context) error {
	organizerID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	events, err := h.Events.ListByOrganizer(c.Request().Context(), organizerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load events"})
	}
	items := make([]eventResp, 0, len(events))
	for _, e := range events {
		items = append(items, toEventResp(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateEvent handles PUT /v1/organizer/events/:id. Lowering capacity
// below the number of sold tickets is rejected with 409.
func (h *OrganizerHandler) UpdateEvent(c echo.Context) error {
	organizerID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	event, msg := req.parse()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if event.Status == "" {
		event.Status = model.EventStatusPublished
	}
	event.ID = eventID

	if err := h.Events.Update(c.Request().Context(), organizerID, &event); err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "total_tickets below tickets already sold"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toEventResp(event)})
}

// DeleteEvent handles DELETE /v1/organizer/events/:id. Events with
// bookings cannot be deleted.
func (h *OrganizerHandler) DeleteEvent(c echo.Context) error {
	organizerID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.Events.Delete(c.Request().Context(), eventID, organizerID); err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "event has bookings"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete event failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListBookings handles GET /v1/organizer/events/:id/bookings.
func (h *OrganizerHandler) ListBookings(c echo.Context) error {
	organizerID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	items, err := h.Bookings.ListByEventForOrganizer(c.Request().Context(), eventID, organizerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Sales handles GET /v1/organizer/sales. Totals cover completed
// bookings only; events without sales show zeros.
func (h *OrganizerHandler) Sales(c echo.Context) error {
	organizerID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bookings.SalesByOrganizer(c.Request().Context(), organizerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load sales"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CheckIn handles POST /v1/organizer/bookings/:id/check-in. Only
// completed bookings of the organizer's own events can be checked in.
func (h *OrganizerHandler) CheckIn(c echo.Context) error {
	organizerID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	if err := h.Bookings.SetCheckedIn(c.Request().Context(), bookingID, organizerID); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not completed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"checked_in": true})
}
