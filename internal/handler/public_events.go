package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventsphere/eventsphere/internal/model"
	"github.com/eventsphere/eventsphere/internal/repository"
)

// PublicHandler serves the unauthenticated event catalogue. These
// routes sit behind the response cache and rate limit middleware.
type PublicHandler struct {
	Events *repository.EventRepo
}

func NewPublicHandler(events *repository.EventRepo) *PublicHandler {
	if events == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Events: events}
}

type eventResp struct {
	ID               uint64 `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	Venue            string `json:"venue"`
	StartsAt         string `json:"starts_at"`
	EndsAt           string `json:"ends_at"`
	TicketPriceCents int64  `json:"ticket_price_cents"`
	TotalTickets     uint32 `json:"total_tickets"`
	AvailableTickets uint32 `json:"available_tickets"`
	Status           string `json:"status"`
}

func toEventResp(e model.Event) eventResp {
	return eventResp{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		Category:         e.Category,
		Venue:            e.Venue,
		StartsAt:         e.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:           e.EndsAt.UTC().Format(time.RFC3339),
		TicketPriceCents: e.TicketPriceCents,
		TotalTickets:     e.TotalTickets,
		AvailableTickets: e.AvailableTickets,
		Status:           e.Status,
	}
}

// List handles GET /v1/events. It returns published events that have
// not yet ended, optionally filtered by ?category= and matched against
// ?q= on title and venue.
func (h *PublicHandler) List(c echo.Context) error {
	category := strings.TrimSpace(c.QueryParam("category"))
	search := strings.TrimSpace(c.QueryParam("q"))

	events, err := h.Events.ListUpcoming(c.Request().Context(), time.Now().UTC(), category, search)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load events"})
	}
	items := make([]eventResp, 0, len(events))
	for _, e := range events {
		items = append(items, toEventResp(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/events/:id.
func (h *PublicHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	event, err := h.Events.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch event"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toEventResp(event)})
}
