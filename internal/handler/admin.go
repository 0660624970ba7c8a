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

// AdminHandler covers the platform administration surface: promotion
// management, cross-organizer sales reports, and the user directory.
type AdminHandler struct {
	Promotions *repository.PromotionRepo
	Bookings   *repository.BookingRepo
	Users      *repository.UserRepo
}

func NewAdminHandler(promos *repository.PromotionRepo, bookings *repository.BookingRepo, users *repository.UserRepo) *AdminHandler {
	if promos == nil || bookings == nil || users == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Promotions: promos, Bookings: bookings, Users: users}
}

type promotionReq struct {
	Code     string `json:"code"`
	Percent  uint32 `json:"percent"`
	Active   *bool  `json:"active"`
	StartsAt string `json:"starts_at"` // RFC3339
	EndsAt   string `json:"ends_at"`   // RFC3339
}

type promotionResp struct {
	ID       uint64 `json:"id"`
	Code     string `json:"code"`
	Percent  uint32 `json:"percent"`
	Active   bool   `json:"active"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

func toPromotionResp(p model.Promotion) promotionResp {
	return promotionResp{
		ID:       p.ID,
		Code:     p.Code,
		Percent:  p.Percent,
		Active:   p.Active,
		StartsAt: p.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:   p.EndsAt.UTC().Format(time.RFC3339),
	}
}

// parse validates the body. Codes are kept exactly as sent: promotion
// codes match case-sensitively.
func (req *promotionReq) parse() (model.Promotion, string) {
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		return model.Promotion{}, "code is required"
	}
	if req.Percent == 0 || req.Percent > 100 {
		return model.Promotion{}, "percent must be between 1 and 100"
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return model.Promotion{}, "starts_at must be RFC3339"
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return model.Promotion{}, "ends_at must be RFC3339"
	}
	if !endsAt.After(startsAt) {
		return model.Promotion{}, "ends_at must be after starts_at"
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return model.Promotion{
		Code:     req.Code,
		Percent:  req.Percent,
		Active:   active,
		StartsAt: startsAt.UTC(),
		EndsAt:   endsAt.UTC(),
	}, ""
}

// CreatePromotion handles POST /v1/admin/promotions.
func (h *AdminHandler) CreatePromotion(c echo.Context) error {
	var req promotionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	promo, msg := req.parse()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Promotions.Create(c.Request().Context(), &promo); err != nil {
		if errors.Is(err, repository.ErrCodeExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "promotion code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create promotion failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toPromotionResp(promo)})
}

// UpdatePromotion handles PUT /v1/admin/promotions/:id.
func (h *AdminHandler) UpdatePromotion(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid promotion id"})
	}
	var req promotionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	promo, msg := req.parse()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	promo.ID = id
	// The code itself is immutable; only the window, percent and active
	// flag can change.
	if err := h.Promotions.Update(c.Request().Context(), &promo); err != nil {
		if errors.Is(err, repository.ErrPromotionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "promotion not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update promotion failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toPromotionResp(promo)})
}

// ListPromotions handles GET /v1/admin/promotions.
func (h *AdminHandler) ListPromotions(c echo.Context) error {
	promos, err := h.Promotions.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load promotions"})
	}
	items := make([]promotionResp, 0, len(promos))
	for _, p := range promos {
		items = append(items, toPromotionResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// SalesReport handles GET /v1/admin/reports?from=...&to=... with both
// bounds in RFC3339. Defaults cover the last 30 days.
func (h *AdminHandler) SalesReport(c echo.Context) error {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now
	if raw := strings.TrimSpace(c.QueryParam("from")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be RFC3339"})
		}
		from = t.UTC()
	}
	if raw := strings.TrimSpace(c.QueryParam("to")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be RFC3339"})
		}
		to = t.UTC()
	}
	if to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must not be before from"})
	}
	items, err := h.Bookings.SalesReport(c.Request().Context(), from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to build report"})
	}
	var tickets, revenue int64
	for _, s := range items {
		tickets += s.TicketsSold
		revenue += s.RevenueCents
	}
	return c.JSON(http.StatusOK, echo.Map{
		"from":                from.Format(time.RFC3339),
		"to":                  to.Format(time.RFC3339),
		"total_tickets":       tickets,
		"total_revenue_cents": revenue,
		"items":               items,
	})
}

// ListUsers handles GET /v1/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	// Admin-only by routing, but double-check the claim before exposing
	// the directory.
	if middleware.CurrentRole(c) != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	users, err := h.Users.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load users"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}
