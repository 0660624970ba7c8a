package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventsphere/eventsphere/internal/middleware"
	"github.com/eventsphere/eventsphere/internal/repository"
)

// LoyaltyHandler exposes the customer's loyalty balance and its
// append-only transaction history.
type LoyaltyHandler struct {
	Users  *repository.UserRepo
	Ledger *repository.LoyaltyRepo
}

func NewLoyaltyHandler(users *repository.UserRepo, ledger *repository.LoyaltyRepo) *LoyaltyHandler {
	if users == nil || ledger == nil {
		panic("nil repository passed to NewLoyaltyHandler")
	}
	return &LoyaltyHandler{Users: users, Ledger: ledger}
}

type loyaltyTxResp struct {
	ID          uint64 `json:"id"`
	BookingID   uint64 `json:"booking_id"`
	Points      int64  `json:"points"`
	Type        string `json:"type"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// Get handles GET /v1/loyalty. It returns the current balance, the
// full history, and the ledger sum so clients can see the two agree.
func (h *LoyaltyHandler) Get(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
	}
	history, err := h.Ledger.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load history"})
	}
	ledgerSum, err := h.Ledger.SumByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load history"})
	}

	items := make([]loyaltyTxResp, 0, len(history))
	for _, t := range history {
		items = append(items, loyaltyTxResp{
			ID:          t.ID,
			BookingID:   t.BookingID,
			Points:      t.Points,
			Type:        t.Type,
			Description: t.Description,
			CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"balance":    u.LoyaltyPoints,
		"ledger_sum": ledgerSum,
		"history":    items,
	})
}
