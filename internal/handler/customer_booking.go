package handler

import (
	"context" // detached context for best-effort publishing
	"errors"  // for errors.Is comparisons
	"log"     // broker failures are logged, never surfaced
	"net/http"
	"strconv" // parsing path parameters
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventsphere/eventsphere/internal/middleware"
	"github.com/eventsphere/eventsphere/internal/model"
	"github.com/eventsphere/eventsphere/internal/queue"
	"github.com/eventsphere/eventsphere/internal/repository"
	"github.com/eventsphere/eventsphere/internal/service"
)

// BookingHandler exposes the customer booking flow: create a pending
// booking, confirm its payment, and read back bookings with their
// tickets. All methods assume JWT authentication and role validation
// have already run; the acting customer is always resolved from the
// request context, never from the payload.
type BookingHandler struct {
	Svc      *service.BookingService
	Bookings *repository.BookingRepo

	// Publish sends the completed-booking event to the broker. It is a
	// field so tests can capture events without a running broker.
	Publish func(ctx context.Context, ev queue.BookingCompletedEvent) error
}

// NewBookingHandler constructs a BookingHandler wired to the RabbitMQ
// publisher. All dependencies must be non-nil.
func NewBookingHandler(svc *service.BookingService, bookings *repository.BookingRepo) *BookingHandler {
	if svc == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{
		Svc:      svc,
		Bookings: bookings,
		Publish:  queue.PublishBookingCompleted,
	}
}

// ----- DTOs -----

type createBookingReq struct {
	Quantity uint32 `json:"quantity"`
}

type confirmPaymentReq struct {
	PaymentMethod string `json:"payment_method"`
	PromoCode     string `json:"promo_code"`
	UsePoints     bool   `json:"use_points"`
}

type bookingResp struct {
	ID               uint64  `json:"id"`
	EventID          uint64  `json:"event_id"`
	Quantity         uint32  `json:"quantity"`
	TotalAmountCents int64   `json:"total_amount_cents"`
	DiscountCents    int64   `json:"discount_cents"`
	PointsUsed       int64   `json:"points_used"`
	FinalAmountCents int64   `json:"final_amount_cents"`
	PromotionID      *uint64 `json:"promotion_id,omitempty"`
	PaymentStatus    string  `json:"payment_status"`
	PaymentMethod    *string `json:"payment_method,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

type ticketResp struct {
	ID           uint64  `json:"id"`
	TicketNumber string  `json:"ticket_number"`
	QRRef        *string `json:"qr_ref,omitempty"`
}

type paymentResp struct {
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
	Method      string `json:"method"`
	ReferenceNo string `json:"reference_no"`
	InvoiceNo   string `json:"invoice_no"`
	PaidAt      string `json:"paid_at"`
}

type receiptResp struct {
	Booking          bookingResp  `json:"booking"`
	EventTitle       string       `json:"event_title"`
	Payment          paymentResp  `json:"payment"`
	Tickets          []ticketResp `json:"tickets"`
	PointsEarned     int64        `json:"points_earned"`
	AlreadyCompleted bool         `json:"already_completed"`
}

func toBookingResp(b model.Booking) bookingResp {
	return bookingResp{
		ID:               b.ID,
		EventID:          b.EventID,
		Quantity:         b.Quantity,
		TotalAmountCents: b.TotalAmountCents,
		DiscountCents:    b.DiscountCents,
		PointsUsed:       b.PointsUsed,
		FinalAmountCents: b.FinalAmountCents,
		PromotionID:      b.PromotionID,
		PaymentStatus:    b.PaymentStatus,
		PaymentMethod:    b.PaymentMethod,
		CreatedAt:        b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toReceiptResp(r service.Receipt) receiptResp {
	tickets := make([]ticketResp, 0, len(r.Tickets))
	for _, t := range r.Tickets {
		tickets = append(tickets, ticketResp{ID: t.ID, TicketNumber: t.TicketNumber, QRRef: t.QRRef})
	}
	return receiptResp{
		Booking:    toBookingResp(r.Booking),
		EventTitle: r.EventTitle,
		Payment: paymentResp{
			AmountCents: r.Payment.AmountCents,
			Status:      r.Payment.Status,
			Method:      r.Payment.Method,
			ReferenceNo: r.Payment.ReferenceNo,
			InvoiceNo:   r.Payment.InvoiceNo,
			PaidAt:      r.Payment.PaidAt.UTC().Format(time.RFC3339),
		},
		Tickets:          tickets,
		PointsEarned:     r.PointsEarned,
		AlreadyCompleted: r.AlreadyCompleted,
	}
}

// bookingErrorStatus maps orchestrator sentinels onto HTTP responses.
func bookingErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		return http.StatusNotFound, "event not found"
	case errors.Is(err, service.ErrBookingNotFound):
		return http.StatusNotFound, "booking not found"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrEventEnded):
		return http.StatusConflict, "event has already ended"
	case errors.Is(err, service.ErrInsufficientInventory):
		return http.StatusConflict, "not enough tickets available"
	case errors.Is(err, service.ErrInvalidQuantity):
		return http.StatusBadRequest, "quantity must be greater than zero"
	case errors.Is(err, service.ErrInvalidPromotion):
		return http.StatusBadRequest, "invalid promotion code"
	case errors.Is(err, service.ErrInvalidPaymentMethod):
		return http.StatusBadRequest, "payment_method is required"
	default:
		return http.StatusInternalServerError, "database error"
	}
}

// Create handles POST /v1/events/:id/bookings. It records a PENDING
// booking with its ticket placeholders and returns 201 Created. No
// inventory is reserved at this point.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	booking, err := h.Svc.CreateBooking(c.Request().Context(), eventID, userID, req.Quantity)
	if err != nil {
		status, msg := bookingErrorStatus(err)
		return c.JSON(status, echo.Map{"error": msg})
	}
	return c.JSON(http.StatusCreated, toBookingResp(booking))
}

// ConfirmPayment handles POST /v1/bookings/:id/payment. It settles the
// booking atomically and returns the receipt. Replaying a confirmation
// against a completed booking returns the stored receipt with 200
// instead of 201.
func (h *BookingHandler) ConfirmPayment(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req confirmPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	receipt, err := h.Svc.ConfirmPayment(c.Request().Context(), service.ConfirmPaymentInput{
		BookingID:     bookingID,
		UserID:        userID,
		PromoCode:     strings.TrimSpace(req.PromoCode),
		UsePoints:     req.UsePoints,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
	})
	if err != nil {
		status, msg := bookingErrorStatus(err)
		return c.JSON(status, echo.Map{"error": msg})
	}

	if !receipt.AlreadyCompleted {
		h.publishCompleted(receipt)
		return c.JSON(http.StatusCreated, toReceiptResp(receipt))
	}
	return c.JSON(http.StatusOK, toReceiptResp(receipt))
}

// publishCompleted emits the booking.completed event. Broker failures
// must not fail the request: the payment is already committed.
func (h *BookingHandler) publishCompleted(r service.Receipt) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	numbers := make([]string, 0, len(r.Tickets))
	for _, t := range r.Tickets {
		numbers = append(numbers, t.TicketNumber)
	}
	event := queue.BookingCompletedEvent{
		BookingID:        r.Booking.ID,
		UserID:           r.Booking.UserID,
		EventID:          r.Booking.EventID,
		EventTitle:       r.EventTitle,
		Quantity:         r.Booking.Quantity,
		TotalAmountCents: r.Booking.TotalAmountCents,
		DiscountCents:    r.Booking.DiscountCents,
		PointsUsed:       r.Booking.PointsUsed,
		FinalAmountCents: r.Booking.FinalAmountCents,
		PointsEarned:     r.PointsEarned,
		InvoiceNo:        r.Payment.InvoiceNo,
		ReferenceNo:      r.Payment.ReferenceNo,
		TicketNumbers:    numbers,
		CompletedAt:      r.Payment.PaidAt.UTC().Format(time.RFC3339),
	}
	if err := h.Publish(ctx, event); err != nil {
		log.Printf("booking %d: publish completed event failed: %v", r.Booking.ID, err)
	}
}

// ListMine handles GET /v1/my-bookings. It returns every booking of
// the current user with event and ticket details, newest first.
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// Get handles GET /v1/bookings/:id. Ownership is enforced in the
// repository, so a foreign booking reads as not found.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	detail, err := h.Bookings.GetByIDForUser(c.Request().Context(), bookingID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}
