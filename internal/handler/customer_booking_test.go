package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventsphere/eventsphere/internal/clock"
	"github.com/eventsphere/eventsphere/internal/model"
	"github.com/eventsphere/eventsphere/internal/qr"
	"github.com/eventsphere/eventsphere/internal/queue"
	"github.com/eventsphere/eventsphere/internal/service"
	"github.com/eventsphere/eventsphere/internal/testutil"
)

var handlerNow = time.Date(2025, 1, 10, 14, 30, 25, 0, time.UTC)

type bookingTestEnv struct {
	store     *testutil.MemStore
	handler   *BookingHandler
	event     model.Event
	user      model.User
	published []queue.BookingCompletedEvent
}

func newBookingTestEnv(t *testing.T) *bookingTestEnv {
	t.Helper()
	store := testutil.NewMemStore()
	event := store.AddEvent(model.Event{
		Title: "Winter Jazz Night", Venue: "City Hall",
		StartsAt:         time.Date(2025, 2, 1, 19, 0, 0, 0, time.UTC),
		EndsAt:           time.Date(2025, 2, 1, 23, 0, 0, 0, time.UTC),
		TicketPriceCents: 500, TotalTickets: 10, AvailableTickets: 10,
		Status: model.EventStatusPublished,
	})
	user := store.AddUser(model.User{
		Email: "dana@example.com", FullName: "Dana Cole",
		Role: model.RoleCustomer, LoyaltyPoints: 200, IsActive: true,
	})
	svc := service.NewBookingService(store, qr.NewPayloadIssuer(""), clock.NewFixed(handlerNow))

	env := &bookingTestEnv{store: store, event: event, user: user}
	env.handler = &BookingHandler{
		Svc: svc,
		Publish: func(_ context.Context, ev queue.BookingCompletedEvent) error {
			env.published = append(env.published, ev)
			return nil
		},
	}
	return env
}

// request builds an authenticated echo context the way JWTAuth leaves
// it: numeric claims arrive as float64.
func (env *bookingTestEnv) request(method, target, body string, userID uint64, paramName, paramValue string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(userID))
	c.Set("role", model.RoleCustomer)
	if paramName != "" {
		c.SetParamNames(paramName)
		c.SetParamValues(paramValue)
	}
	return c, rec
}

func TestBookingCreate(t *testing.T) {
	t.Run("creates pending booking", func(t *testing.T) {
		env := newBookingTestEnv(t)
		c, rec := env.request(http.MethodPost, "/v1/events/1/bookings",
			`{"quantity":2}`, env.user.ID, "id", "1")

		if err := env.handler.Create(c); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
		}
		var resp bookingResp
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.PaymentStatus != model.PaymentStatusPending || resp.TotalAmountCents != 1000 {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("rejects zero quantity with 400", func(t *testing.T) {
		env := newBookingTestEnv(t)
		c, rec := env.request(http.MethodPost, "/v1/events/1/bookings",
			`{"quantity":0}`, env.user.ID, "id", "1")

		_ = env.handler.Create(c)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unknown event yields 404", func(t *testing.T) {
		env := newBookingTestEnv(t)
		c, rec := env.request(http.MethodPost, "/v1/events/404/bookings",
			`{"quantity":1}`, env.user.ID, "id", "404")

		_ = env.handler.Create(c)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestBookingConfirmPayment(t *testing.T) {
	createBooking := func(t *testing.T, env *bookingTestEnv, qty uint32) uint64 {
		t.Helper()
		b, err := env.handler.Svc.CreateBooking(context.Background(), env.event.ID, env.user.ID, qty)
		if err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
		return b.ID
	}

	t.Run("settles and publishes", func(t *testing.T) {
		env := newBookingTestEnv(t)
		env.store.AddPromotion(model.Promotion{
			Code: "WINTER10", Percent: 10, Active: true,
			StartsAt: handlerNow.AddDate(0, 0, -1), EndsAt: handlerNow.AddDate(0, 0, 1),
		})
		id := createBooking(t, env, 2)

		c, rec := env.request(http.MethodPost, "/v1/bookings/4/payment",
			`{"payment_method":"CARD","promo_code":"WINTER10","use_points":true}`,
			env.user.ID, "id", "4")
		if id != 4 {
			t.Fatalf("fixture drift: booking id = %d", id)
		}

		if err := env.handler.ConfirmPayment(c); err != nil {
			t.Fatalf("ConfirmPayment: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
		}
		var resp receiptResp
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.Booking.FinalAmountCents != 700 || resp.PointsEarned != 35 {
			t.Errorf("final = %d earned = %d", resp.Booking.FinalAmountCents, resp.PointsEarned)
		}
		if resp.EventTitle != "Winter Jazz Night" {
			t.Errorf("event title = %q", resp.EventTitle)
		}
		if len(env.published) != 1 {
			t.Fatalf("published = %d events, want 1", len(env.published))
		}
		ev := env.published[0]
		if ev.FinalAmountCents != 700 || ev.InvoiceNo != resp.Payment.InvoiceNo || len(ev.TicketNumbers) != 2 {
			t.Errorf("published event = %+v", ev)
		}
	})

	t.Run("replay returns 200 and does not republish", func(t *testing.T) {
		env := newBookingTestEnv(t)
		id := createBooking(t, env, 1)

		c, rec := env.request(http.MethodPost, "/v1/bookings/3/payment",
			`{"payment_method":"CARD"}`, env.user.ID, "id", "3")
		if id != 3 {
			t.Fatalf("fixture drift: booking id = %d", id)
		}
		if err := env.handler.ConfirmPayment(c); err != nil {
			t.Fatalf("first confirm: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("first status = %d", rec.Code)
		}

		c2, rec2 := env.request(http.MethodPost, "/v1/bookings/3/payment",
			`{"payment_method":"CASH"}`, env.user.ID, "id", "3")
		if err := env.handler.ConfirmPayment(c2); err != nil {
			t.Fatalf("replay: %v", err)
		}
		if rec2.Code != http.StatusOK {
			t.Errorf("replay status = %d, want 200", rec2.Code)
		}
		if len(env.published) != 1 {
			t.Errorf("published = %d events after replay, want 1", len(env.published))
		}
	})

	t.Run("foreign booking yields 403", func(t *testing.T) {
		env := newBookingTestEnv(t)
		other := env.store.AddUser(model.User{Email: "eve@example.com", FullName: "Eve", Role: model.RoleCustomer})
		id := createBooking(t, env, 1)

		c, rec := env.request(http.MethodPost, "/v1/bookings/4/payment",
			`{"payment_method":"CARD"}`, other.ID, "id", "4")
		if id != 4 {
			t.Fatalf("fixture drift: booking id = %d", id)
		}
		_ = env.handler.ConfirmPayment(c)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("missing payment method yields 400", func(t *testing.T) {
		env := newBookingTestEnv(t)
		id := createBooking(t, env, 1)

		c, rec := env.request(http.MethodPost, "/v1/bookings/3/payment",
			`{}`, env.user.ID, "id", "3")
		if id != 3 {
			t.Fatalf("fixture drift: booking id = %d", id)
		}
		_ = env.handler.ConfirmPayment(c)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}
