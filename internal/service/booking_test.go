package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eventsphere/eventsphere/internal/clock"
	"github.com/eventsphere/eventsphere/internal/model"
	"github.com/eventsphere/eventsphere/internal/qr"
	"github.com/eventsphere/eventsphere/internal/service"
	"github.com/eventsphere/eventsphere/internal/testutil"
)

var testNow = time.Date(2025, 1, 10, 14, 30, 25, 0, time.UTC)

type fixture struct {
	store *testutil.MemStore
	svc   *service.BookingService
	event model.Event
	user  model.User
}

// newFixture seeds one published event (500 cents a ticket, 10 of 10
// available) and one customer with 200 loyalty points.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewMemStore()
	event := store.AddEvent(model.Event{
		OrganizerID:      99,
		Title:            "Winter Jazz Night",
		Venue:            "City Hall",
		StartsAt:         time.Date(2025, 2, 1, 19, 0, 0, 0, time.UTC),
		EndsAt:           time.Date(2025, 2, 1, 23, 0, 0, 0, time.UTC),
		TicketPriceCents: 500,
		TotalTickets:     10,
		AvailableTickets: 10,
		Status:           model.EventStatusPublished,
	})
	user := store.AddUser(model.User{
		Email:         "dana@example.com",
		FullName:      "Dana Cole",
		Role:          model.RoleCustomer,
		LoyaltyPoints: 200,
		IsActive:      true,
	})
	svc := service.NewBookingService(store, qr.NewPayloadIssuer("/content/qrcodes"), clock.NewFixed(testNow))
	return &fixture{store: store, svc: svc, event: event, user: user}
}

func (f *fixture) addPromo(t *testing.T, code string, percent uint32, active bool, start, end time.Time) model.Promotion {
	t.Helper()
	return f.store.AddPromotion(model.Promotion{
		Code: code, Percent: percent, Active: active, StartsAt: start, EndsAt: end,
	})
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending booking with numbered tickets", func(t *testing.T) {
		f := newFixture(t)
		b, err := f.svc.CreateBooking(ctx, f.event.ID, f.user.ID, 2)
		if err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
		if b.PaymentStatus != model.PaymentStatusPending {
			t.Errorf("status = %s, want PENDING", b.PaymentStatus)
		}
		if b.TotalAmountCents != 1000 || b.FinalAmountCents != 1000 {
			t.Errorf("amounts = %d/%d, want 1000/1000", b.TotalAmountCents, b.FinalAmountCents)
		}
		// Availability is not reserved at creation time.
		if got := f.store.Events[f.event.ID].AvailableTickets; got != 10 {
			t.Errorf("available = %d, want 10", got)
		}
		tickets, _ := f.store.TicketsByBooking(ctx, b.ID)
		if len(tickets) != 2 {
			t.Fatalf("tickets = %d, want 2", len(tickets))
		}
		want := "EVT-20250110-000003-001"
		if tickets[0].TicketNumber != want {
			t.Errorf("ticket number = %s, want %s", tickets[0].TicketNumber, want)
		}
		if tickets[0].QRRef != nil {
			t.Errorf("pending ticket has QR ref %q", *tickets[0].QRRef)
		}
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.svc.CreateBooking(ctx, f.event.ID, f.user.ID, 0); !errors.Is(err, service.ErrInvalidQuantity) {
			t.Errorf("err = %v, want ErrInvalidQuantity", err)
		}
	})

	t.Run("rejects unknown event", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.svc.CreateBooking(ctx, 404, f.user.ID, 1); !errors.Is(err, service.ErrEventNotFound) {
			t.Errorf("err = %v, want ErrEventNotFound", err)
		}
	})

	t.Run("rejects ended event", func(t *testing.T) {
		f := newFixture(t)
		past := f.store.AddEvent(model.Event{
			Title: "Last Year", TicketPriceCents: 500,
			StartsAt: testNow.AddDate(-1, 0, 0), EndsAt: testNow.AddDate(-1, 0, 1),
			TotalTickets: 5, AvailableTickets: 5, Status: model.EventStatusPublished,
		})
		if _, err := f.svc.CreateBooking(ctx, past.ID, f.user.ID, 1); !errors.Is(err, service.ErrEventEnded) {
			t.Errorf("err = %v, want ErrEventEnded", err)
		}
	})

	t.Run("rejects quantity above availability", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.svc.CreateBooking(ctx, f.event.ID, f.user.ID, 11); !errors.Is(err, service.ErrInsufficientInventory) {
			t.Errorf("err = %v, want ErrInsufficientInventory", err)
		}
	})
}

func TestConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("settles promo and points on one invoice", func(t *testing.T) {
		f := newFixture(t)
		f.addPromo(t, "WINTER10", 10, true, testNow.AddDate(0, 0, -1), testNow.AddDate(0, 0, 1))
		b, err := f.svc.CreateBooking(ctx, f.event.ID, f.user.ID, 2)
		if err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}

		r, err := f.svc.ConfirmPayment(ctx, service.ConfirmPaymentInput{
			BookingID: b.ID, UserID: f.user.ID,
			PromoCode: "WINTER10", UsePoints: true, PaymentMethod: "CARD",
		})
		if err != nil {
			t.Fatalf("ConfirmPayment: %v", err)
		}

		// 1000 total, 10% promo = 100 off, 200 points redeemed -> 700.
		if r.Booking.DiscountCents != 100 {
			t.Errorf("discount = %d, want 100", r.Booking.DiscountCents)
		}
		if r.Booking.PointsUsed != 200 {
			t.Errorf("points used = %d, want 200", r.Booking.PointsUsed)
		}
		if r.Booking.FinalAmountCents != 700 || r.Payment.AmountCents != 700 {
			t.Errorf("final = %d payment = %d, want 700", r.Booking.FinalAmountCents, r.Payment.AmountCents)
		}
		// 5% of 700, floored.
		if r.PointsEarned != 35 {
			t.Errorf("earned = %d, want 35", r.PointsEarned)
		}
		if got := f.store.Users[f.user.ID].LoyaltyPoints; got != 35 {
			t.Errorf("balance = %d, want 35", got)
		}
		if got := f.store.Events[f.event.ID].AvailableTickets; got != 8 {
			t.Errorf("available = %d, want 8", got)
		}
		if r.Payment.ReferenceNo != "REF-20250110143025" {
			t.Errorf("reference = %s", r.Payment.ReferenceNo)
		}
		if r.Payment.InvoiceNo != "INV-2025-000003" {
			t.Errorf("invoice = %s", r.Payment.InvoiceNo)
		}
		if r.Booking.PaymentStatus != model.PaymentStatusCompleted {
			t.Errorf("status = %s, want COMPLETED", r.Booking.PaymentStatus)
		}
		for _, tk := range r.Tickets {
			if tk.QRRef == nil || *tk.QRRef == "" {
				t.Errorf("ticket %s has no QR ref", tk.TicketNumber)
			}
		}
	})

	t.Run("ledger reconciles with balance", func(t *testing.T) {
		f := newFixture(t)
		b, _ := f.svc.CreateBooking(ctx, f.event.ID, f.user.ID, 2)
		if _, err := f.svc.ConfirmPayment(ctx, service.ConfirmPaymentInput{
			BookingID: b.ID, UserID: f.user.ID, UsePoints: true, PaymentMethod: "CARD",
		}); err != nil {
			t.Fatalf("ConfirmPayment: %v", err)
		}
		var sum int64
		for _, lt := range f.store.Loyalty {
			sum += lt.Points
		}
		// Started at 200: redeemed 200, earned 5% of 800 = 40.
		if got := f.store.Users[f.user.ID].LoyaltyPoints; got != 200+sum {
			t.Errorf("balance %d != start+ledger %d", got, 200+sum)
		}
		if len(f.store.Loyalty) != 2 {
			t.Fatalf("ledger rows = %d, want 2", len(f.store.Loyalty))
		}
		if f.store.Loyalty[0].Type != model.LoyaltyTypeRedeem || f.store.Loyalty[0].Points != -200 {
			t.Errorf("redeem row = %+v", f.store.Loyalty[0])
		}
		if f.store.Loyalty[1].Type != model.LoyaltyTypeEarn || f.store.Loyalty[1].Points != 40 {
			t.Errorf("earn row = %+v", f.store.Loyalty[1])
		}
	})

	t.Run("invalid promo leaves booking untouched", func(t *testing.T) {
		f := newFixture(t)
		f.addPromo(t, "EXPIRED", 10, true, testNow.AddDate(0, 0, -10), testNow.AddDate(0, 0, -5))
		b, _ := f.svc.CreateBooking(ctx, f.event.ID, f.user.ID, 2)

		for _, code := range []string{"EXPIRED", "NOSUCH", "winter10"} {
			if _, err := f.svc.ConfirmPayment(ctx, service.ConfirmPaymentInput{
				BookingID: b.ID, UserID: f.user.ID, PromoCode: code, PaymentMethod: "CARD",
			}); !errors.Is(err, service.ErrInvalidPromotion) {
				t.Errorf("code %q: err = %v, want ErrInvalidPromotion", code, err)
			}
		}
		got, _ := f.store.GetBooking(ctx, b.ID)
		if got.PaymentStatus != model.PaymentStatusPending {
			t.Errorf("status = %s, want PENDING", got.PaymentStatus)
		}
		if f.store.Events[f.event.ID].AvailableTickets != 10 {
			t.Errorf("availability changed on failed confirm")
		}
		if len(f.store.Payments) != 0 {
			t.Errorf("payment written on failed confirm")
		}
	})

	t.Run("inactive promo rejected", func(t *testing.T) {
		f := newFixture(t)
		f.addPromo(t, "PAUSED", 25, false, testNow.AddDate(0, 0, -1), testNow.AddDate(0, 0, 1))
		b, _ := f.svc.CreateBooking(ctx, f.event.ID, f.user.ID, 1)
		if _, err := f.svc.ConfirmPayment(ctx, service.ConfirmPaymentInput{
			BookingID: b.ID, UserID: f.user.ID, PromoCode: "PAUSED", PaymentMethod: "CARD",
		}); !errors.Is(err, service.ErrInvalidPromotion) {
			t.Errorf("err = %v, want ErrInvalidPromotion", err)
		}
	})

	t.Run("requires payment method", func(t *testing.T) {
		f := newFixture(t)
		b, _ := f.svc.CreateBooking(ctx, f.event.ID, f.user.ID, 1)
		if _, err := f.svc.ConfirmPayment(ctx, service.ConfirmPaymentInput{
			BookingID: b.ID, UserID: f.user.ID,
		}); !errors.Is(err, service.ErrInvalidPaymentMethod) {
			t.Errorf("err = %v, want ErrInvalidPaymentMethod", err)
		}
	})

	t.Run("rejects foreign booking", func(t *testing.T) {
		f := newFixture(t)
		other := f.store.AddUser(model.User{Email: "eve@example.com", FullName: "Eve", Role: model.RoleCustomer})
		b, _ := f.svc.CreateBooking(ctx, f.event.ID, f.user.ID, 1)
		if _, err := f.svc.ConfirmPayment(ctx, service.ConfirmPaymentInput{
			BookingID: b.ID, UserID: other.ID, PaymentMethod: "CARD",
		}); !errors.Is(err, service.ErrForbidden) {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("replay returns stored receipt without side effects", func(t *testing.T) {
		f := newFixture(t)
		b, _ := f.svc.CreateBooking(ctx, f.event.ID, f.user.ID, 2)
		first, err := f.svc.ConfirmPayment(ctx, service.ConfirmPaymentInput{
			BookingID: b.ID, UserID: f.user.ID, UsePoints: true, PaymentMethod: "CARD",
		})
		if err != nil {
			t.Fatalf("first confirm: %v", err)
		}
		// Replay with different inputs; they must be ignored.
		second, err := f.svc.ConfirmPayment(ctx, service.ConfirmPaymentInput{
			BookingID: b.ID, UserID: f.user.ID, PromoCode: "ANY", PaymentMethod: "CASH",
		})
		if err != nil {
			t.Fatalf("replay confirm: %v", err)
		}
		if !second.AlreadyCompleted {
			t.Errorf("AlreadyCompleted = false on replay")
		}
		if second.Payment.ReferenceNo != first.Payment.ReferenceNo {
			t.Errorf("replay produced a new payment")
		}
		if got := f.store.Events[f.event.ID].AvailableTickets; got != 8 {
			t.Errorf("available = %d after replay, want 8", got)
		}
		if len(f.store.Payments) != 1 {
			t.Errorf("payments = %d, want 1", len(f.store.Payments))
		}
		if len(f.store.Loyalty) != 2 {
			t.Errorf("ledger rows = %d after replay, want 2", len(f.store.Loyalty))
		}
	})

	t.Run("qr failure rolls everything back", func(t *testing.T) {
		f := newFixture(t)
		b, _ := f.svc.CreateBooking(ctx, f.event.ID, f.user.ID, 2)
		f.store.FailSetTicketQR = true

		if _, err := f.svc.ConfirmPayment(ctx, service.ConfirmPaymentInput{
			BookingID: b.ID, UserID: f.user.ID, UsePoints: true, PaymentMethod: "CARD",
		}); err == nil {
			t.Fatal("expected error from QR issuance")
		}
		got, _ := f.store.GetBooking(ctx, b.ID)
		if got.PaymentStatus != model.PaymentStatusPending {
			t.Errorf("status = %s, want PENDING", got.PaymentStatus)
		}
		if f.store.Events[f.event.ID].AvailableTickets != 10 {
			t.Errorf("availability not restored")
		}
		if len(f.store.Payments) != 0 {
			t.Errorf("payment survived rollback")
		}
		if got := f.store.Users[f.user.ID].LoyaltyPoints; got != 200 {
			t.Errorf("balance = %d after rollback, want 200", got)
		}
		if len(f.store.Loyalty) != 0 {
			t.Errorf("ledger rows survived rollback")
		}
	})

	t.Run("concurrent confirms cannot oversell", func(t *testing.T) {
		f := newFixture(t)
		small := f.store.AddEvent(model.Event{
			Title: "Small Room", TicketPriceCents: 500,
			StartsAt: f.event.StartsAt, EndsAt: f.event.EndsAt,
			TotalTickets: 5, AvailableTickets: 5, Status: model.EventStatusPublished,
		})
		second := f.store.AddUser(model.User{Email: "finn@example.com", FullName: "Finn", Role: model.RoleCustomer})

		b1, err := f.svc.CreateBooking(ctx, small.ID, f.user.ID, 5)
		if err != nil {
			t.Fatalf("booking 1: %v", err)
		}
		b2, err := f.svc.CreateBooking(ctx, small.ID, second.ID, 5)
		if err != nil {
			t.Fatalf("booking 2: %v", err)
		}

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i, in := range []service.ConfirmPaymentInput{
			{BookingID: b1.ID, UserID: f.user.ID, PaymentMethod: "CARD"},
			{BookingID: b2.ID, UserID: second.ID, PaymentMethod: "CARD"},
		} {
			wg.Add(1)
			go func(i int, in service.ConfirmPaymentInput) {
				defer wg.Done()
				_, errs[i] = f.svc.ConfirmPayment(ctx, in)
			}(i, in)
		}
		wg.Wait()

		var ok, sold int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, service.ErrInsufficientInventory):
				sold++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if ok != 1 || sold != 1 {
			t.Errorf("confirms: %d succeeded, %d sold out; want exactly 1 and 1", ok, sold)
		}
		if got := f.store.Events[small.ID].AvailableTickets; got != 0 {
			t.Errorf("available = %d, want 0", got)
		}
	})

	t.Run("final amount never goes negative", func(t *testing.T) {
		f := newFixture(t)
		// Balance far above the invoice.
		u := f.store.Users[f.user.ID]
		u.LoyaltyPoints = 100000
		f.store.Users[f.user.ID] = u
		f.addPromo(t, "HALF", 50, true, testNow.AddDate(0, 0, -1), testNow.AddDate(0, 0, 1))

		b, _ := f.svc.CreateBooking(ctx, f.event.ID, f.user.ID, 2)
		r, err := f.svc.ConfirmPayment(ctx, service.ConfirmPaymentInput{
			BookingID: b.ID, UserID: f.user.ID, PromoCode: "HALF", UsePoints: true, PaymentMethod: "CARD",
		})
		if err != nil {
			t.Fatalf("ConfirmPayment: %v", err)
		}
		// 1000 - 500 promo - 500 points = 0; redemption caps at the remainder.
		if r.Booking.FinalAmountCents != 0 {
			t.Errorf("final = %d, want 0", r.Booking.FinalAmountCents)
		}
		if r.Booking.PointsUsed != 500 {
			t.Errorf("points used = %d, want 500", r.Booking.PointsUsed)
		}
		if got := f.store.Users[f.user.ID].LoyaltyPoints; got != 100000-500 {
			t.Errorf("balance = %d, want %d", got, 100000-500)
		}
		if r.PointsEarned != 0 {
			t.Errorf("earned = %d on zero invoice, want 0", r.PointsEarned)
		}
	})
}
