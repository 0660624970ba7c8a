package service

import (
	"context"

	"github.com/eventsphere/eventsphere/internal/model"
)

// Store is the persistence boundary of the orchestrator. WithTx runs
// fn inside one database transaction: every store call made with the
// context fn receives joins that transaction, and an error from fn
// rolls the whole transaction back. The ...ForUpdate variants must
// lock the selected row for the remainder of the transaction so
// concurrent confirmations targeting the same event or user
// serialize.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetEvent(ctx context.Context, id uint64) (model.Event, error)
	GetEventForUpdate(ctx context.Context, id uint64) (model.Event, error)
	// DecrementAvailableTickets atomically executes
	// available_tickets -= qty guarded by available_tickets >= qty,
	// and reports ErrInsufficientInventory when the guard fails.
	DecrementAvailableTickets(ctx context.Context, eventID uint64, qty uint32) error

	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id uint64) (model.Booking, error)
	GetBookingForUpdate(ctx context.Context, id uint64) (model.Booking, error)
	FinalizeBooking(ctx context.Context, b *model.Booking) error

	CreateTickets(ctx context.Context, tickets []model.Ticket) error
	TicketsByBooking(ctx context.Context, bookingID uint64) ([]model.Ticket, error)
	SetTicketQR(ctx context.Context, ticketID uint64, ref string) error

	CreatePayment(ctx context.Context, p *model.Payment) error
	PaymentByBooking(ctx context.Context, bookingID uint64) (model.Payment, error)

	GetPromotionByCode(ctx context.Context, code string) (model.Promotion, error)

	GetUser(ctx context.Context, id uint64) (model.User, error)
	GetUserForUpdate(ctx context.Context, id uint64) (model.User, error)
	// AdjustLoyaltyPoints applies a signed delta to the user's balance.
	// Implementations must never let the balance go negative.
	AdjustLoyaltyPoints(ctx context.Context, userID uint64, delta int64) error
	AppendLoyaltyTransaction(ctx context.Context, lt *model.LoyaltyTransaction) error
}
