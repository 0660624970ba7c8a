// Package testutil provides an in-memory implementation of the booking
// store so service and handler tests run without MySQL. Transactions are
// serialized with a mutex and rolled back by snapshotting all state, which
// matches the row-locked semantics the SQL store provides.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/eventsphere/eventsphere/internal/model"
	"github.com/eventsphere/eventsphere/internal/service"
)

// MemStore keeps all entities in maps keyed by ID. The zero value is
// not usable; use NewMemStore.
type MemStore struct {
	mu sync.Mutex

	Events     map[uint64]model.Event
	Users      map[uint64]model.User
	Bookings   map[uint64]model.Booking
	Tickets    map[uint64]model.Ticket
	Payments   map[uint64]model.Payment
	Promotions map[uint64]model.Promotion
	Loyalty    []model.LoyaltyTransaction

	nextID uint64

	// FailSetTicketQR forces SetTicketQR to fail, for rollback tests.
	FailSetTicketQR bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		Events:     make(map[uint64]model.Event),
		Users:      make(map[uint64]model.User),
		Bookings:   make(map[uint64]model.Booking),
		Tickets:    make(map[uint64]model.Ticket),
		Payments:   make(map[uint64]model.Payment),
		Promotions: make(map[uint64]model.Promotion),
	}
}

// AddEvent, AddUser and AddPromotion seed fixtures, assigning IDs when
// unset.
func (m *MemStore) AddEvent(e model.Event) model.Event {
	if e.ID == 0 {
		e.ID = m.id()
	}
	m.Events[e.ID] = e
	return e
}

func (m *MemStore) AddUser(u model.User) model.User {
	if u.ID == 0 {
		u.ID = m.id()
	}
	m.Users[u.ID] = u
	return u
}

func (m *MemStore) AddPromotion(p model.Promotion) model.Promotion {
	if p.ID == 0 {
		p.ID = m.id()
	}
	m.Promotions[p.ID] = p
	return p
}

func (m *MemStore) id() uint64 {
	m.nextID++
	return m.nextID
}

type memTxKey struct{}

// WithTx serializes transactions with the mutex and snapshots every map
// so an error from fn restores the exact pre-transaction state.
func (m *MemStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, struct{}{})); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	events     map[uint64]model.Event
	users      map[uint64]model.User
	bookings   map[uint64]model.Booking
	tickets    map[uint64]model.Ticket
	payments   map[uint64]model.Payment
	promotions map[uint64]model.Promotion
	loyalty    []model.LoyaltyTransaction
	nextID     uint64
}

func (m *MemStore) snapshot() memSnapshot {
	return memSnapshot{
		events:     copyMap(m.Events),
		users:      copyMap(m.Users),
		bookings:   copyMap(m.Bookings),
		tickets:    copyMap(m.Tickets),
		payments:   copyMap(m.Payments),
		promotions: copyMap(m.Promotions),
		loyalty:    append([]model.LoyaltyTransaction(nil), m.Loyalty...),
		nextID:     m.nextID,
	}
}

func (m *MemStore) restore(s memSnapshot) {
	m.Events = s.events
	m.Users = s.users
	m.Bookings = s.bookings
	m.Tickets = s.tickets
	m.Payments = s.payments
	m.Promotions = s.promotions
	m.Loyalty = s.loyalty
	m.nextID = s.nextID
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *MemStore) GetEvent(_ context.Context, id uint64) (model.Event, error) {
	e, ok := m.Events[id]
	if !ok {
		return model.Event{}, service.ErrEventNotFound
	}
	return e, nil
}

func (m *MemStore) GetEventForUpdate(ctx context.Context, id uint64) (model.Event, error) {
	return m.GetEvent(ctx, id)
}

func (m *MemStore) DecrementAvailableTickets(_ context.Context, eventID uint64, qty uint32) error {
	e, ok := m.Events[eventID]
	if !ok {
		return service.ErrEventNotFound
	}
	if e.AvailableTickets < qty {
		return service.ErrInsufficientInventory
	}
	e.AvailableTickets -= qty
	m.Events[eventID] = e
	return nil
}

func (m *MemStore) CreateBooking(_ context.Context, b *model.Booking) error {
	b.ID = m.id()
	m.Bookings[b.ID] = *b
	return nil
}

func (m *MemStore) GetBooking(_ context.Context, id uint64) (model.Booking, error) {
	b, ok := m.Bookings[id]
	if !ok {
		return model.Booking{}, service.ErrBookingNotFound
	}
	return b, nil
}

func (m *MemStore) GetBookingForUpdate(ctx context.Context, id uint64) (model.Booking, error) {
	return m.GetBooking(ctx, id)
}

func (m *MemStore) FinalizeBooking(_ context.Context, b *model.Booking) error {
	if _, ok := m.Bookings[b.ID]; !ok {
		return service.ErrBookingNotFound
	}
	m.Bookings[b.ID] = *b
	return nil
}

func (m *MemStore) CreateTickets(_ context.Context, tickets []model.Ticket) error {
	for i := range tickets {
		tickets[i].ID = m.id()
		m.Tickets[tickets[i].ID] = tickets[i]
	}
	return nil
}

func (m *MemStore) TicketsByBooking(_ context.Context, bookingID uint64) ([]model.Ticket, error) {
	out := make([]model.Ticket, 0)
	for id := uint64(1); id <= m.nextID; id++ {
		if t, ok := m.Tickets[id]; ok && t.BookingID == bookingID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemStore) SetTicketQR(_ context.Context, ticketID uint64, ref string) error {
	if m.FailSetTicketQR {
		return errors.New("qr storage unavailable")
	}
	t, ok := m.Tickets[ticketID]
	if !ok {
		return errors.New("ticket not found")
	}
	t.QRRef = &ref
	m.Tickets[ticketID] = t
	return nil
}

func (m *MemStore) CreatePayment(_ context.Context, p *model.Payment) error {
	p.ID = m.id()
	m.Payments[p.ID] = *p
	return nil
}

func (m *MemStore) PaymentByBooking(_ context.Context, bookingID uint64) (model.Payment, error) {
	for _, p := range m.Payments {
		if p.BookingID == bookingID {
			return p, nil
		}
	}
	return model.Payment{}, errors.New("payment not found")
}

// GetPromotionByCode matches case-sensitively, like the BINARY column
// comparison in MySQL.
func (m *MemStore) GetPromotionByCode(_ context.Context, code string) (model.Promotion, error) {
	for _, p := range m.Promotions {
		if p.Code == code {
			return p, nil
		}
	}
	return model.Promotion{}, service.ErrInvalidPromotion
}

func (m *MemStore) GetUser(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.Users[id]
	if !ok {
		return model.User{}, service.ErrUserNotFound
	}
	return u, nil
}

func (m *MemStore) GetUserForUpdate(ctx context.Context, id uint64) (model.User, error) {
	return m.GetUser(ctx, id)
}

func (m *MemStore) AdjustLoyaltyPoints(_ context.Context, userID uint64, delta int64) error {
	u, ok := m.Users[userID]
	if !ok {
		return service.ErrUserNotFound
	}
	if u.LoyaltyPoints+delta < 0 {
		return errors.New("loyalty balance would go negative")
	}
	u.LoyaltyPoints += delta
	m.Users[userID] = u
	return nil
}

func (m *MemStore) AppendLoyaltyTransaction(_ context.Context, lt *model.LoyaltyTransaction) error {
	lt.ID = m.id()
	m.Loyalty = append(m.Loyalty, *lt)
	return nil
}

var _ service.Store = (*MemStore)(nil)
