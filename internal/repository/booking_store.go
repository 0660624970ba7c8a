package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/eventsphere/eventsphere/internal/model"
	"github.com/eventsphere/eventsphere/internal/service"
)

// BookingStore is the MySQL implementation of service.Store. It is
// the only write path for bookings, tickets, payments, inventory and
// loyalty balances. Transactions are carried in the context: WithTx
// begins one, stashes it, and every store method picks it up through
// conn(), so the orchestrator's closure runs entirely inside a single
// transaction with row locks held until commit or rollback.
type BookingStore struct {
	db *sql.DB
}

// NewBookingStore returns a BookingStore bound to the given database.
func NewBookingStore(db *sql.DB) *BookingStore { return &BookingStore{db: db} }

type txKey struct{}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction. Nested calls join the
// transaction already stored in ctx. An error from fn rolls
// everything back; otherwise the transaction commits.
func (s *BookingStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// conn returns the ambient transaction when present, the pool otherwise.
func (s *BookingStore) conn(ctx context.Context) dbtx {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}

const eventColumns = `id, organizer_id, title, description, category, venue,
	starts_at, ends_at, ticket_price_cents, total_tickets, available_tickets,
	status, created_at, updated_at`

func scanEvent(row *sql.Row) (model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Category, &e.Venue,
		&e.StartsAt, &e.EndsAt, &e.TicketPriceCents, &e.TotalTickets, &e.AvailableTickets,
		&e.Status, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, service.ErrEventNotFound
	}
	return e, err
}

// GetEvent loads an event without locking it.
func (s *BookingStore) GetEvent(ctx context.Context, id uint64) (model.Event, error) {
	return scanEvent(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
}

// GetEventForUpdate loads an event and locks its row for the rest of
// the transaction. This is the serialization point for concurrent
// confirmations of the same event.
func (s *BookingStore) GetEventForUpdate(ctx context.Context, id uint64) (model.Event, error) {
	return scanEvent(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ? FOR UPDATE`, id))
}

// DecrementAvailableTickets applies the atomic conditional decrement.
// The WHERE guard makes overselling impossible even without the row
// lock; with zero rows affected the inventory was insufficient.
func (s *BookingStore) DecrementAvailableTickets(ctx context.Context, eventID uint64, qty uint32) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE events SET available_tickets = available_tickets - ?
		 WHERE id = ? AND available_tickets >= ?`, qty, eventID, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return service.ErrInsufficientInventory
	}
	return nil
}

const bookingColumns = `id, event_id, user_id, quantity, total_amount_cents,
	discount_cents, points_used, final_amount_cents, promotion_id,
	payment_status, payment_method, checked_in, created_at, updated_at`

func scanBooking(row *sql.Row) (model.Booking, error) {
	var b model.Booking
	var promoID sql.NullInt64
	var method sql.NullString
	err := row.Scan(&b.ID, &b.EventID, &b.UserID, &b.Quantity, &b.TotalAmountCents,
		&b.DiscountCents, &b.PointsUsed, &b.FinalAmountCents, &promoID,
		&b.PaymentStatus, &method, &b.CheckedIn, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, service.ErrBookingNotFound
	}
	if err != nil {
		return model.Booking{}, err
	}
	if promoID.Valid {
		id := uint64(promoID.Int64)
		b.PromotionID = &id
	}
	if method.Valid {
		m := method.String
		b.PaymentMethod = &m
	}
	return b, nil
}

// CreateBooking inserts a booking and populates its generated ID.
func (s *BookingStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO bookings (event_id, user_id, quantity, total_amount_cents,
		 final_amount_cents, payment_status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.EventID, b.UserID, b.Quantity, b.TotalAmountCents,
		b.FinalAmountCents, b.PaymentStatus, b.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetBooking loads a booking without locking it.
func (s *BookingStore) GetBooking(ctx context.Context, id uint64) (model.Booking, error) {
	return scanBooking(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
}

// GetBookingForUpdate loads a booking and locks its row, serializing
// concurrent confirmations of the same booking.
func (s *BookingStore) GetBookingForUpdate(ctx context.Context, id uint64) (model.Booking, error) {
	return scanBooking(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`, id))
}

// FinalizeBooking writes the settlement fields of a confirmed booking.
func (s *BookingStore) FinalizeBooking(ctx context.Context, b *model.Booking) error {
	var promoID any
	if b.PromotionID != nil {
		promoID = *b.PromotionID
	}
	var method any
	if b.PaymentMethod != nil {
		method = *b.PaymentMethod
	}
	_, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE bookings SET discount_cents = ?, points_used = ?, final_amount_cents = ?,
		 promotion_id = ?, payment_status = ?, payment_method = ? WHERE id = ?`,
		b.DiscountCents, b.PointsUsed, b.FinalAmountCents,
		promoID, b.PaymentStatus, method, b.ID)
	return err
}

// CreateTickets inserts all ticket placeholders of a booking in one
// statement. Passing an empty slice has no effect.
func (s *BookingStore) CreateTickets(ctx context.Context, tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	query := `INSERT INTO tickets (booking_id, ticket_number, issued_at) VALUES `
	args := make([]any, 0, len(tickets)*3)
	for i, t := range tickets {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, t.BookingID, t.TicketNumber, t.IssuedAt.UTC())
	}
	_, err := s.conn(ctx).ExecContext(ctx, query, args...)
	return err
}

// TicketsByBooking returns the booking's tickets ordered by ticket number.
func (s *BookingStore) TicketsByBooking(ctx context.Context, bookingID uint64) ([]model.Ticket, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT id, booking_id, ticket_number, qr_ref, issued_at
		 FROM tickets WHERE booking_id = ? ORDER BY ticket_number`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tickets []model.Ticket
	for rows.Next() {
		var t model.Ticket
		var ref sql.NullString
		if err := rows.Scan(&t.ID, &t.BookingID, &t.TicketNumber, &ref, &t.IssuedAt); err != nil {
			return nil, err
		}
		if ref.Valid {
			r := ref.String
			t.QRRef = &r
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// SetTicketQR stores the issued QR reference on a ticket.
func (s *BookingStore) SetTicketQR(ctx context.Context, ticketID uint64, ref string) error {
	_, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE tickets SET qr_ref = ? WHERE id = ?`, ref, ticketID)
	return err
}

// CreatePayment inserts the one-to-one payment row for a booking and
// populates its generated ID.
func (s *BookingStore) CreatePayment(ctx context.Context, p *model.Payment) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO payments (booking_id, amount_cents, status, method, reference_no, invoice_no, paid_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.BookingID, p.AmountCents, p.Status, p.Method, p.ReferenceNo, p.InvoiceNo, p.PaidAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// PaymentByBooking returns the payment of a completed booking.
func (s *BookingStore) PaymentByBooking(ctx context.Context, bookingID uint64) (model.Payment, error) {
	var p model.Payment
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, booking_id, amount_cents, status, method, reference_no, invoice_no, paid_at
		 FROM payments WHERE booking_id = ?`, bookingID).
		Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Status, &p.Method, &p.ReferenceNo, &p.InvoiceNo, &p.PaidAt)
	return p, err
}

// GetPromotionByCode matches a promotion code exactly. The BINARY
// collation override keeps the comparison case-sensitive.
func (s *BookingStore) GetPromotionByCode(ctx context.Context, code string) (model.Promotion, error) {
	var p model.Promotion
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, code, percent, active, starts_at, ends_at, created_at, updated_at
		 FROM promotions WHERE BINARY code = ?`, code).
		Scan(&p.ID, &p.Code, &p.Percent, &p.Active, &p.StartsAt, &p.EndsAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Promotion{}, service.ErrInvalidPromotion
	}
	return p, err
}

const userColumns = `id, email, full_name, password_hash, role, loyalty_points,
	is_active, created_at, updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role,
		&u.LoyaltyPoints, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, service.ErrUserNotFound
	}
	return u, err
}

// GetUser loads a user without locking the row.
func (s *BookingStore) GetUser(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserForUpdate loads a user and locks the row so concurrent
// bookings by the same user cannot race on the point balance.
func (s *BookingStore) GetUserForUpdate(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? FOR UPDATE`, id))
}

// AdjustLoyaltyPoints applies a signed delta to the balance. The
// guard on negative deltas keeps the balance non-negative even if a
// caller miscomputes the redeemable amount.
func (s *BookingStore) AdjustLoyaltyPoints(ctx context.Context, userID uint64, delta int64) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE users SET loyalty_points = loyalty_points + ?
		 WHERE id = ? AND loyalty_points + ? >= 0`, delta, userID, delta)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errInsufficientPoints
	}
	return nil
}

// errInsufficientPoints signals that an adjustment would drive a
// balance negative. The ledger caps redemptions at the current
// balance, so reaching this means a caller bug, not user input.
var errInsufficientPoints = errors.New("loyalty balance cannot go negative")

// AppendLoyaltyTransaction writes one audit row.
func (s *BookingStore) AppendLoyaltyTransaction(ctx context.Context, lt *model.LoyaltyTransaction) error {
	if lt.CreatedAt.IsZero() {
		lt.CreatedAt = time.Now().UTC()
	}
	res, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO loyalty_transactions (user_id, booking_id, points, type, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		lt.UserID, lt.BookingID, lt.Points, lt.Type, lt.Description, lt.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	lt.ID = uint64(id)
	return nil
}
