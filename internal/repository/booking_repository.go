package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/eventsphere/eventsphere/internal/model"
)

// BookingRepo serves the read side of bookings for customers,
// organizers and admins: listings with event and ticket details,
// sales aggregates and the check-in flag. All settlement writes live
// in BookingStore.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// TicketView is the ticket shape embedded in booking listings.
type TicketView struct {
	ID           uint64  `json:"id"`
	TicketNumber string  `json:"ticket_number"`
	QRRef        *string `json:"qr_ref,omitempty"`
}

// BookingDetail is a booking row joined with its event and tickets,
// returned by customer listings.
type BookingDetail struct {
	ID               uint64       `json:"id"`
	EventID          uint64       `json:"event_id"`
	EventTitle       string       `json:"event_title"`
	Venue            string       `json:"venue"`
	StartsAt         time.Time    `json:"starts_at"`
	Quantity         uint32       `json:"quantity"`
	TotalAmountCents int64        `json:"total_amount_cents"`
	DiscountCents    int64        `json:"discount_cents"`
	PointsUsed       int64        `json:"points_used"`
	FinalAmountCents int64        `json:"final_amount_cents"`
	PaymentStatus    string       `json:"payment_status"`
	CheckedIn        bool         `json:"checked_in"`
	CreatedAt        time.Time    `json:"created_at"`
	Tickets          []TicketView `json:"tickets"`
}

const bookingDetailQuery = `SELECT b.id, b.event_id, e.title, e.venue, e.starts_at,
	b.quantity, b.total_amount_cents, b.discount_cents, b.points_used,
	b.final_amount_cents, b.payment_status, b.checked_in, b.created_at
	FROM bookings b
	JOIN events e ON e.id = b.event_id`

// ListByUser returns the user's bookings newest first, each with its
// tickets populated in one follow-up query.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		bookingDetailQuery+` WHERE b.user_id = ? ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	details, index, err := collectDetails(rows)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	if err := r.fillTickets(ctx, details, index); err != nil {
		return nil, err
	}
	return details, nil
}

// GetByIDForUser returns one booking with tickets, restricted to its
// owner. Missing rows and foreign rows both read as ErrBookingNotFound
// so the endpoint does not leak other users' booking IDs.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, bookingID, userID uint64) (*BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		bookingDetailQuery+` WHERE b.id = ? AND b.user_id = ?`, bookingID, userID)
	if err != nil {
		return nil, err
	}
	details, index, err := collectDetails(rows)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, ErrBookingNotFound
	}
	if err := r.fillTickets(ctx, details, index); err != nil {
		return nil, err
	}
	return &details[0], nil
}

// OrganizerBooking extends BookingDetail with the customer identity
// for organizer-facing listings.
type OrganizerBooking struct {
	BookingDetail
	UserID    uint64 `json:"user_id"`
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`
}

// ListByEventForOrganizer returns all bookings of an event after
// verifying the caller owns it. ErrEventNotFound when the event is
// missing, ErrForbidden when owned by someone else.
func (r *BookingRepo) ListByEventForOrganizer(ctx context.Context, eventID, organizerID uint64) ([]OrganizerBooking, error) {
	var actualOrganizer uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT organizer_id FROM events WHERE id = ?`, eventID).Scan(&actualOrganizer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	if actualOrganizer != organizerID {
		return nil, ErrForbidden
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.event_id, e.title, e.venue, e.starts_at,
		 b.quantity, b.total_amount_cents, b.discount_cents, b.points_used,
		 b.final_amount_cents, b.payment_status, b.checked_in, b.created_at,
		 u.id, u.email, u.full_name
		 FROM bookings b
		 JOIN events e ON e.id = b.event_id
		 JOIN users u ON u.id = b.user_id
		 WHERE b.event_id = ?
		 ORDER BY b.created_at DESC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]OrganizerBooking, 0)
	for rows.Next() {
		var ob OrganizerBooking
		if err := rows.Scan(&ob.ID, &ob.EventID, &ob.EventTitle, &ob.Venue, &ob.StartsAt,
			&ob.Quantity, &ob.TotalAmountCents, &ob.DiscountCents, &ob.PointsUsed,
			&ob.FinalAmountCents, &ob.PaymentStatus, &ob.CheckedIn, &ob.CreatedAt,
			&ob.UserID, &ob.UserEmail, &ob.UserName); err != nil {
			return nil, err
		}
		ob.Tickets = []TicketView{}
		out = append(out, ob)
	}
	return out, rows.Err()
}

// EventSales aggregates completed bookings for one event.
type EventSales struct {
	EventID       uint64 `json:"event_id"`
	Title         string `json:"title"`
	TicketsSold   int64  `json:"tickets_sold"`
	RevenueCents  int64  `json:"revenue_cents"`
	BookingsCount int64  `json:"bookings_count"`
}

// SalesByOrganizer returns per-event sales totals over the
// organizer's events, including events with no sales yet.
func (r *BookingRepo) SalesByOrganizer(ctx context.Context, organizerID uint64) ([]EventSales, error) {
	return r.salesQuery(ctx,
		`SELECT e.id, e.title,
		 COALESCE(SUM(CASE WHEN b.payment_status = 'COMPLETED' THEN b.quantity END), 0),
		 COALESCE(SUM(CASE WHEN b.payment_status = 'COMPLETED' THEN b.final_amount_cents END), 0),
		 COALESCE(SUM(CASE WHEN b.payment_status = 'COMPLETED' THEN 1 END), 0)
		 FROM events e
		 LEFT JOIN bookings b ON b.event_id = e.id
		 WHERE e.organizer_id = ?
		 GROUP BY e.id, e.title
		 ORDER BY e.starts_at`, organizerID)
}

// SalesReport returns platform-wide per-event sales for completed
// bookings inside [from, to]. Used by the admin report endpoint.
func (r *BookingRepo) SalesReport(ctx context.Context, from, to time.Time) ([]EventSales, error) {
	return r.salesQuery(ctx,
		`SELECT e.id, e.title,
		 COALESCE(SUM(b.quantity), 0), COALESCE(SUM(b.final_amount_cents), 0), COUNT(b.id)
		 FROM events e
		 JOIN bookings b ON b.event_id = e.id
		 WHERE b.payment_status = 'COMPLETED' AND b.created_at BETWEEN ? AND ?
		 GROUP BY e.id, e.title
		 ORDER BY SUM(b.final_amount_cents) DESC`, from.UTC(), to.UTC())
}

func (r *BookingRepo) salesQuery(ctx context.Context, query string, args ...any) ([]EventSales, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]EventSales, 0)
	for rows.Next() {
		var s EventSales
		if err := rows.Scan(&s.EventID, &s.Title, &s.TicketsSold, &s.RevenueCents, &s.BookingsCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetCheckedIn marks a completed booking as checked in after
// verifying the caller organizes the event. Pending bookings cannot
// be checked in and report ErrConflict.
func (r *BookingRepo) SetCheckedIn(ctx context.Context, bookingID, organizerID uint64) error {
	var actualOrganizer uint64
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT e.organizer_id, b.payment_status
		 FROM bookings b JOIN events e ON e.id = b.event_id
		 WHERE b.id = ?`, bookingID).Scan(&actualOrganizer, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBookingNotFound
	}
	if err != nil {
		return err
	}
	if actualOrganizer != organizerID {
		return ErrForbidden
	}
	if status != model.PaymentStatusCompleted {
		return ErrConflict
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE bookings SET checked_in = TRUE WHERE id = ?`, bookingID)
	return err
}

func collectDetails(rows *sql.Rows) ([]BookingDetail, map[uint64]int, error) {
	defer rows.Close()
	details := make([]BookingDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(&d.ID, &d.EventID, &d.EventTitle, &d.Venue, &d.StartsAt,
			&d.Quantity, &d.TotalAmountCents, &d.DiscountCents, &d.PointsUsed,
			&d.FinalAmountCents, &d.PaymentStatus, &d.CheckedIn, &d.CreatedAt); err != nil {
			return nil, nil, err
		}
		d.Tickets = []TicketView{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	return details, index, rows.Err()
}

// fillTickets populates tickets for all listed bookings in one query.
func (r *BookingRepo) fillTickets(ctx context.Context, details []BookingDetail, index map[uint64]int) error {
	ids := make([]any, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	query := `SELECT booking_id, id, ticket_number, qr_ref FROM tickets
		WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)
		ORDER BY booking_id, ticket_number`
	rows, err := r.db.QueryContext(ctx, query, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var bookingID uint64
		var tv TicketView
		var ref sql.NullString
		if err := rows.Scan(&bookingID, &tv.ID, &tv.TicketNumber, &ref); err != nil {
			return err
		}
		if ref.Valid {
			r := ref.String
			tv.QRRef = &r
		}
		idx, ok := index[bookingID]
		if !ok {
			continue
		}
		details[idx].Tickets = append(details[idx].Tickets, tv)
	}
	return rows.Err()
}
