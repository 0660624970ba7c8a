package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/eventsphere/eventsphere/internal/model"
)

// EventRepo provides catalogue reads and organizer CRUD for events.
// Inventory mutation is not done here; only the BookingStore
// decrements available_tickets, and only inside a booking
// confirmation transaction. Capacity edits go through Update, which
// keeps available_tickets consistent with the number of sold tickets.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying sql.DB. It allows callers to begin
// transactions spanning multiple repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

// Create inserts a new event and populates the generated ID. A new
// event starts with available_tickets equal to total_tickets.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (organizer_id, title, description, category, venue,
		 starts_at, ends_at, ticket_price_cents, total_tickets, available_tickets, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OrganizerID, e.Title, e.Description, e.Category, e.Venue,
		e.StartsAt.UTC(), e.EndsAt.UTC(), e.TicketPriceCents,
		e.TotalTickets, e.TotalTickets, model.EventStatusPublished)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	e.AvailableTickets = e.TotalTickets
	e.Status = model.EventStatusPublished
	return nil
}

// GetByID returns a single event or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	var e model.Event
	err := row.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Category, &e.Venue,
		&e.StartsAt, &e.EndsAt, &e.TicketPriceCents, &e.TotalTickets, &e.AvailableTickets,
		&e.Status, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	return e, err
}

// GetByIDAndOrganizer returns the event when it exists and belongs to
// the organizer; ErrEventNotFound when missing, ErrForbidden when
// owned by someone else.
func (r *EventRepo) GetByIDAndOrganizer(ctx context.Context, id, organizerID uint64) (model.Event, error) {
	e, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	if e.OrganizerID != organizerID {
		return model.Event{}, ErrForbidden
	}
	return e, nil
}

// ListUpcoming returns events that have not ended yet, ordered by
// start time. category filters exactly when non-empty; search matches
// title, description or venue case-insensitively when non-empty.
func (r *EventRepo) ListUpcoming(ctx context.Context, now time.Time, category, search string) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE ends_at >= ? AND status = ?`
	args := []any{now.UTC(), model.EventStatusPublished}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if search != "" {
		query += ` AND (title LIKE ? OR description LIKE ? OR venue LIKE ?)`
		like := "%" + strings.TrimSpace(search) + "%"
		args = append(args, like, like, like)
	}
	query += ` ORDER BY starts_at`
	return r.list(ctx, query, args...)
}

// ListByOrganizer returns all events owned by the organizer, newest first.
func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events WHERE organizer_id = ? ORDER BY created_at DESC`,
		organizerID)
}

func (r *EventRepo) list(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Category, &e.Venue,
			&e.StartsAt, &e.EndsAt, &e.TicketPriceCents, &e.TotalTickets, &e.AvailableTickets,
			&e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Update rewrites the editable fields of an event owned by the
// organizer. Capacity edits shift available_tickets by the same
// delta as total_tickets, floored at zero, so sold tickets are never
// resold. Runs in its own transaction with the row locked.
func (r *EventRepo) Update(ctx context.Context, organizerID uint64, e *model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var curOrganizer uint64
	var curTotal, curAvailable uint32
	err = tx.QueryRowContext(ctx,
		`SELECT organizer_id, total_tickets, available_tickets FROM events WHERE id = ? FOR UPDATE`,
		e.ID).Scan(&curOrganizer, &curTotal, &curAvailable)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	if curOrganizer != organizerID {
		return ErrForbidden
	}

	sold := curTotal - curAvailable
	if e.TotalTickets < sold {
		return ErrConflict
	}
	available := e.TotalTickets - sold

	_, err = tx.ExecContext(ctx,
		`UPDATE events SET title = ?, description = ?, category = ?, venue = ?,
		 starts_at = ?, ends_at = ?, ticket_price_cents = ?, total_tickets = ?,
		 available_tickets = ?, status = ? WHERE id = ?`,
		e.Title, e.Description, e.Category, e.Venue,
		e.StartsAt.UTC(), e.EndsAt.UTC(), e.TicketPriceCents, e.TotalTickets,
		available, e.Status, e.ID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	e.AvailableTickets = available
	return nil
}

// Delete removes an event owned by the organizer. Events with any
// bookings cannot be deleted and report ErrConflict.
func (r *EventRepo) Delete(ctx context.Context, id, organizerID uint64) error {
	if _, err := r.GetByIDAndOrganizer(ctx, id, organizerID); err != nil {
		return err
	}
	var bookings int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE event_id = ?`, id).Scan(&bookings); err != nil {
		return err
	}
	if bookings > 0 {
		return ErrConflict
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	return err
}
