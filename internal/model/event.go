package model

import "time"

// Event statuses stored in events.status.
const (
	EventStatusPublished = "PUBLISHED"
	EventStatusCancelled = "CANCELLED"
)

// Event represents a sellable event created by an organizer. The
// AvailableTickets counter is the only piece of shared mutable
// inventory in the system: it is decremented exclusively by a
// finalized booking confirmation and must stay within
// [0, TotalTickets]. Capacity edits by the organizer are the only
// other writer.
//
// Fields:
//  ID               – primary key identifier.
//  OrganizerID      – user who created and owns the event.
//  Title            – event title shown in the catalogue.
//  Description      – free-text description.
//  Category         – catalogue category used for filtering.
//  Venue            – venue name.
//  StartsAt         – when the event begins.
//  EndsAt           – when the event ends (bookings rejected afterwards).
//  TicketPriceCents – price per ticket in cents.
//  TotalTickets     – total sellable capacity.
//  AvailableTickets – remaining sellable tickets.
//  Status           – PUBLISHED or CANCELLED.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Event struct {
	ID               uint64    // events.id
	OrganizerID      uint64    // events.organizer_id
	Title            string    // events.title
	Description      string    // events.description
	Category         string    // events.category
	Venue            string    // events.venue
	StartsAt         time.Time // events.starts_at
	EndsAt           time.Time // events.ends_at
	TicketPriceCents int64     // events.ticket_price_cents
	TotalTickets     uint32    // events.total_tickets
	AvailableTickets uint32    // events.available_tickets
	Status           string    // events.status
	CreatedAt        time.Time // events.created_at
	UpdatedAt        time.Time // events.updated_at
}
