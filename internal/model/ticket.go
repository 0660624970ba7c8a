package model

import "time"

// Ticket is one admission unit under a booking. TicketNumber is
// unique and derived from the booking ({EVT}-{yyyymmdd}-{booking:6}-{seq:3}).
// QRRef stays null until the booking's payment completes; a ticket
// never carries a QR reference before that.
//
// Fields:
//  ID           – primary key identifier.
//  BookingID    – owning booking.
//  TicketNumber – unique printable ticket code.
//  QRRef        – opaque QR image reference issued on payment (nullable).
//  IssuedAt     – when the placeholder was created.
type Ticket struct {
	ID           uint64    // tickets.id
	BookingID    uint64    // tickets.booking_id
	TicketNumber string    // tickets.ticket_number
	QRRef        *string   // tickets.qr_ref (nullable)
	IssuedAt     time.Time // tickets.issued_at
}
