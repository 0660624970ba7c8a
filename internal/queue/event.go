// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingCompletedEvent is published after a booking's payment is confirmed.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database. All monetary
// amounts are integer cents.
type BookingCompletedEvent struct {
	BookingID        uint64   `json:"booking_id"`
	UserID           uint64   `json:"user_id"`
	EventID          uint64   `json:"event_id"`
	EventTitle       string   `json:"event_title"`
	Quantity         uint32   `json:"quantity"`
	TotalAmountCents int64    `json:"total_amount_cents"`
	DiscountCents    int64    `json:"discount_cents"`
	PointsUsed       int64    `json:"points_used"`
	FinalAmountCents int64    `json:"final_amount_cents"`
	PointsEarned     int64    `json:"points_earned"`
	InvoiceNo        string   `json:"invoice_no"`
	ReferenceNo      string   `json:"reference_no"`
	TicketNumbers    []string `json:"tickets"`
	CompletedAt      string   `json:"completed_at"`
}
