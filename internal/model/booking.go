package model

import "time"

// Payment statuses stored on bookings and payments.
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
)

// Booking records a customer's reservation for N tickets to one
// event. It progresses PENDING -> COMPLETED exactly once; all
// monetary fields are integer cents and must satisfy
// FinalAmountCents = TotalAmountCents - DiscountCents - PointsUsed >= 0.
//
// Fields:
//  ID               – primary key identifier.
//  EventID          – event being booked.
//  UserID           – customer who created the booking.
//  Quantity         – number of tickets (> 0).
//  TotalAmountCents – ticket price × quantity at booking time.
//  DiscountCents    – promotion discount applied on confirmation.
//  PointsUsed       – loyalty points redeemed on confirmation (1 point = 1 cent).
//  FinalAmountCents – amount actually charged.
//  PromotionID      – promotion applied, if any.
//  PaymentStatus    – PENDING or COMPLETED.
//  PaymentMethod    – gateway/method recorded on confirmation (nullable).
//  CheckedIn        – set by the organizer at the venue.
//  CreatedAt        – booking timestamp.
//  UpdatedAt        – last update timestamp.
type Booking struct {
	ID               uint64    // bookings.id
	EventID          uint64    // bookings.event_id
	UserID           uint64    // bookings.user_id
	Quantity         uint32    // bookings.quantity
	TotalAmountCents int64     // bookings.total_amount_cents
	DiscountCents    int64     // bookings.discount_cents
	PointsUsed       int64     // bookings.points_used
	FinalAmountCents int64     // bookings.final_amount_cents
	PromotionID      *uint64   // bookings.promotion_id (nullable)
	PaymentStatus    string    // bookings.payment_status
	PaymentMethod    *string   // bookings.payment_method (nullable)
	CheckedIn        bool      // bookings.checked_in
	CreatedAt        time.Time // bookings.created_at
	UpdatedAt        time.Time // bookings.updated_at
}
