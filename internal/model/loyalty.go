package model

import "time"

// Loyalty transaction types.
const (
	LoyaltyTypeEarn   = "EARN"
	LoyaltyTypeRedeem = "REDEEM"
)

// LoyaltyTransaction is one row of the append-only loyalty audit
// log. Points is a signed delta: negative for REDEEM, positive for
// EARN. For every user the sum of deltas must equal the current
// users.loyalty_points balance.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user whose balance was adjusted.
//  BookingID   – booking that caused the adjustment.
//  Points      – signed point delta.
//  Type        – EARN or REDEEM.
//  Description – human-readable audit text.
//  CreatedAt   – transaction timestamp.
type LoyaltyTransaction struct {
	ID          uint64    // loyalty_transactions.id
	UserID      uint64    // loyalty_transactions.user_id
	BookingID   uint64    // loyalty_transactions.booking_id
	Points      int64     // loyalty_transactions.points
	Type        string    // loyalty_transactions.type
	Description string    // loyalty_transactions.description
	CreatedAt   time.Time // loyalty_transactions.created_at
}
