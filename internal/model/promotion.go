package model

import "time"

// Promotion is a time-boxed percentage discount code. Codes match
// case-sensitively and at most one promotion applies per booking.
// The orchestrator only ever reads promotions; admins create and
// edit them.
//
// Fields:
//  ID        – primary key identifier.
//  Code      – unique, case-sensitive promotion code.
//  Percent   – whole-number discount percentage (0..100).
//  Active    – whether the code can currently be applied.
//  StartsAt  – start of the validity window (inclusive).
//  EndsAt    – end of the validity window (inclusive).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Promotion struct {
	ID        uint64    // promotions.id
	Code      string    // promotions.code
	Percent   uint32    // promotions.percent
	Active    bool      // promotions.active
	StartsAt  time.Time // promotions.starts_at
	EndsAt    time.Time // promotions.ends_at
	CreatedAt time.Time // promotions.created_at
	UpdatedAt time.Time // promotions.updated_at
}
