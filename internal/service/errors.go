// Package service contains the booking/payment orchestration, the
// promotion resolver and the loyalty ledger. Sentinel errors defined
// here form the failure taxonomy handlers translate into HTTP
// responses; nothing in this package writes outside the transaction
// it was handed.
package service

import "errors"

// ErrEventNotFound is returned when the referenced event does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound is returned when the referenced booking does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrUserNotFound is returned when the referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrEventEnded is returned when a booking targets an event whose end
// date has passed.
var ErrEventEnded = errors.New("event has already ended")

// ErrInsufficientInventory is returned when the requested quantity
// exceeds the event's available tickets, either at booking time or at
// the serialized re-check during confirmation.
var ErrInsufficientInventory = errors.New("not enough tickets available")

// ErrInvalidPromotion is returned when a promotion code does not
// exist, is inactive, or is outside its validity window.
var ErrInvalidPromotion = errors.New("invalid or expired promotion code")

// ErrInvalidQuantity is returned when the requested ticket quantity is
// not a positive integer.
var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// ErrInvalidPaymentMethod is returned when payment confirmation is
// requested without naming a payment method.
var ErrInvalidPaymentMethod = errors.New("payment method is required")

// ErrForbidden is returned when a caller operates on a booking owned
// by a different user.
var ErrForbidden = errors.New("forbidden")
