package model

import "time"

// Payment is created exactly once per successfully completed
// booking (one-to-one with bookings). AmountCents equals the
// booking's final amount after discount and redeemed points.
//
// Fields:
//  ID          – primary key identifier.
//  BookingID   – owning booking (unique).
//  AmountCents – charged amount in cents.
//  Status      – COMPLETED (written only on success).
//  Method      – gateway/method chosen by the customer.
//  ReferenceNo – generated payment reference (REF-yyyymmddhhmmss).
//  InvoiceNo   – generated invoice number (INV-yyyy-bookingid).
//  PaidAt      – payment timestamp.
type Payment struct {
	ID          uint64    // payments.id
	BookingID   uint64    // payments.booking_id
	AmountCents int64     // payments.amount_cents
	Status      string    // payments.status
	Method      string    // payments.method
	ReferenceNo string    // payments.reference_no
	InvoiceNo   string    // payments.invoice_no
	PaidAt      time.Time // payments.paid_at
}
