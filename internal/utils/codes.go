package utils

import (
	"fmt"
	"time"
)

// TicketNumber formats the unique printable code for one ticket in a
// booking, e.g. EVT-20250110-000015-001 for ticket 1 of booking 15
// created on 2025-01-10. The booking id is zero-padded to six digits
// and the sequence to three.
func TicketNumber(prefix string, date time.Time, bookingID uint64, seq int) string {
	return fmt.Sprintf("%s-%s-%06d-%03d", prefix, date.UTC().Format("20060102"), bookingID, seq)
}

// ReferenceNo formats a payment reference from the payment instant,
// e.g. REF-20250110143025.
func ReferenceNo(now time.Time) string {
	return "REF-" + now.UTC().Format("20060102150405")
}

// InvoiceNumber formats the yearly invoice number for a booking,
// e.g. INV-2025-000015.
func InvoiceNumber(year int, bookingID uint64) string {
	return fmt.Sprintf("INV-%d-%06d", year, bookingID)
}
