package utils

import (
	"testing"
	"time"
)

func TestTicketNumber(t *testing.T) {
	date := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	got := TicketNumber("EVT", date, 15, 1)
	if got != "EVT-20250110-000015-001" {
		t.Errorf("TicketNumber = %s", got)
	}
	// Padding must hold for large IDs and sequences.
	if got := TicketNumber("EVT", date, 1234567, 12); got != "EVT-20250110-1234567-012" {
		t.Errorf("TicketNumber = %s", got)
	}
}

func TestReferenceNo(t *testing.T) {
	now := time.Date(2025, 1, 10, 14, 30, 25, 0, time.UTC)
	if got := ReferenceNo(now); got != "REF-20250110143025" {
		t.Errorf("ReferenceNo = %s", got)
	}
}

func TestInvoiceNumber(t *testing.T) {
	if got := InvoiceNumber(2025, 15); got != "INV-2025-000015" {
		t.Errorf("InvoiceNumber = %s", got)
	}
}
