package qr

import (
	"strings"
	"testing"
	"time"
)

var eventDate = time.Date(2025, 2, 1, 19, 0, 0, 0, time.UTC)

func TestGenerateDeterministic(t *testing.T) {
	issuer := NewPayloadIssuer("/content/qrcodes")

	a, err := issuer.Generate("EVT-20250110-000015-001", 15, "Winter Jazz Night", "Dana Cole", eventDate)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := issuer.Generate("EVT-20250110-000015-001", 15, "Winter Jazz Night", "Dana Cole", eventDate)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a != b {
		t.Errorf("same ticket produced different references: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "/content/qrcodes/EVT-20250110-000015-001-") || !strings.HasSuffix(a, ".png") {
		t.Errorf("reference = %s", a)
	}

	other, err := issuer.Generate("EVT-20250110-000015-002", 15, "Winter Jazz Night", "Dana Cole", eventDate)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if other == a {
		t.Errorf("distinct tickets share a reference")
	}
}

func TestGenerateRejectsEmptyTicketNumber(t *testing.T) {
	issuer := NewPayloadIssuer("")
	if _, err := issuer.Generate("", 15, "Winter Jazz Night", "Dana Cole", eventDate); err == nil {
		t.Error("expected error for empty ticket number")
	}
}

func TestPayload(t *testing.T) {
	got := Payload("EVT-20250110-000015-001", 15, "Winter Jazz Night", "Dana Cole", eventDate)
	want := "Ticket Code: EVT-20250110-000015-001\nBooking ID: 15\nEvent: Winter Jazz Night\nDate: 2025-02-01\nCustomer: Dana Cole"
	if got != want {
		t.Errorf("Payload = %q, want %q", got, want)
	}
}
