// Package qr issues opaque QR image references for paid tickets. The
// orchestrator treats the reference as an external collaborator's
// output: it stores the string and never inspects it.
package qr

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Issuer produces an image reference for a ticket. Implementations
// must be deterministic for identical inputs so a lost reference can
// be regenerated on demand.
type Issuer interface {
	Generate(ticketNumber string, bookingID uint64, eventTitle, customerName string, eventDate time.Time) (string, error)
}

// PayloadIssuer derives the reference from the canonical ticket
// payload. The payload layout mirrors what a scanner at the venue
// would decode; the reference is a stable path under PathPrefix.
type PayloadIssuer struct {
	PathPrefix string // reference prefix, e.g. "/content/qrcodes"
}

// NewPayloadIssuer returns an issuer writing references under the
// given prefix. An empty prefix defaults to "/content/qrcodes".
func NewPayloadIssuer(prefix string) *PayloadIssuer {
	if prefix == "" {
		prefix = "/content/qrcodes"
	}
	return &PayloadIssuer{PathPrefix: prefix}
}

// Generate builds the ticket payload and returns its reference. The
// same ticket always yields the same reference.
func (p *PayloadIssuer) Generate(ticketNumber string, bookingID uint64, eventTitle, customerName string, eventDate time.Time) (string, error) {
	if ticketNumber == "" {
		return "", errors.New("ticket number must not be empty")
	}
	payload := Payload(ticketNumber, bookingID, eventTitle, customerName, eventDate)
	sum := sha256.Sum256([]byte(payload))
	return fmt.Sprintf("%s/%s-%s.png", p.PathPrefix, ticketNumber, hex.EncodeToString(sum[:4])), nil
}

// Payload renders the text encoded into the ticket QR code.
func Payload(ticketNumber string, bookingID uint64, eventTitle, customerName string, eventDate time.Time) string {
	return fmt.Sprintf("Ticket Code: %s\nBooking ID: %d\nEvent: %s\nDate: %s\nCustomer: %s",
		ticketNumber, bookingID, eventTitle, eventDate.UTC().Format("2006-01-02"), customerName)
}
