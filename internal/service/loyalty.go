package service

import (
	"context"
	"fmt"

	"github.com/eventsphere/eventsphere/internal/model"
)

// LoyaltyLedger mutates a user's point balance and appends the
// matching audit record. Both methods expect to run inside an
// enclosing store transaction (a context produced by Store.WithTx);
// the balance update and the audit row must commit or roll back
// together with the booking that caused them.
type LoyaltyLedger struct {
	store Store
}

// NewLoyaltyLedger returns a ledger writing through the given store.
func NewLoyaltyLedger(store Store) *LoyaltyLedger {
	return &LoyaltyLedger{store: store}
}

// Redeem deducts up to amountCents points from the user's balance
// (points are 1:1 with cents) and records a REDEEM transaction. It
// returns the number of points actually used, which is
// min(balance, amountCents) and never drives the balance negative.
// A zero redemption writes nothing.
func (l *LoyaltyLedger) Redeem(ctx context.Context, userID, bookingID uint64, amountCents int64) (int64, error) {
	if amountCents <= 0 {
		return 0, nil
	}
	user, err := l.store.GetUserForUpdate(ctx, userID)
	if err != nil {
		return 0, err
	}
	used := user.LoyaltyPoints
	if used > amountCents {
		used = amountCents
	}
	if used <= 0 {
		return 0, nil
	}
	if err := l.store.AdjustLoyaltyPoints(ctx, userID, -used); err != nil {
		return 0, err
	}
	lt := &model.LoyaltyTransaction{
		UserID:      userID,
		BookingID:   bookingID,
		Points:      -used,
		Type:        model.LoyaltyTypeRedeem,
		Description: fmt.Sprintf("Redeemed %d points for booking %d", used, bookingID),
	}
	if err := l.store.AppendLoyaltyTransaction(ctx, lt); err != nil {
		return 0, err
	}
	return used, nil
}

// Earn credits points to the user's balance and records an EARN
// transaction. A non-positive credit writes nothing.
func (l *LoyaltyLedger) Earn(ctx context.Context, userID, bookingID uint64, points int64) error {
	if points <= 0 {
		return nil
	}
	if err := l.store.AdjustLoyaltyPoints(ctx, userID, points); err != nil {
		return err
	}
	return l.store.AppendLoyaltyTransaction(ctx, &model.LoyaltyTransaction{
		UserID:      userID,
		BookingID:   bookingID,
		Points:      points,
		Type:        model.LoyaltyTypeEarn,
		Description: fmt.Sprintf("Earned %d points from booking %d", points, bookingID),
	})
}
