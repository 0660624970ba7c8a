package service

import (
	"context"
	"time"

	"github.com/eventsphere/eventsphere/internal/model"
)

// PromotionResolver validates promotion codes against the
// active-flag and validity-window rules. At most one promotion
// applies per booking; codes are matched case-sensitively.
type PromotionResolver struct {
	store Store
}

// NewPromotionResolver returns a resolver reading from the given store.
func NewPromotionResolver(store Store) *PromotionResolver {
	return &PromotionResolver{store: store}
}

// Resolve returns the promotion for code when it is active and now
// falls inside [StartsAt, EndsAt]. Any miss – unknown code, inactive
// flag, window not yet open or already closed – is ErrInvalidPromotion.
func (r *PromotionResolver) Resolve(ctx context.Context, code string, now time.Time) (model.Promotion, error) {
	if code == "" {
		return model.Promotion{}, ErrInvalidPromotion
	}
	promo, err := r.store.GetPromotionByCode(ctx, code)
	if err != nil {
		return model.Promotion{}, ErrInvalidPromotion
	}
	if !promo.Active || now.Before(promo.StartsAt) || now.After(promo.EndsAt) {
		return model.Promotion{}, ErrInvalidPromotion
	}
	return promo, nil
}

// Discount computes the cent discount the promotion grants on the
// given total. Integer division floors, matching the invoice math.
func Discount(totalCents int64, percent uint32) int64 {
	return totalCents * int64(percent) / 100
}
