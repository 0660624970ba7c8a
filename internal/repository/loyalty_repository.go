package repository

import (
	"context"
	"database/sql"

	"github.com/eventsphere/eventsphere/internal/model"
)

// LoyaltyRepo reads the append-only loyalty audit log. Writes happen
// exclusively through BookingStore inside booking transactions.
type LoyaltyRepo struct {
	db *sql.DB
}

// NewLoyaltyRepo returns a new LoyaltyRepo bound to the given database.
func NewLoyaltyRepo(db *sql.DB) *LoyaltyRepo { return &LoyaltyRepo{db: db} }

// ListByUser returns the user's loyalty transactions newest first.
func (r *LoyaltyRepo) ListByUser(ctx context.Context, userID uint64) ([]model.LoyaltyTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, booking_id, points, type, description, created_at
		 FROM loyalty_transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.LoyaltyTransaction, 0)
	for rows.Next() {
		var lt model.LoyaltyTransaction
		if err := rows.Scan(&lt.ID, &lt.UserID, &lt.BookingID, &lt.Points,
			&lt.Type, &lt.Description, &lt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, lt)
	}
	return out, rows.Err()
}

// SumByUser returns the sum of signed deltas in the user's audit log.
// It must always equal users.loyalty_points; the admin report uses it
// to verify reconciliation.
func (r *LoyaltyRepo) SumByUser(ctx context.Context, userID uint64) (int64, error) {
	var sum int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(points), 0) FROM loyalty_transactions WHERE user_id = ?`,
		userID).Scan(&sum)
	return sum, err
}
