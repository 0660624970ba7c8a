package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/eventsphere/eventsphere/internal/model"
)

// PromotionRepo provides admin CRUD for promotion codes. The booking
// orchestrator reads promotions through BookingStore; this repo never
// participates in a booking transaction.
type PromotionRepo struct {
	db *sql.DB
}

// NewPromotionRepo returns a new PromotionRepo bound to the given database.
func NewPromotionRepo(db *sql.DB) *PromotionRepo { return &PromotionRepo{db: db} }

// Create inserts a promotion and populates the generated ID. A
// duplicate code reports ErrCodeExists.
func (r *PromotionRepo) Create(ctx context.Context, p *model.Promotion) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO promotions (code, percent, active, starts_at, ends_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.Code, p.Percent, p.Active, p.StartsAt.UTC(), p.EndsAt.UTC())
	if err != nil {
		// MySQL duplicate key error 1062 on the unique code index.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrCodeExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Update rewrites the editable fields of a promotion.
func (r *PromotionRepo) Update(ctx context.Context, p *model.Promotion) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE promotions SET percent = ?, active = ?, starts_at = ?, ends_at = ?
		 WHERE id = ?`,
		p.Percent, p.Active, p.StartsAt.UTC(), p.EndsAt.UTC(), p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing row from an update that changed nothing.
		var exists int
		if err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM promotions WHERE id = ?`, p.ID).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
			return ErrPromotionNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

// List returns all promotions ordered by start of validity window,
// newest first.
func (r *PromotionRepo) List(ctx context.Context) ([]model.Promotion, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, code, percent, active, starts_at, ends_at, created_at, updated_at
		 FROM promotions ORDER BY starts_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Promotion, 0)
	for rows.Next() {
		var p model.Promotion
		if err := rows.Scan(&p.ID, &p.Code, &p.Percent, &p.Active,
			&p.StartsAt, &p.EndsAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
