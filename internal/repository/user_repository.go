package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/eventsphere/eventsphere/internal/model"
	"github.com/eventsphere/eventsphere/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user and returns its ID. New accounts start with a
// zero loyalty balance.
func (r *UserRepo) Create(ctx context.Context, email, fullName, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, full_name, password_hash, role) VALUES (?,?,?,?)",
		email, fullName, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,full_name,password_hash,role,loyalty_points,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role,
		&u.LoyaltyPoints, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,full_name,password_hash,role,loyalty_points,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role,
		&u.LoyaltyPoints, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// UserSummary is the admin-facing user row. LedgerPoints is the sum of
// the user's loyalty audit log; a mismatch with LoyaltyPoints means the
// ledger and the balance have drifted apart.
type UserSummary struct {
	ID            uint64    `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	Role          string    `json:"role"`
	LoyaltyPoints int64     `json:"loyalty_points"`
	LedgerPoints  int64     `json:"ledger_points"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListAll returns every user together with the reconciliation sum of
// their loyalty ledger, ordered by registration time.
func (r *UserRepo) ListAll(ctx context.Context) ([]UserSummary, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT u.id, u.email, u.full_name, u.role, u.loyalty_points,
		 COALESCE(SUM(lt.points), 0), u.is_active, u.created_at
		 FROM users u
		 LEFT JOIN loyalty_transactions lt ON lt.user_id = u.id
		 GROUP BY u.id, u.email, u.full_name, u.role, u.loyalty_points, u.is_active, u.created_at
		 ORDER BY u.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]UserSummary, 0)
	for rows.Next() {
		var s UserSummary
		if err := rows.Scan(&s.ID, &s.Email, &s.FullName, &s.Role,
			&s.LoyaltyPoints, &s.LedgerPoints, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
