package model

import "time"

// Role names stored in users.role and embedded in JWT claims.
const (
	RoleCustomer  = "CUSTOMER"
	RoleOrganizer = "ORGANIZER"
	RoleAdmin     = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table. The loyalty point balance lives directly on the
// user row; every mutation of it must be mirrored by an appended
// LoyaltyTransaction so the audit log reconciles with the balance.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Email         – unique email address.
//  FullName      – display name, printed on tickets.
//  PasswordHash  – bcrypt hashed password.
//  Role          – CUSTOMER, ORGANIZER or ADMIN.
//  LoyaltyPoints – current point balance (points are 1:1 with cents, never negative).
//  IsActive      – whether the account is active.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
	ID            uint64    // users.id
	Email         string    // users.email
	FullName      string    // users.full_name
	PasswordHash  string    // users.password_hash
	Role          string    // users.role
	LoyaltyPoints int64     // users.loyalty_points
	IsActive      bool      // users.is_active
	CreatedAt     time.Time // users.created_at
	UpdatedAt     time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation. The plain token is not stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
