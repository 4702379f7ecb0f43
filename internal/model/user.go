package model

import "time"

// User represents an application user record as stored in the
// `users` table.  Handlers define separate response types with JSON
// tags; these structs are used by the repository layer.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique email address.
//  DisplayName  – name shown in notifications and summaries.
//  PasswordHash – bcrypt hashed password.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	DisplayName  string    // users.display_name
	PasswordHash string    // users.password_hash
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
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
