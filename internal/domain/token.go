package domain

import (
	"database/sql"
	"time"
)

// Auth token purposes.
const (
	TokenPurposePasswordReset = "PASSWORD_RESET"
	TokenPurposeEmailVerify   = "EMAIL_VERIFY"
)

// AuthToken auth_tokens table. Only the SHA-256 of the token is stored; the
// raw value exists in the email link alone. UsedAt is set in the same
// transaction as the user-row write it authorizes.
type AuthToken struct {
	TokenID   string       `db:"token_id"`
	UserID    string       `db:"user_id"`
	TokenHash []byte       `db:"token_hash"`
	Purpose   string       `db:"purpose"`
	ExpiresAt time.Time    `db:"expires_at"`
	UsedAt    sql.NullTime `db:"used_at"`
	CreatedAt time.Time    `db:"created_at"`
}

// Usable reports whether the token can still authorize its purpose at now.
func (t *AuthToken) Usable(now time.Time) bool {
	return !t.UsedAt.Valid && now.Before(t.ExpiresAt)
}
