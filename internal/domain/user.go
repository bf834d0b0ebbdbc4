package domain

import (
	"database/sql"
	"time"
)

// User statuses. New registrations start PENDING and gain portal access only
// after an admin approves them.
const (
	UserStatusPending  = "PENDING"
	UserStatusApproved = "APPROVED"
	UserStatusRejected = "REJECTED"
)

// RoleAdmin is the only role with access to the admin console. The remaining
// roles are clinical job titles (RN, LPN, CNA, ...) and are free-form: each
// one is expected to have a matching RoleTemplate.
const RoleAdmin = "ADMIN"

// User domain model (users table)
type User struct {
	UserID        string         `db:"user_id"`
	Email         string         `db:"email"`
	PasswordHash  []byte         `db:"password_hash"`
	FirstName     string         `db:"first_name"`
	LastName      string         `db:"last_name"`
	Role          string         `db:"role"`
	Status        string         `db:"status"`
	EmailVerified bool           `db:"email_verified"`
	Phone         sql.NullString `db:"phone"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// FullName joins first and last name for display and export.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Actor is the authenticated principal a request acts as. Services receive it
// explicitly instead of reading ambient session state.
type Actor struct {
	UserID string
	Role   string
	Email  string
}

// IsAdmin reports whether the actor may use admin operations.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
