package repository

import (
	"context"
	"database/sql"
	"fmt"

	"carepath-portal/internal/domain"

	"github.com/google/uuid"
)

// PostgresUsersRepository UsersRepository implementation on database/sql.
type PostgresUsersRepository struct {
	db *sql.DB
}

// NewPostgresUsersRepository creates the users repository.
func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

const userColumns = `
	user_id::text,
	email,
	password_hash,
	first_name,
	last_name,
	role,
	status,
	email_verified,
	phone,
	created_at,
	updated_at
`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.UserID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.Status,
		&u.EmailVerified,
		&u.Phone,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser fetches one user by ID.
func (r *PostgresUsersRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, sql.ErrNoRows
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, userID))
}

// GetUserByEmail fetches one user by email (emails are unique, stored lowercased).
func (r *PostgresUsersRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, sql.ErrNoRows
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// ListUsers lists users matching the filters, newest first.
func (r *PostgresUsersRepository) ListUsers(ctx context.Context, filters UserFilters) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	args := []any{}
	idx := 1

	if filters.Role != "" {
		query += fmt.Sprintf(" AND role = $%d", idx)
		args = append(args, filters.Role)
		idx++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, filters.Status)
		idx++
	}
	if filters.Search != "" {
		query += fmt.Sprintf(" AND (email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)", idx, idx, idx)
		args = append(args, "%"+filters.Search+"%")
		idx++
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateUser inserts a user and returns the generated ID.
func (r *PostgresUsersRepository) CreateUser(ctx context.Context, user *domain.User) (string, error) {
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_id, email, password_hash, first_name, last_name, role, status, email_verified, phone)
		 VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $9)`,
		user.UserID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Role, user.Status, user.EmailVerified, user.Phone,
	)
	if err != nil {
		return "", err
	}
	return user.UserID, nil
}

// UpdateUser writes the mutable profile fields.
func (r *PostgresUsersRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET first_name = $2, last_name = $3, phone = $4, role = $5, updated_at = now()
		 WHERE user_id = $1`,
		user.UserID, user.FirstName, user.LastName, user.Phone, user.Role,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateUserStatus moves a user through the approval lifecycle.
func (r *PostgresUsersRepository) UpdateUserStatus(ctx context.Context, userID, status string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = $2, updated_at = now() WHERE user_id = $1`,
		userID, status,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteUser removes the user; the checklist and tokens cascade in the schema.
func (r *PostgresUsersRepository) DeleteUser(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
