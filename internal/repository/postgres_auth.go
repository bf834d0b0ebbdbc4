package repository

import (
	"context"
	"database/sql"
	"fmt"

	"carepath-portal/internal/domain"

	"github.com/google/uuid"
)

// PostgresAuthRepository AuthRepository implementation.
type PostgresAuthRepository struct {
	db *sql.DB
}

// NewPostgresAuthRepository creates the auth token repository.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{db: db}
}

var _ AuthRepository = (*PostgresAuthRepository)(nil)

// CreateToken inserts a one-shot token.
func (r *PostgresAuthRepository) CreateToken(ctx context.Context, token *domain.AuthToken) (string, error) {
	if token.TokenID == "" {
		token.TokenID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (token_id, user_id, token_hash, purpose, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		token.TokenID, token.UserID, token.TokenHash, token.Purpose, token.ExpiresAt,
	)
	if err != nil {
		return "", err
	}
	return token.TokenID, nil
}

// GetTokenByHash fetches a token by its hash and purpose.
func (r *PostgresAuthRepository) GetTokenByHash(ctx context.Context, tokenHash []byte, purpose string) (*domain.AuthToken, error) {
	var t domain.AuthToken
	err := r.db.QueryRowContext(ctx,
		`SELECT token_id::text, user_id::text, token_hash, purpose, expires_at, used_at, created_at
		 FROM auth_tokens WHERE token_hash = $1 AND purpose = $2`,
		tokenHash, purpose,
	).Scan(&t.TokenID, &t.UserID, &t.TokenHash, &t.Purpose, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ResetPasswordWithToken updates the password and consumes the token in one
// transaction; both writes revert if either fails.
func (r *PostgresAuthRepository) ResetPasswordWithToken(ctx context.Context, tokenID, userID string, passwordHash []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE user_id = $1`,
		userID, passwordHash,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	if err := consumeToken(ctx, tx, tokenID); err != nil {
		return err
	}
	return tx.Commit()
}

// VerifyEmailWithToken marks the email verified and consumes the token in
// one transaction.
func (r *PostgresAuthRepository) VerifyEmailWithToken(ctx context.Context, tokenID, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET email_verified = true, updated_at = now() WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	if err := consumeToken(ctx, tx, tokenID); err != nil {
		return err
	}
	return tx.Commit()
}

// consumeToken marks a token used; a token already consumed by a concurrent
// request makes the whole transaction fail.
func consumeToken(ctx context.Context, tx *sql.Tx, tokenID string) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE auth_tokens SET used_at = now() WHERE token_id = $1 AND used_at IS NULL`,
		tokenID,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("token %s already used", tokenID)
	}
	return nil
}
