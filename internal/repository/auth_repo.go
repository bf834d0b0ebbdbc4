package repository

import (
	"context"

	"carepath-portal/internal/domain"
)

// AuthRepository persistence for one-shot auth tokens (password reset, email
// verification). The two *WithToken operations are the only multi-statement
// writes in the system and run in a single transaction: the user-row update
// and the token consumption commit or roll back together.
type AuthRepository interface {
	CreateToken(ctx context.Context, token *domain.AuthToken) (string, error)
	// GetTokenByHash returns sql.ErrNoRows for unknown hashes regardless of
	// purpose or expiry; callers check Usable() separately.
	GetTokenByHash(ctx context.Context, tokenHash []byte, purpose string) (*domain.AuthToken, error)

	ResetPasswordWithToken(ctx context.Context, tokenID, userID string, passwordHash []byte) error
	VerifyEmailWithToken(ctx context.Context, tokenID, userID string) error
}
