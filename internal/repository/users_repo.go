package repository

import (
	"context"

	"carepath-portal/internal/domain"
)

// UsersRepository user persistence interface.
// Strongly typed domain models, no map[string]any payloads.
type UsersRepository interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context, filters UserFilters) ([]*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) (string, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	UpdateUserStatus(ctx context.Context, userID, status string) error
	DeleteUser(ctx context.Context, userID string) error
}

// UserFilters narrows ListUsers.
type UserFilters struct {
	Role   string
	Status string
	Search string // substring match on email, first_name, last_name
}
