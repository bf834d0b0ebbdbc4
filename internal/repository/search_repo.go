package repository

import (
	"context"

	"carepath-portal/internal/domain"
)

// SearchRepository substring search over the searchable tables. Each method
// performs a case-insensitive contains match; ranking is applied by the
// search service, not here.
type SearchRepository interface {
	// SearchUserItems searches the calling user's own checklist tasks.
	SearchUserItems(ctx context.Context, userID, query string, limit int) ([]domain.SearchResult, error)
	SearchDocuments(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
	SearchFAQs(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
	// SearchUsers and SearchSections are admin-only surfaces.
	SearchUsers(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
	SearchSections(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
}
