package repository

import (
	"context"

	"carepath-portal/internal/domain"
)

// ContentRepository FAQ and document persistence interface.
type ContentRepository interface {
	ListFAQs(ctx context.Context, publishedOnly bool) ([]*domain.FAQ, error)
	CreateFAQ(ctx context.Context, faq *domain.FAQ) (string, error)
	UpdateFAQ(ctx context.Context, faq *domain.FAQ) error
	DeleteFAQ(ctx context.Context, faqID string) error

	ListDocuments(ctx context.Context, publishedOnly bool) ([]*domain.Document, error)
	CreateDocument(ctx context.Context, doc *domain.Document) (string, error)
	UpdateDocument(ctx context.Context, doc *domain.Document) error
	DeleteDocument(ctx context.Context, documentID string) error
}
