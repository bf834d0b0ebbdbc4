package repository

import (
	"context"

	"carepath-portal/internal/domain"
)

// TemplatesRepository role-template persistence interface. Template trees are
// always loaded fully, sections and items ordered by sort_order ascending —
// the sync engine depends on that ordering.
type TemplatesRepository interface {
	GetTemplateByRole(ctx context.Context, role string) (*domain.RoleTemplate, error)
	ListTemplates(ctx context.Context) ([]*domain.RoleTemplate, error)
	UpsertTemplate(ctx context.Context, role string) (string, error)

	CreateSection(ctx context.Context, templateID string, section *domain.TemplateSection) (string, error)
	UpdateSection(ctx context.Context, section *domain.TemplateSection) error
	// DeleteSection removes the section and its items from the template only;
	// cloned user rows are untouched (template and instance are decoupled).
	DeleteSection(ctx context.Context, sectionID string) error

	CreateItem(ctx context.Context, sectionID string, item *domain.TemplateItem) (string, error)
	UpdateItem(ctx context.Context, item *domain.TemplateItem) error
	DeleteItem(ctx context.Context, itemID string) error
}
