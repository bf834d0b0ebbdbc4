package repository

import (
	"context"
	"database/sql"

	"carepath-portal/internal/domain"
)

// ItemContentUpdate is the only mutation sync may apply to an existing
// matched item: content and ordering, never status/completedAt/title.
type ItemContentUpdate struct {
	Description sql.NullString
	LinkURL     sql.NullString
	FileURL     sql.NullString
	SortOrder   int
}

// OwnedChecklist pairs a checklist with its owning user for the insight
// aggregations.
type OwnedChecklist struct {
	Owner     *domain.User
	Checklist *domain.UserChecklist
}

// ChecklistsRepository user-checklist persistence interface.
type ChecklistsRepository interface {
	// GetChecklistByUserID returns sql.ErrNoRows when the user has no
	// checklist yet (pending users, or users created before their template).
	GetChecklistByUserID(ctx context.Context, userID string) (*domain.UserChecklist, error)

	// CreateChecklist inserts the checklist and its full section/item tree.
	CreateChecklist(ctx context.Context, checklist *domain.UserChecklist) (string, error)
	CreateSection(ctx context.Context, checklistID string, section *domain.UserSection) (string, error)
	CreateItem(ctx context.Context, sectionID string, item *domain.UserItem) (string, error)

	UpdateItemContent(ctx context.Context, itemID string, update ItemContentUpdate) error
	// UpdateItemStatus writes status and completed_at together; completed_at
	// must be valid iff status is COMPLETE.
	UpdateItemStatus(ctx context.Context, itemID, status string, completedAt sql.NullTime) error
	// TouchChecklist bumps updated_at; the activity heuristics read it.
	TouchChecklist(ctx context.Context, checklistID string) error

	// ListChecklistsWithOwners loads every checklist whose owner has the
	// given status, with full trees.
	ListChecklistsWithOwners(ctx context.Context, userStatus string) ([]OwnedChecklist, error)
}
