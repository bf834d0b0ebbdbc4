package domain

import (
	"database/sql"
	"time"
)

// UserItem statuses.
const (
	ItemStatusNotStarted = "NOT_STARTED"
	ItemStatusInProgress = "IN_PROGRESS"
	ItemStatusComplete   = "COMPLETE"
)

// ValidItemStatus reports whether s is one of the three item statuses.
func ValidItemStatus(s string) bool {
	return s == ItemStatusNotStarted || s == ItemStatusInProgress || s == ItemStatusComplete
}

// UserChecklist is a user's personal onboarding checklist, cloned from the
// RoleTemplate matching their role. Exactly one per user. UpdatedAt moves on
// every item status change and is what the activity heuristics read.
type UserChecklist struct {
	ChecklistID string    `db:"checklist_id"`
	UserID      string    `db:"user_id"`
	Role        string    `db:"role"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	Sections []UserSection
}

// UserSection user_sections table
type UserSection struct {
	SectionID   string `db:"section_id"`
	ChecklistID string `db:"checklist_id"`
	Title       string `db:"title"`
	SortOrder   int    `db:"sort_order"`

	Items []UserItem
}

// UserItem user_items table
// StableKey is derived from (section title, item title) at creation and is
// the identity sync matches on; CompletedAt is non-null iff status is
// COMPLETE, the two are always written together.
type UserItem struct {
	ItemID      string         `db:"item_id"`
	SectionID   string         `db:"section_id"`
	StableKey   string         `db:"stable_key"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	LinkURL     sql.NullString `db:"link_url"`
	FileURL     sql.NullString `db:"file_url"`
	Status      string         `db:"status"`
	DueDate     sql.NullTime   `db:"due_date"`
	CompletedAt sql.NullTime   `db:"completed_at"`
	SortOrder   int            `db:"sort_order"`
	CreatedAt   time.Time      `db:"created_at"`
}

// Items flattens the section tree in section/item order.
func (c *UserChecklist) Items() []UserItem {
	var out []UserItem
	for _, s := range c.Sections {
		out = append(out, s.Items...)
	}
	return out
}
