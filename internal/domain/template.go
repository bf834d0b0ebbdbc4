package domain

import (
	"database/sql"
	"time"
)

// RoleTemplate is the admin-authored blueprint checklist for one role.
// Templates are never handed to end users directly; approval clones them
// into a UserChecklist and the two trees are decoupled from then on.
type RoleTemplate struct {
	TemplateID string    `db:"template_id"`
	Role       string    `db:"role"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`

	Sections []TemplateSection
}

// TemplateSection template_sections table
type TemplateSection struct {
	SectionID  string `db:"section_id"`
	TemplateID string `db:"template_id"`
	Title      string `db:"title"`
	SortOrder  int    `db:"sort_order"`

	Items []TemplateItem
}

// TemplateItem template_items table
type TemplateItem struct {
	ItemID      string         `db:"item_id"`
	SectionID   string         `db:"section_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	LinkURL     sql.NullString `db:"link_url"`
	FileURL     sql.NullString `db:"file_url"`
	// DueInDays is a relative offset; the absolute due date is fixed once at
	// clone/sync time and never recomputed afterwards.
	DueInDays sql.NullInt32 `db:"due_in_days"`
	SortOrder int           `db:"sort_order"`
}
