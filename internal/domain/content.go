package domain

import (
	"database/sql"
	"time"
)

// FAQ faqs table. Unpublished rows are visible in the admin console only.
type FAQ struct {
	FAQID     string         `db:"faq_id"`
	Question  string         `db:"question"`
	Answer    string         `db:"answer"`
	Category  sql.NullString `db:"category"`
	SortOrder int            `db:"sort_order"`
	Published bool           `db:"published"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// Document documents table (policies, handbooks, benefit guides)
type Document struct {
	DocumentID  string         `db:"document_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	FileURL     string         `db:"file_url"`
	Category    sql.NullString `db:"category"`
	Published   bool           `db:"published"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}
