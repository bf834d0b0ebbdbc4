package repository

import (
	"context"
	"database/sql"

	"carepath-portal/internal/domain"

	"github.com/google/uuid"
)

// PostgresContentRepository ContentRepository implementation.
type PostgresContentRepository struct {
	db *sql.DB
}

// NewPostgresContentRepository creates the content repository.
func NewPostgresContentRepository(db *sql.DB) *PostgresContentRepository {
	return &PostgresContentRepository{db: db}
}

var _ ContentRepository = (*PostgresContentRepository)(nil)

// ListFAQs lists FAQs ordered for display; publishedOnly hides drafts.
func (r *PostgresContentRepository) ListFAQs(ctx context.Context, publishedOnly bool) ([]*domain.FAQ, error) {
	query := `SELECT faq_id::text, question, answer, category, sort_order, published, created_at, updated_at
	          FROM faqs`
	if publishedOnly {
		query += ` WHERE published = true`
	}
	query += ` ORDER BY sort_order ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var faqs []*domain.FAQ
	for rows.Next() {
		var f domain.FAQ
		if err := rows.Scan(&f.FAQID, &f.Question, &f.Answer, &f.Category,
			&f.SortOrder, &f.Published, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		faqs = append(faqs, &f)
	}
	return faqs, rows.Err()
}

// CreateFAQ inserts an FAQ and returns its ID.
func (r *PostgresContentRepository) CreateFAQ(ctx context.Context, faq *domain.FAQ) (string, error) {
	if faq.FAQID == "" {
		faq.FAQID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO faqs (faq_id, question, answer, category, sort_order, published)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		faq.FAQID, faq.Question, faq.Answer, faq.Category, faq.SortOrder, faq.Published,
	)
	if err != nil {
		return "", err
	}
	return faq.FAQID, nil
}

// UpdateFAQ writes all editable fields.
func (r *PostgresContentRepository) UpdateFAQ(ctx context.Context, faq *domain.FAQ) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE faqs
		 SET question = $2, answer = $3, category = $4, sort_order = $5, published = $6, updated_at = now()
		 WHERE faq_id = $1`,
		faq.FAQID, faq.Question, faq.Answer, faq.Category, faq.SortOrder, faq.Published,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteFAQ removes an FAQ.
func (r *PostgresContentRepository) DeleteFAQ(ctx context.Context, faqID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM faqs WHERE faq_id = $1`, faqID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListDocuments lists documents; publishedOnly hides drafts.
func (r *PostgresContentRepository) ListDocuments(ctx context.Context, publishedOnly bool) ([]*domain.Document, error) {
	query := `SELECT document_id::text, title, description, file_url, category, published, created_at, updated_at
	          FROM documents`
	if publishedOnly {
		query += ` WHERE published = true`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.DocumentID, &d.Title, &d.Description, &d.FileURL,
			&d.Category, &d.Published, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

// CreateDocument inserts a document and returns its ID.
func (r *PostgresContentRepository) CreateDocument(ctx context.Context, doc *domain.Document) (string, error) {
	if doc.DocumentID == "" {
		doc.DocumentID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (document_id, title, description, file_url, category, published)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.DocumentID, doc.Title, doc.Description, doc.FileURL, doc.Category, doc.Published,
	)
	if err != nil {
		return "", err
	}
	return doc.DocumentID, nil
}

// UpdateDocument writes all editable fields.
func (r *PostgresContentRepository) UpdateDocument(ctx context.Context, doc *domain.Document) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents
		 SET title = $2, description = $3, file_url = $4, category = $5, published = $6, updated_at = now()
		 WHERE document_id = $1`,
		doc.DocumentID, doc.Title, doc.Description, doc.FileURL, doc.Category, doc.Published,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteDocument removes a document.
func (r *PostgresContentRepository) DeleteDocument(ctx context.Context, documentID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
