package repository

import (
	"context"
	"database/sql"

	"carepath-portal/internal/domain"

	sq "github.com/Masterminds/squirrel"
)

// PostgresSearchRepository SearchRepository implementation. Queries are
// assembled with squirrel because the searched columns and joins differ per
// entity type.
type PostgresSearchRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewPostgresSearchRepository creates the search repository.
func NewPostgresSearchRepository(db *sql.DB) *PostgresSearchRepository {
	return &PostgresSearchRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var _ SearchRepository = (*PostgresSearchRepository)(nil)

func contains(query string) string {
	return "%" + query + "%"
}

// SearchUserItems matches tasks in the caller's own checklist by title or
// description.
func (r *PostgresSearchRepository) SearchUserItems(ctx context.Context, userID, query string, limit int) ([]domain.SearchResult, error) {
	q := r.sb.
		Select("i.item_id::text", "i.title", "COALESCE(i.description, '')", "s.title").
		From("user_items i").
		Join("user_sections s ON s.section_id = i.section_id").
		Join("user_checklists c ON c.checklist_id = s.checklist_id").
		Where(sq.Eq{"c.user_id": userID}).
		Where(sq.Or{
			sq.ILike{"i.title": contains(query)},
			sq.ILike{"i.description": contains(query)},
		}).
		Limit(uint64(limit))

	rows, err := q.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SearchResult
	for rows.Next() {
		var id, title, description, sectionTitle string
		if err := rows.Scan(&id, &title, &description, &sectionTitle); err != nil {
			return nil, err
		}
		out = append(out, domain.SearchResult{
			Type:        domain.SearchTypeTask,
			ID:          id,
			Title:       title,
			Description: description,
			URL:         "/portal/checklist#" + id,
			Metadata:    map[string]string{"section": sectionTitle},
		})
	}
	return out, rows.Err()
}

// SearchDocuments matches published documents by title or description.
func (r *PostgresSearchRepository) SearchDocuments(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	q := r.sb.
		Select("document_id::text", "title", "COALESCE(description, '')", "file_url").
		From("documents").
		Where(sq.Eq{"published": true}).
		Where(sq.Or{
			sq.ILike{"title": contains(query)},
			sq.ILike{"description": contains(query)},
		}).
		Limit(uint64(limit))

	rows, err := q.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SearchResult
	for rows.Next() {
		var id, title, description, fileURL string
		if err := rows.Scan(&id, &title, &description, &fileURL); err != nil {
			return nil, err
		}
		out = append(out, domain.SearchResult{
			Type:        domain.SearchTypeDocument,
			ID:          id,
			Title:       title,
			Description: description,
			URL:         fileURL,
		})
	}
	return out, rows.Err()
}

// SearchFAQs matches published FAQs by question or answer.
func (r *PostgresSearchRepository) SearchFAQs(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	q := r.sb.
		Select("faq_id::text", "question", "answer").
		From("faqs").
		Where(sq.Eq{"published": true}).
		Where(sq.Or{
			sq.ILike{"question": contains(query)},
			sq.ILike{"answer": contains(query)},
		}).
		Limit(uint64(limit))

	rows, err := q.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SearchResult
	for rows.Next() {
		var id, question, answer string
		if err := rows.Scan(&id, &question, &answer); err != nil {
			return nil, err
		}
		out = append(out, domain.SearchResult{
			Type:        domain.SearchTypeFAQ,
			ID:          id,
			Title:       question,
			Description: answer,
			URL:         "/faq#" + id,
		})
	}
	return out, rows.Err()
}

// SearchUsers matches users by name or email (admin only).
func (r *PostgresSearchRepository) SearchUsers(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	q := r.sb.
		Select("user_id::text", "first_name || ' ' || last_name", "email", "role", "status").
		From("users").
		Where(sq.Or{
			sq.ILike{"first_name": contains(query)},
			sq.ILike{"last_name": contains(query)},
			sq.ILike{"email": contains(query)},
		}).
		Limit(uint64(limit))

	rows, err := q.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SearchResult
	for rows.Next() {
		var id, name, email, role, status string
		if err := rows.Scan(&id, &name, &email, &role, &status); err != nil {
			return nil, err
		}
		out = append(out, domain.SearchResult{
			Type:        domain.SearchTypeUser,
			ID:          id,
			Title:       name,
			Description: email,
			URL:         "/admin/users/" + id,
			Metadata:    map[string]string{"role": role, "status": status},
		})
	}
	return out, rows.Err()
}

// SearchSections matches template sections by title (admin only).
func (r *PostgresSearchRepository) SearchSections(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	q := r.sb.
		Select("s.section_id::text", "s.title", "t.role").
		From("template_sections s").
		Join("role_templates t ON t.template_id = s.template_id").
		Where(sq.ILike{"s.title": contains(query)}).
		Limit(uint64(limit))

	rows, err := q.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SearchResult
	for rows.Next() {
		var id, title, role string
		if err := rows.Scan(&id, &title, &role); err != nil {
			return nil, err
		}
		out = append(out, domain.SearchResult{
			Type:     domain.SearchTypeSection,
			ID:       id,
			Title:    title,
			URL:      "/admin/templates/" + role,
			Metadata: map[string]string{"role": role},
		})
	}
	return out, rows.Err()
}
