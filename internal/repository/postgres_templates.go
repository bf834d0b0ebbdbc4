package repository

import (
	"context"
	"database/sql"

	"carepath-portal/internal/domain"

	"github.com/google/uuid"
)

// PostgresTemplatesRepository TemplatesRepository implementation.
type PostgresTemplatesRepository struct {
	db *sql.DB
}

// NewPostgresTemplatesRepository creates the templates repository.
func NewPostgresTemplatesRepository(db *sql.DB) *PostgresTemplatesRepository {
	return &PostgresTemplatesRepository{db: db}
}

var _ TemplatesRepository = (*PostgresTemplatesRepository)(nil)

// GetTemplateByRole loads a role template with its full section/item tree.
func (r *PostgresTemplatesRepository) GetTemplateByRole(ctx context.Context, role string) (*domain.RoleTemplate, error) {
	if role == "" {
		return nil, sql.ErrNoRows
	}

	var t domain.RoleTemplate
	err := r.db.QueryRowContext(ctx,
		`SELECT template_id::text, role, created_at, updated_at
		 FROM role_templates WHERE role = $1`,
		role,
	).Scan(&t.TemplateID, &t.Role, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := r.loadTree(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTemplates loads all templates with their trees, ordered by role.
func (r *PostgresTemplatesRepository) ListTemplates(ctx context.Context) ([]*domain.RoleTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT template_id::text, role, created_at, updated_at
		 FROM role_templates ORDER BY role ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*domain.RoleTemplate
	for rows.Next() {
		var t domain.RoleTemplate
		if err := rows.Scan(&t.TemplateID, &t.Role, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range templates {
		if err := r.loadTree(ctx, t); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

// loadTree fills Sections/Items ordered by sort_order ascending.
func (r *PostgresTemplatesRepository) loadTree(ctx context.Context, t *domain.RoleTemplate) error {
	sectionRows, err := r.db.QueryContext(ctx,
		`SELECT section_id::text, template_id::text, title, sort_order
		 FROM template_sections WHERE template_id = $1 ORDER BY sort_order ASC`,
		t.TemplateID,
	)
	if err != nil {
		return err
	}
	defer sectionRows.Close()

	t.Sections = nil
	for sectionRows.Next() {
		var s domain.TemplateSection
		if err := sectionRows.Scan(&s.SectionID, &s.TemplateID, &s.Title, &s.SortOrder); err != nil {
			return err
		}
		t.Sections = append(t.Sections, s)
	}
	if err := sectionRows.Err(); err != nil {
		return err
	}

	for i := range t.Sections {
		itemRows, err := r.db.QueryContext(ctx,
			`SELECT item_id::text, section_id::text, title, description, link_url, file_url, due_in_days, sort_order
			 FROM template_items WHERE section_id = $1 ORDER BY sort_order ASC`,
			t.Sections[i].SectionID,
		)
		if err != nil {
			return err
		}
		for itemRows.Next() {
			var it domain.TemplateItem
			if err := itemRows.Scan(&it.ItemID, &it.SectionID, &it.Title,
				&it.Description, &it.LinkURL, &it.FileURL, &it.DueInDays, &it.SortOrder); err != nil {
				itemRows.Close()
				return err
			}
			t.Sections[i].Items = append(t.Sections[i].Items, it)
		}
		if err := itemRows.Err(); err != nil {
			itemRows.Close()
			return err
		}
		itemRows.Close()
	}
	return nil
}

// UpsertTemplate ensures a template row exists for the role.
func (r *PostgresTemplatesRepository) UpsertTemplate(ctx context.Context, role string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO role_templates (template_id, role)
		 VALUES ($1, $2)
		 ON CONFLICT (role) DO UPDATE SET updated_at = now()
		 RETURNING template_id::text`,
		uuid.NewString(), role,
	).Scan(&id)
	return id, err
}

// CreateSection appends a section to the template.
func (r *PostgresTemplatesRepository) CreateSection(ctx context.Context, templateID string, section *domain.TemplateSection) (string, error) {
	if section.SectionID == "" {
		section.SectionID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO template_sections (section_id, template_id, title, sort_order)
		 VALUES ($1, $2, $3, $4)`,
		section.SectionID, templateID, section.Title, section.SortOrder,
	)
	if err != nil {
		return "", err
	}
	return section.SectionID, nil
}

// UpdateSection writes title and ordering.
func (r *PostgresTemplatesRepository) UpdateSection(ctx context.Context, section *domain.TemplateSection) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE template_sections SET title = $2, sort_order = $3 WHERE section_id = $1`,
		section.SectionID, section.Title, section.SortOrder,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteSection removes a template section and its items. No user rows are
// touched: cloned checklists are decoupled from the template.
func (r *PostgresTemplatesRepository) DeleteSection(ctx context.Context, sectionID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM template_sections WHERE section_id = $1`, sectionID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateItem appends an item to a section.
func (r *PostgresTemplatesRepository) CreateItem(ctx context.Context, sectionID string, item *domain.TemplateItem) (string, error) {
	if item.ItemID == "" {
		item.ItemID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO template_items (item_id, section_id, title, description, link_url, file_url, due_in_days, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ItemID, sectionID, item.Title, item.Description, item.LinkURL,
		item.FileURL, item.DueInDays, item.SortOrder,
	)
	if err != nil {
		return "", err
	}
	return item.ItemID, nil
}

// UpdateItem writes every editable field of a template item.
func (r *PostgresTemplatesRepository) UpdateItem(ctx context.Context, item *domain.TemplateItem) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE template_items
		 SET title = $2, description = $3, link_url = $4, file_url = $5, due_in_days = $6, sort_order = $7
		 WHERE item_id = $1`,
		item.ItemID, item.Title, item.Description, item.LinkURL, item.FileURL,
		item.DueInDays, item.SortOrder,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteItem removes a template item; cloned user items are untouched.
func (r *PostgresTemplatesRepository) DeleteItem(ctx context.Context, itemID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM template_items WHERE item_id = $1`, itemID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
