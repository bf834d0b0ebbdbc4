package repository

import (
	"context"
	"database/sql"

	"carepath-portal/internal/domain"

	"github.com/google/uuid"
)

// PostgresChecklistsRepository ChecklistsRepository implementation.
type PostgresChecklistsRepository struct {
	db *sql.DB
}

// NewPostgresChecklistsRepository creates the checklists repository.
func NewPostgresChecklistsRepository(db *sql.DB) *PostgresChecklistsRepository {
	return &PostgresChecklistsRepository{db: db}
}

var _ ChecklistsRepository = (*PostgresChecklistsRepository)(nil)

// GetChecklistByUserID loads a user's checklist with its full tree.
func (r *PostgresChecklistsRepository) GetChecklistByUserID(ctx context.Context, userID string) (*domain.UserChecklist, error) {
	if userID == "" {
		return nil, sql.ErrNoRows
	}

	var c domain.UserChecklist
	err := r.db.QueryRowContext(ctx,
		`SELECT checklist_id::text, user_id::text, role, created_at, updated_at
		 FROM user_checklists WHERE user_id = $1`,
		userID,
	).Scan(&c.ChecklistID, &c.UserID, &c.Role, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := r.loadTree(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresChecklistsRepository) loadTree(ctx context.Context, c *domain.UserChecklist) error {
	sectionRows, err := r.db.QueryContext(ctx,
		`SELECT section_id::text, checklist_id::text, title, sort_order
		 FROM user_sections WHERE checklist_id = $1 ORDER BY sort_order ASC`,
		c.ChecklistID,
	)
	if err != nil {
		return err
	}
	defer sectionRows.Close()

	c.Sections = nil
	for sectionRows.Next() {
		var s domain.UserSection
		if err := sectionRows.Scan(&s.SectionID, &s.ChecklistID, &s.Title, &s.SortOrder); err != nil {
			return err
		}
		c.Sections = append(c.Sections, s)
	}
	if err := sectionRows.Err(); err != nil {
		return err
	}

	for i := range c.Sections {
		if err := r.loadSectionItems(ctx, &c.Sections[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresChecklistsRepository) loadSectionItems(ctx context.Context, s *domain.UserSection) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id::text, section_id::text, stable_key, title, description, link_url, file_url,
		        status, due_date, completed_at, sort_order, created_at
		 FROM user_items WHERE section_id = $1 ORDER BY sort_order ASC`,
		s.SectionID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.UserItem
		if err := rows.Scan(&it.ItemID, &it.SectionID, &it.StableKey, &it.Title,
			&it.Description, &it.LinkURL, &it.FileURL, &it.Status,
			&it.DueDate, &it.CompletedAt, &it.SortOrder, &it.CreatedAt); err != nil {
			return err
		}
		s.Items = append(s.Items, it)
	}
	return rows.Err()
}

// CreateChecklist inserts the checklist and its whole tree. Used by the
// clone-on-approve path, so the tree insert is transactional.
func (r *PostgresChecklistsRepository) CreateChecklist(ctx context.Context, checklist *domain.UserChecklist) (string, error) {
	if checklist.ChecklistID == "" {
		checklist.ChecklistID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_checklists (checklist_id, user_id, role)
		 VALUES ($1, $2, $3)`,
		checklist.ChecklistID, checklist.UserID, checklist.Role,
	)
	if err != nil {
		return "", err
	}

	for i := range checklist.Sections {
		section := &checklist.Sections[i]
		if section.SectionID == "" {
			section.SectionID = uuid.NewString()
		}
		section.ChecklistID = checklist.ChecklistID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_sections (section_id, checklist_id, title, sort_order)
			 VALUES ($1, $2, $3, $4)`,
			section.SectionID, checklist.ChecklistID, section.Title, section.SortOrder,
		)
		if err != nil {
			return "", err
		}

		for j := range section.Items {
			item := &section.Items[j]
			if item.ItemID == "" {
				item.ItemID = uuid.NewString()
			}
			item.SectionID = section.SectionID
			_, err = tx.ExecContext(ctx,
				`INSERT INTO user_items (item_id, section_id, stable_key, title, description, link_url, file_url, status, due_date, sort_order)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				item.ItemID, section.SectionID, item.StableKey, item.Title,
				item.Description, item.LinkURL, item.FileURL, item.Status,
				item.DueDate, item.SortOrder,
			)
			if err != nil {
				return "", err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return checklist.ChecklistID, nil
}

// CreateSection appends one section to an existing checklist (sync path).
func (r *PostgresChecklistsRepository) CreateSection(ctx context.Context, checklistID string, section *domain.UserSection) (string, error) {
	if section.SectionID == "" {
		section.SectionID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_sections (section_id, checklist_id, title, sort_order)
		 VALUES ($1, $2, $3, $4)`,
		section.SectionID, checklistID, section.Title, section.SortOrder,
	)
	if err != nil {
		return "", err
	}
	return section.SectionID, nil
}

// CreateItem appends one item to an existing section (sync path).
func (r *PostgresChecklistsRepository) CreateItem(ctx context.Context, sectionID string, item *domain.UserItem) (string, error) {
	if item.ItemID == "" {
		item.ItemID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_items (item_id, section_id, stable_key, title, description, link_url, file_url, status, due_date, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ItemID, sectionID, item.StableKey, item.Title,
		item.Description, item.LinkURL, item.FileURL, item.Status,
		item.DueDate, item.SortOrder,
	)
	if err != nil {
		return "", err
	}
	return item.ItemID, nil
}

// UpdateItemContent overwrites content fields only. Status, completed_at,
// title and stable_key are deliberately absent from the statement.
func (r *PostgresChecklistsRepository) UpdateItemContent(ctx context.Context, itemID string, update ItemContentUpdate) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE user_items
		 SET description = $2, link_url = $3, file_url = $4, sort_order = $5
		 WHERE item_id = $1`,
		itemID, update.Description, update.LinkURL, update.FileURL, update.SortOrder,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateItemStatus writes status and completed_at in one statement so the
// COMPLETE <-> completed_at invariant cannot be broken between writes.
func (r *PostgresChecklistsRepository) UpdateItemStatus(ctx context.Context, itemID, status string, completedAt sql.NullTime) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE user_items SET status = $2, completed_at = $3 WHERE item_id = $1`,
		itemID, status, completedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// TouchChecklist bumps updated_at to now.
func (r *PostgresChecklistsRepository) TouchChecklist(ctx context.Context, checklistID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_checklists SET updated_at = now() WHERE checklist_id = $1`,
		checklistID,
	)
	return err
}

// ListChecklistsWithOwners loads every checklist owned by a user with the
// given status, trees included. Insight calculators consume this.
func (r *PostgresChecklistsRepository) ListChecklistsWithOwners(ctx context.Context, userStatus string) ([]OwnedChecklist, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.checklist_id::text, c.user_id::text, c.role, c.created_at, c.updated_at,
		        u.user_id::text, u.email, u.first_name, u.last_name, u.role, u.status, u.email_verified, u.created_at, u.updated_at
		 FROM user_checklists c
		 JOIN users u ON u.user_id = c.user_id
		 WHERE u.status = $1
		 ORDER BY c.created_at ASC`,
		userStatus,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OwnedChecklist
	for rows.Next() {
		var c domain.UserChecklist
		var u domain.User
		if err := rows.Scan(
			&c.ChecklistID, &c.UserID, &c.Role, &c.CreatedAt, &c.UpdatedAt,
			&u.UserID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.Status,
			&u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, OwnedChecklist{Owner: &u, Checklist: &c})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := r.loadTree(ctx, out[i].Checklist); err != nil {
			return nil, err
		}
	}
	return out, nil
}
