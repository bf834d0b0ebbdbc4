package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carepath-portal/internal/domain"
	"carepath-portal/internal/insights"
	"carepath-portal/internal/repository"

	"go.uber.org/zap"
)

// ChecklistService owns the user-checklist lifecycle: clone-on-approve,
// owner status updates, and the template sync engine.
type ChecklistService interface {
	// GetMyChecklist returns the actor's own checklist with progress.
	GetMyChecklist(ctx context.Context, actor domain.Actor) (*ChecklistResponse, error)
	// UpdateItemStatus changes one item's status on the actor's checklist.
	// completed_at is set iff the new status is COMPLETE.
	UpdateItemStatus(ctx context.Context, actor domain.Actor, req UpdateItemStatusRequest) (*ChecklistResponse, error)
	// EnsureChecklist lazily clones the user's role template into a personal
	// checklist. Idempotent: an existing checklist is returned as-is.
	EnsureChecklist(ctx context.Context, user *domain.User) (*domain.UserChecklist, error)
	// SyncTemplateToUsers reconciles a role's template into every existing
	// checklist of that role. Admin only.
	SyncTemplateToUsers(ctx context.Context, actor domain.Actor, req SyncTemplateRequest) (*SyncResult, error)
}

// checklistService implementation
type checklistService struct {
	templatesRepo  repository.TemplatesRepository
	checklistsRepo repository.ChecklistsRepository
	usersRepo      repository.UsersRepository
	logger         *zap.Logger
	now            func() time.Time
}

// NewChecklistService creates a ChecklistService instance.
func NewChecklistService(
	templatesRepo repository.TemplatesRepository,
	checklistsRepo repository.ChecklistsRepository,
	usersRepo repository.UsersRepository,
	logger *zap.Logger,
) ChecklistService {
	return &checklistService{
		templatesRepo:  templatesRepo,
		checklistsRepo: checklistsRepo,
		usersRepo:      usersRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// ============================================
// Request/Response DTOs
// ============================================

// UpdateItemStatusRequest status change for one item on the actor's checklist.
type UpdateItemStatusRequest struct {
	ItemID string
	Status string // NOT_STARTED | IN_PROGRESS | COMPLETE
}

// SyncTemplateRequest admin sync parameters.
type SyncTemplateRequest struct {
	Role string
	// UpdateContent also refreshes description/link/file/order on items that
	// already exist. Status, completedAt and title are never touched.
	UpdateContent bool
}

// SyncResult aggregate counts for one sync run.
type SyncResult struct {
	UsersUpdated int `json:"usersUpdated"`
	ItemsAdded   int `json:"itemsAdded"`
	ItemsUpdated int `json:"itemsUpdated"`
	// UsersFailed counts users whose per-user unit of work failed and was
	// skipped. Re-running the sync converges: stable-key matching makes the
	// operation idempotent.
	UsersFailed int `json:"usersFailed"`
}

// ChecklistResponse a checklist plus its computed progress.
type ChecklistResponse struct {
	Checklist *ChecklistDTO     `json:"checklist"`
	Progress  insights.Progress `json:"progress"`
}

// ChecklistDTO wire shape of a checklist tree.
type ChecklistDTO struct {
	ChecklistID string       `json:"checklistId"`
	Role        string       `json:"role"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Sections    []SectionDTO `json:"sections"`
}

// SectionDTO wire shape of a checklist section.
type SectionDTO struct {
	SectionID string    `json:"sectionId"`
	Title     string    `json:"title"`
	SortOrder int       `json:"sortOrder"`
	Items     []ItemDTO `json:"items"`
}

// ItemDTO wire shape of a checklist item.
type ItemDTO struct {
	ItemID      string     `json:"itemId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	LinkURL     string     `json:"linkUrl,omitempty"`
	FileURL     string     `json:"fileUrl,omitempty"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	CompletedAt *time.Time `json:"completedAt"`
	SortOrder   int        `json:"sortOrder"`
}

func toChecklistDTO(c *domain.UserChecklist) *ChecklistDTO {
	dto := &ChecklistDTO{
		ChecklistID: c.ChecklistID,
		Role:        c.Role,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		Sections:    []SectionDTO{},
	}
	for _, s := range c.Sections {
		sd := SectionDTO{
			SectionID: s.SectionID,
			Title:     s.Title,
			SortOrder: s.SortOrder,
			Items:     []ItemDTO{},
		}
		for _, it := range s.Items {
			id := ItemDTO{
				ItemID:      it.ItemID,
				Title:       it.Title,
				Description: it.Description.String,
				LinkURL:     it.LinkURL.String,
				FileURL:     it.FileURL.String,
				Status:      it.Status,
				SortOrder:   it.SortOrder,
			}
			if it.DueDate.Valid {
				t := it.DueDate.Time
				id.DueDate = &t
			}
			if it.CompletedAt.Valid {
				t := it.CompletedAt.Time
				id.CompletedAt = &t
			}
			sd.Items = append(sd.Items, id)
		}
		dto.Sections = append(dto.Sections, sd)
	}
	return dto
}

// ============================================
// Portal operations
// ============================================

// GetMyChecklist loads the actor's checklist.
func (s *checklistService) GetMyChecklist(ctx context.Context, actor domain.Actor) (*ChecklistResponse, error) {
	checklist, err := s.checklistsRepo.GetChecklistByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ChecklistResponse{
		Checklist: toChecklistDTO(checklist),
		Progress:  insights.CalculateProgress(checklist),
	}, nil
}

// UpdateItemStatus mutates one item owned by the actor. Status and
// completed_at are written atomically, then updated_at is bumped so the
// activity heuristics see the change.
func (s *checklistService) UpdateItemStatus(ctx context.Context, actor domain.Actor, req UpdateItemStatusRequest) (*ChecklistResponse, error) {
	if !domain.ValidItemStatus(req.Status) {
		return nil, ErrInvalidInput
	}

	checklist, err := s.checklistsRepo.GetChecklistByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	found := false
	for _, item := range checklist.Items() {
		if item.ItemID == req.ItemID {
			found = true
			break
		}
	}
	if !found {
		// Item exists but belongs to someone else, or not at all.
		return nil, ErrNotFound
	}

	var completedAt sql.NullTime
	if req.Status == domain.ItemStatusComplete {
		completedAt = sql.NullTime{Time: s.now(), Valid: true}
	}
	if err := s.checklistsRepo.UpdateItemStatus(ctx, req.ItemID, req.Status, completedAt); err != nil {
		return nil, err
	}
	if err := s.checklistsRepo.TouchChecklist(ctx, checklist.ChecklistID); err != nil {
		s.logger.Warn("Failed to touch checklist after status change",
			zap.String("checklist_id", checklist.ChecklistID),
			zap.Error(err),
		)
	}

	return s.GetMyChecklist(ctx, actor)
}

// ============================================
// Clone on approve
// ============================================

// EnsureChecklist clones the role template for the user. A user whose role
// has no template gets an empty checklist; a later sync will fill it in.
func (s *checklistService) EnsureChecklist(ctx context.Context, user *domain.User) (*domain.UserChecklist, error) {
	existing, err := s.checklistsRepo.GetChecklistByUserID(ctx, user.UserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := s.now()
	checklist := &domain.UserChecklist{
		UserID: user.UserID,
		Role:   user.Role,
	}

	tmpl, err := s.templatesRepo.GetTemplateByRole(ctx, user.Role)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if tmpl != nil {
		for _, ts := range tmpl.Sections {
			section := domain.UserSection{
				Title:     ts.Title,
				SortOrder: ts.SortOrder,
			}
			for _, ti := range ts.Items {
				section.Items = append(section.Items, newUserItem(ts.Title, ti, now))
			}
			checklist.Sections = append(checklist.Sections, section)
		}
	}

	if _, err := s.checklistsRepo.CreateChecklist(ctx, checklist); err != nil {
		return nil, err
	}
	s.logger.Info("Checklist created",
		zap.String("user_id", user.UserID),
		zap.String("role", user.Role),
		zap.Int("sections", len(checklist.Sections)),
	)
	return s.checklistsRepo.GetChecklistByUserID(ctx, user.UserID)
}

// newUserItem instantiates a template item. The due date is fixed here, once,
// from the template's relative offset; it is never recomputed afterwards.
func newUserItem(sectionTitle string, ti domain.TemplateItem, now time.Time) domain.UserItem {
	item := domain.UserItem{
		StableKey:   domain.DeriveStableKey(sectionTitle, ti.Title),
		Title:       ti.Title,
		Description: ti.Description,
		LinkURL:     ti.LinkURL,
		FileURL:     ti.FileURL,
		Status:      domain.ItemStatusNotStarted,
		SortOrder:   ti.SortOrder,
	}
	if ti.DueInDays.Valid {
		item.DueDate = sql.NullTime{Time: now.AddDate(0, 0, int(ti.DueInDays.Int32)), Valid: true}
	}
	return item
}

// ============================================
// Template sync engine
// ============================================

// SyncTemplateToUsers walks the role template against every existing
// checklist of that role, adding items the user is missing and, when
// UpdateContent is set, refreshing content on matched items. Items match by
// stable key, derived from (section title, item title): renaming a template
// item produces a new key, so the old user item is left orphaned and a fresh
// one is added. Sections match by title only — renaming a template section
// duplicates it on the next sync. That asymmetry is inherited behavior,
// kept pending a product decision.
//
// Users are processed serially and independently, with no wrapping
// transaction: a failure for one user skips that user only, and a re-run
// converges because matched keys are simply skipped.
func (s *checklistService) SyncTemplateToUsers(ctx context.Context, actor domain.Actor, req SyncTemplateRequest) (*SyncResult, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	tmpl, err := s.templatesRepo.GetTemplateByRole(ctx, req.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	users, err := s.usersRepo.ListUsers(ctx, repository.UserFilters{Role: req.Role})
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := &SyncResult{}
	for _, user := range users {
		checklist, err := s.checklistsRepo.GetChecklistByUserID(ctx, user.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// No checklist to sync into; approval will clone fresh.
				continue
			}
			s.logger.Warn("Sync: failed to load checklist",
				zap.String("user_id", user.UserID),
				zap.Error(err),
			)
			result.UsersFailed++
			continue
		}

		added, updated, err := s.syncOneChecklist(ctx, tmpl, checklist, req.UpdateContent, now)
		result.ItemsAdded += added
		result.ItemsUpdated += updated
		if err != nil {
			s.logger.Warn("Sync: user skipped after partial failure",
				zap.String("user_id", user.UserID),
				zap.Int("items_added", added),
				zap.Error(err),
			)
			result.UsersFailed++
			continue
		}
		if added+updated > 0 {
			result.UsersUpdated++
			if err := s.checklistsRepo.TouchChecklist(ctx, checklist.ChecklistID); err != nil {
				s.logger.Warn("Sync: failed to touch checklist",
					zap.String("checklist_id", checklist.ChecklistID),
					zap.Error(err),
				)
			}
		}
	}

	s.logger.Info("Template sync finished",
		zap.String("role", req.Role),
		zap.Bool("update_content", req.UpdateContent),
		zap.Int("users_updated", result.UsersUpdated),
		zap.Int("items_added", result.ItemsAdded),
		zap.Int("items_updated", result.ItemsUpdated),
		zap.Int("users_failed", result.UsersFailed),
	)
	return result, nil
}

func (s *checklistService) syncOneChecklist(
	ctx context.Context,
	tmpl *domain.RoleTemplate,
	checklist *domain.UserChecklist,
	updateContent bool,
	now time.Time,
) (added, updated int, err error) {
	itemsByKey := make(map[string]domain.UserItem)
	sectionIDByTitle := make(map[string]string)
	for _, section := range checklist.Sections {
		sectionIDByTitle[section.Title] = section.SectionID
		for _, item := range section.Items {
			itemsByKey[item.StableKey] = item
		}
	}

	for _, ts := range tmpl.Sections {
		sectionID, ok := sectionIDByTitle[ts.Title]
		if !ok {
			section := &domain.UserSection{Title: ts.Title, SortOrder: ts.SortOrder}
			sectionID, err = s.checklistsRepo.CreateSection(ctx, checklist.ChecklistID, section)
			if err != nil {
				return added, updated, err
			}
			sectionIDByTitle[ts.Title] = sectionID
		}

		for _, ti := range ts.Items {
			key := domain.DeriveStableKey(ts.Title, ti.Title)
			existing, ok := itemsByKey[key]
			if !ok {
				item := newUserItem(ts.Title, ti, now)
				if _, err = s.checklistsRepo.CreateItem(ctx, sectionID, &item); err != nil {
					return added, updated, err
				}
				itemsByKey[key] = item
				added++
				continue
			}
			if updateContent {
				err = s.checklistsRepo.UpdateItemContent(ctx, existing.ItemID, repository.ItemContentUpdate{
					Description: ti.Description,
					LinkURL:     ti.LinkURL,
					FileURL:     ti.FileURL,
					SortOrder:   ti.SortOrder,
				})
				if err != nil {
					return added, updated, err
				}
				updated++
			}
		}
	}
	return added, updated, nil
}
