package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"carepath-portal/internal/domain"
	"carepath-portal/internal/repository"

	"go.uber.org/zap"
)

// TemplateService admin authoring of role checklist templates. Edits here
// touch the blueprint only; pushing changes into existing user checklists is
// the sync engine's job.
type TemplateService interface {
	ListTemplates(ctx context.Context, actor domain.Actor) ([]*TemplateDTO, error)
	GetTemplate(ctx context.Context, actor domain.Actor, role string) (*TemplateDTO, error)
	EnsureTemplate(ctx context.Context, actor domain.Actor, role string) (*TemplateDTO, error)

	AddSection(ctx context.Context, actor domain.Actor, req AddSectionRequest) (string, error)
	UpdateSection(ctx context.Context, actor domain.Actor, req UpdateSectionRequest) error
	DeleteSection(ctx context.Context, actor domain.Actor, sectionID string) error

	AddItem(ctx context.Context, actor domain.Actor, req AddItemRequest) (string, error)
	UpdateItem(ctx context.Context, actor domain.Actor, req UpdateItemRequest) error
	DeleteItem(ctx context.Context, actor domain.Actor, itemID string) error
}

type templateService struct {
	templatesRepo repository.TemplatesRepository
	logger        *zap.Logger
}

// NewTemplateService creates a TemplateService instance.
func NewTemplateService(templatesRepo repository.TemplatesRepository, logger *zap.Logger) TemplateService {
	return &templateService{templatesRepo: templatesRepo, logger: logger}
}

// ============================================
// Request/Response DTOs
// ============================================

// AddSectionRequest appends a section to a role's template.
type AddSectionRequest struct {
	Role      string
	Title     string
	SortOrder int
}

// UpdateSectionRequest edits a section's title/ordering. Renaming a section
// changes the stable keys future syncs derive for its items.
type UpdateSectionRequest struct {
	SectionID string
	Title     string
	SortOrder int
}

// AddItemRequest appends an item to a template section.
type AddItemRequest struct {
	SectionID   string
	Title       string
	Description string
	LinkURL     string
	FileURL     string
	DueInDays   *int
	SortOrder   int
}

// UpdateItemRequest edits a template item.
type UpdateItemRequest struct {
	ItemID      string
	Title       string
	Description string
	LinkURL     string
	FileURL     string
	DueInDays   *int
	SortOrder   int
}

// TemplateDTO wire shape of a template tree.
type TemplateDTO struct {
	TemplateID string               `json:"templateId"`
	Role       string               `json:"role"`
	Sections   []TemplateSectionDTO `json:"sections"`
}

// TemplateSectionDTO wire shape of a template section.
type TemplateSectionDTO struct {
	SectionID string            `json:"sectionId"`
	Title     string            `json:"title"`
	SortOrder int               `json:"sortOrder"`
	Items     []TemplateItemDTO `json:"items"`
}

// TemplateItemDTO wire shape of a template item.
type TemplateItemDTO struct {
	ItemID      string `json:"itemId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	LinkURL     string `json:"linkUrl,omitempty"`
	FileURL     string `json:"fileUrl,omitempty"`
	DueInDays   *int   `json:"dueInDays"`
	SortOrder   int    `json:"sortOrder"`
}

func toTemplateDTO(t *domain.RoleTemplate) *TemplateDTO {
	dto := &TemplateDTO{
		TemplateID: t.TemplateID,
		Role:       t.Role,
		Sections:   []TemplateSectionDTO{},
	}
	for _, s := range t.Sections {
		sd := TemplateSectionDTO{
			SectionID: s.SectionID,
			Title:     s.Title,
			SortOrder: s.SortOrder,
			Items:     []TemplateItemDTO{},
		}
		for _, it := range s.Items {
			itemDTO := TemplateItemDTO{
				ItemID:      it.ItemID,
				Title:       it.Title,
				Description: it.Description.String,
				LinkURL:     it.LinkURL.String,
				FileURL:     it.FileURL.String,
				SortOrder:   it.SortOrder,
			}
			if it.DueInDays.Valid {
				v := int(it.DueInDays.Int32)
				itemDTO.DueInDays = &v
			}
			sd.Items = append(sd.Items, itemDTO)
		}
		dto.Sections = append(dto.Sections, sd)
	}
	return dto
}

// ============================================
// Operations
// ============================================

func (s *templateService) ListTemplates(ctx context.Context, actor domain.Actor) ([]*TemplateDTO, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	templates, err := s.templatesRepo.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*TemplateDTO, 0, len(templates))
	for _, t := range templates {
		out = append(out, toTemplateDTO(t))
	}
	return out, nil
}

func (s *templateService) GetTemplate(ctx context.Context, actor domain.Actor, role string) (*TemplateDTO, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	t, err := s.templatesRepo.GetTemplateByRole(ctx, role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return toTemplateDTO(t), nil
}

func (s *templateService) EnsureTemplate(ctx context.Context, actor domain.Actor, role string) (*TemplateDTO, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.templatesRepo.UpsertTemplate(ctx, role); err != nil {
		return nil, err
	}
	return s.GetTemplate(ctx, actor, role)
}

func (s *templateService) AddSection(ctx context.Context, actor domain.Actor, req AddSectionRequest) (string, error) {
	if !actor.IsAdmin() {
		return "", ErrForbidden
	}
	if strings.TrimSpace(req.Title) == "" {
		return "", ErrInvalidInput
	}
	t, err := s.templatesRepo.GetTemplateByRole(ctx, req.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrTemplateNotFound
		}
		return "", err
	}
	return s.templatesRepo.CreateSection(ctx, t.TemplateID, &domain.TemplateSection{
		Title:     strings.TrimSpace(req.Title),
		SortOrder: req.SortOrder,
	})
}

func (s *templateService) UpdateSection(ctx context.Context, actor domain.Actor, req UpdateSectionRequest) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if strings.TrimSpace(req.Title) == "" {
		return ErrInvalidInput
	}
	return s.templatesRepo.UpdateSection(ctx, &domain.TemplateSection{
		SectionID: req.SectionID,
		Title:     strings.TrimSpace(req.Title),
		SortOrder: req.SortOrder,
	})
}

func (s *templateService) DeleteSection(ctx context.Context, actor domain.Actor, sectionID string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.templatesRepo.DeleteSection(ctx, sectionID)
}

func (s *templateService) AddItem(ctx context.Context, actor domain.Actor, req AddItemRequest) (string, error) {
	if !actor.IsAdmin() {
		return "", ErrForbidden
	}
	if strings.TrimSpace(req.Title) == "" {
		return "", ErrInvalidInput
	}
	return s.templatesRepo.CreateItem(ctx, req.SectionID, templateItemFromRequest(
		"", req.Title, req.Description, req.LinkURL, req.FileURL, req.DueInDays, req.SortOrder))
}

func (s *templateService) UpdateItem(ctx context.Context, actor domain.Actor, req UpdateItemRequest) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if strings.TrimSpace(req.Title) == "" {
		return ErrInvalidInput
	}
	return s.templatesRepo.UpdateItem(ctx, templateItemFromRequest(
		req.ItemID, req.Title, req.Description, req.LinkURL, req.FileURL, req.DueInDays, req.SortOrder))
}

func (s *templateService) DeleteItem(ctx context.Context, actor domain.Actor, itemID string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return s.templatesRepo.DeleteItem(ctx, itemID)
}

func templateItemFromRequest(itemID, title, description, linkURL, fileURL string, dueInDays *int, sortOrder int) *domain.TemplateItem {
	item := &domain.TemplateItem{
		ItemID:    itemID,
		Title:     strings.TrimSpace(title),
		SortOrder: sortOrder,
	}
	if description != "" {
		item.Description = sql.NullString{String: description, Valid: true}
	}
	if linkURL != "" {
		item.LinkURL = sql.NullString{String: linkURL, Valid: true}
	}
	if fileURL != "" {
		item.FileURL = sql.NullString{String: fileURL, Valid: true}
	}
	if dueInDays != nil {
		item.DueInDays = sql.NullInt32{Int32: int32(*dueInDays), Valid: true}
	}
	return item
}
