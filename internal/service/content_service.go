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

// ContentService public content (FAQs and documents). Listing published
// content needs no actor; mutations are admin only.
type ContentService interface {
	ListFAQs(ctx context.Context, includeUnpublished bool) ([]*domain.FAQ, error)
	SaveFAQ(ctx context.Context, actor domain.Actor, req SaveFAQRequest) (string, error)
	DeleteFAQ(ctx context.Context, actor domain.Actor, faqID string) error

	ListDocuments(ctx context.Context, includeUnpublished bool) ([]*domain.Document, error)
	SaveDocument(ctx context.Context, actor domain.Actor, req SaveDocumentRequest) (string, error)
	DeleteDocument(ctx context.Context, actor domain.Actor, documentID string) error
}

type contentService struct {
	contentRepo repository.ContentRepository
	logger      *zap.Logger
}

// NewContentService creates a ContentService instance.
func NewContentService(contentRepo repository.ContentRepository, logger *zap.Logger) ContentService {
	return &contentService{contentRepo: contentRepo, logger: logger}
}

// SaveFAQRequest create-or-update; empty FAQID means create.
type SaveFAQRequest struct {
	FAQID     string
	Question  string
	Answer    string
	Category  string
	SortOrder int
	Published bool
}

// SaveDocumentRequest create-or-update; empty DocumentID means create.
type SaveDocumentRequest struct {
	DocumentID  string
	Title       string
	Description string
	FileURL     string
	Category    string
	Published   bool
}

func (s *contentService) ListFAQs(ctx context.Context, includeUnpublished bool) ([]*domain.FAQ, error) {
	return s.contentRepo.ListFAQs(ctx, !includeUnpublished)
}

func (s *contentService) SaveFAQ(ctx context.Context, actor domain.Actor, req SaveFAQRequest) (string, error) {
	if !actor.IsAdmin() {
		return "", ErrForbidden
	}
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.Answer) == "" {
		return "", ErrInvalidInput
	}

	faq := &domain.FAQ{
		FAQID:     req.FAQID,
		Question:  strings.TrimSpace(req.Question),
		Answer:    req.Answer,
		SortOrder: req.SortOrder,
		Published: req.Published,
	}
	if req.Category != "" {
		faq.Category = sql.NullString{String: req.Category, Valid: true}
	}

	if req.FAQID == "" {
		return s.contentRepo.CreateFAQ(ctx, faq)
	}
	if err := s.contentRepo.UpdateFAQ(ctx, faq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return req.FAQID, nil
}

func (s *contentService) DeleteFAQ(ctx context.Context, actor domain.Actor, faqID string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := s.contentRepo.DeleteFAQ(ctx, faqID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *contentService) ListDocuments(ctx context.Context, includeUnpublished bool) ([]*domain.Document, error) {
	return s.contentRepo.ListDocuments(ctx, !includeUnpublished)
}

func (s *contentService) SaveDocument(ctx context.Context, actor domain.Actor, req SaveDocumentRequest) (string, error) {
	if !actor.IsAdmin() {
		return "", ErrForbidden
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.FileURL) == "" {
		return "", ErrInvalidInput
	}

	doc := &domain.Document{
		DocumentID: req.DocumentID,
		Title:      strings.TrimSpace(req.Title),
		FileURL:    req.FileURL,
		Published:  req.Published,
	}
	if req.Description != "" {
		doc.Description = sql.NullString{String: req.Description, Valid: true}
	}
	if req.Category != "" {
		doc.Category = sql.NullString{String: req.Category, Valid: true}
	}

	if req.DocumentID == "" {
		return s.contentRepo.CreateDocument(ctx, doc)
	}
	if err := s.contentRepo.UpdateDocument(ctx, doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return req.DocumentID, nil
}

func (s *contentService) DeleteDocument(ctx context.Context, actor domain.Actor, documentID string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := s.contentRepo.DeleteDocument(ctx, documentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
