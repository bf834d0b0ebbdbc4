package repository

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"carepath-portal/internal/domain"

	"github.com/google/uuid"
)

// MemoryAuthRepo in-memory AuthRepository. User-row writes go through the
// paired MemoryUsersRepo so the two stay consistent, same as the single
// transaction in the Postgres implementation.
type MemoryAuthRepo struct {
	mu        sync.Mutex
	tokens    map[string]*domain.AuthToken
	usersRepo *MemoryUsersRepo
}

// NewMemoryAuthRepo creates an empty auth repo backed by usersRepo.
func NewMemoryAuthRepo(usersRepo *MemoryUsersRepo) *MemoryAuthRepo {
	return &MemoryAuthRepo{
		tokens:    map[string]*domain.AuthToken{},
		usersRepo: usersRepo,
	}
}

var _ AuthRepository = (*MemoryAuthRepo)(nil)

func (r *MemoryAuthRepo) CreateToken(_ context.Context, token *domain.AuthToken) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token.TokenID == "" {
		token.TokenID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	cp := *token
	r.tokens[token.TokenID] = &cp
	return token.TokenID, nil
}

func (r *MemoryAuthRepo) GetTokenByHash(_ context.Context, tokenHash []byte, purpose string) (*domain.AuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Purpose == purpose && bytes.Equal(t.TokenHash, tokenHash) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *MemoryAuthRepo) consumeToken(tokenID string) error {
	t, ok := r.tokens[tokenID]
	if !ok || t.UsedAt.Valid {
		return sql.ErrNoRows
	}
	t.UsedAt = sql.NullTime{Time: time.Now(), Valid: true}
	return nil
}

func (r *MemoryAuthRepo) ResetPasswordWithToken(_ context.Context, tokenID, userID string, passwordHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usersRepo.mu.Lock()
	defer r.usersRepo.mu.Unlock()
	u, ok := r.usersRepo.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	if err := r.consumeToken(tokenID); err != nil {
		return err
	}
	u.PasswordHash = append([]byte(nil), passwordHash...)
	u.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryAuthRepo) VerifyEmailWithToken(_ context.Context, tokenID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usersRepo.mu.Lock()
	defer r.usersRepo.mu.Unlock()
	u, ok := r.usersRepo.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	if err := r.consumeToken(tokenID); err != nil {
		return err
	}
	u.EmailVerified = true
	u.UpdatedAt = time.Now()
	return nil
}

// MemoryContentRepo in-memory ContentRepository.
type MemoryContentRepo struct {
	mu   sync.RWMutex
	faqs map[string]*domain.FAQ
	docs map[string]*domain.Document
}

// NewMemoryContentRepo creates an empty content repo.
func NewMemoryContentRepo() *MemoryContentRepo {
	return &MemoryContentRepo{
		faqs: map[string]*domain.FAQ{},
		docs: map[string]*domain.Document{},
	}
}

var _ ContentRepository = (*MemoryContentRepo)(nil)

func (r *MemoryContentRepo) ListFAQs(_ context.Context, publishedOnly bool) ([]*domain.FAQ, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.FAQ
	for _, f := range r.faqs {
		if publishedOnly && !f.Published {
			continue
		}
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryContentRepo) CreateFAQ(_ context.Context, faq *domain.FAQ) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if faq.FAQID == "" {
		faq.FAQID = uuid.NewString()
	}
	now := time.Now()
	faq.CreatedAt = now
	faq.UpdatedAt = now
	cp := *faq
	r.faqs[faq.FAQID] = &cp
	return faq.FAQID, nil
}

func (r *MemoryContentRepo) UpdateFAQ(_ context.Context, faq *domain.FAQ) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.faqs[faq.FAQID]
	if !ok {
		return sql.ErrNoRows
	}
	existing.Question = faq.Question
	existing.Answer = faq.Answer
	existing.Category = faq.Category
	existing.SortOrder = faq.SortOrder
	existing.Published = faq.Published
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryContentRepo) DeleteFAQ(_ context.Context, faqID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.faqs[faqID]; !ok {
		return sql.ErrNoRows
	}
	delete(r.faqs, faqID)
	return nil
}

func (r *MemoryContentRepo) ListDocuments(_ context.Context, publishedOnly bool) ([]*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Document
	for _, d := range r.docs {
		if publishedOnly && !d.Published {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryContentRepo) CreateDocument(_ context.Context, doc *domain.Document) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.DocumentID == "" {
		doc.DocumentID = uuid.NewString()
	}
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	cp := *doc
	r.docs[doc.DocumentID] = &cp
	return doc.DocumentID, nil
}

func (r *MemoryContentRepo) UpdateDocument(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.docs[doc.DocumentID]
	if !ok {
		return sql.ErrNoRows
	}
	existing.Title = doc.Title
	existing.Description = doc.Description
	existing.FileURL = doc.FileURL
	existing.Category = doc.Category
	existing.Published = doc.Published
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryContentRepo) DeleteDocument(_ context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[documentID]; !ok {
		return sql.ErrNoRows
	}
	delete(r.docs, documentID)
	return nil
}

// MemorySearchRepo in-memory SearchRepository over the other memory repos.
type MemorySearchRepo struct {
	usersRepo      *MemoryUsersRepo
	checklistsRepo *MemoryChecklistsRepo
	contentRepo    *MemoryContentRepo
}

// NewMemorySearchRepo creates a search repo reading from the given repos.
func NewMemorySearchRepo(usersRepo *MemoryUsersRepo, checklistsRepo *MemoryChecklistsRepo, contentRepo *MemoryContentRepo) *MemorySearchRepo {
	return &MemorySearchRepo{
		usersRepo:      usersRepo,
		checklistsRepo: checklistsRepo,
		contentRepo:    contentRepo,
	}
}

var _ SearchRepository = (*MemorySearchRepo)(nil)

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (r *MemorySearchRepo) SearchUserItems(ctx context.Context, userID, query string, limit int) ([]domain.SearchResult, error) {
	checklist, err := r.checklistsRepo.GetChecklistByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var out []domain.SearchResult
	for _, s := range checklist.Sections {
		for _, it := range s.Items {
			if len(out) >= limit {
				return out, nil
			}
			if containsFold(it.Title, query) || containsFold(it.Description.String, query) {
				out = append(out, domain.SearchResult{
					Type:        domain.SearchTypeTask,
					ID:          it.ItemID,
					Title:       it.Title,
					Description: it.Description.String,
					URL:         "/portal/checklist#" + it.ItemID,
					Metadata:    map[string]string{"section": s.Title, "status": it.Status},
				})
			}
		}
	}
	return out, nil
}

func (r *MemorySearchRepo) SearchDocuments(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	docs, err := r.contentRepo.ListDocuments(ctx, true)
	if err != nil {
		return nil, err
	}
	var out []domain.SearchResult
	for _, d := range docs {
		if len(out) >= limit {
			break
		}
		if containsFold(d.Title, query) || containsFold(d.Description.String, query) {
			out = append(out, domain.SearchResult{
				Type:        domain.SearchTypeDocument,
				ID:          d.DocumentID,
				Title:       d.Title,
				Description: d.Description.String,
				URL:         d.FileURL,
			})
		}
	}
	return out, nil
}

func (r *MemorySearchRepo) SearchFAQs(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	faqs, err := r.contentRepo.ListFAQs(ctx, true)
	if err != nil {
		return nil, err
	}
	var out []domain.SearchResult
	for _, f := range faqs {
		if len(out) >= limit {
			break
		}
		if containsFold(f.Question, query) || containsFold(f.Answer, query) {
			out = append(out, domain.SearchResult{
				Type:        domain.SearchTypeFAQ,
				ID:          f.FAQID,
				Title:       f.Question,
				Description: f.Answer,
				URL:         "/faq#" + f.FAQID,
			})
		}
	}
	return out, nil
}

func (r *MemorySearchRepo) SearchUsers(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	users, err := r.usersRepo.ListUsers(ctx, UserFilters{})
	if err != nil {
		return nil, err
	}
	var out []domain.SearchResult
	for _, u := range users {
		if len(out) >= limit {
			break
		}
		if containsFold(u.FullName(), query) || containsFold(u.Email, query) {
			out = append(out, domain.SearchResult{
				Type:        domain.SearchTypeUser,
				ID:          u.UserID,
				Title:       u.FullName(),
				Description: u.Email,
				URL:         "/admin/users/" + u.UserID,
				Metadata:    map[string]string{"role": u.Role, "status": u.Status},
			})
		}
	}
	return out, nil
}

func (r *MemorySearchRepo) SearchSections(_ context.Context, query string, limit int) ([]domain.SearchResult, error) {
	r.checklistsRepo.mu.RLock()
	defer r.checklistsRepo.mu.RUnlock()
	seen := map[string]bool{}
	var out []domain.SearchResult
	for _, c := range r.checklistsRepo.byUser {
		for _, s := range c.Sections {
			if len(out) >= limit {
				return out, nil
			}
			if !containsFold(s.Title, query) || seen[c.Role+"\x00"+s.Title] {
				continue
			}
			seen[c.Role+"\x00"+s.Title] = true
			out = append(out, domain.SearchResult{
				Type:     domain.SearchTypeSection,
				ID:       s.SectionID,
				Title:    s.Title,
				URL:      "/admin/templates/" + c.Role,
				Metadata: map[string]string{"role": c.Role},
			})
		}
	}
	return out, nil
}
