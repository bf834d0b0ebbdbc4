package repository

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"carepath-portal/internal/domain"

	"github.com/google/uuid"
)

// In-memory repositories for tests and for running the API without a
// database. They implement the same interfaces as the Postgres
// implementations; IDs are uuids, no uniqueness constraints beyond what the
// service layer checks.

// MemoryUsersRepo in-memory UsersRepository.
type MemoryUsersRepo struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewMemoryUsersRepo creates an empty users repo.
func NewMemoryUsersRepo() *MemoryUsersRepo {
	return &MemoryUsersRepo{users: map[string]*domain.User{}}
}

var _ UsersRepository = (*MemoryUsersRepo)(nil)

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (r *MemoryUsersRepo) GetUser(_ context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneUser(u), nil
}

func (r *MemoryUsersRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *MemoryUsersRepo) ListUsers(_ context.Context, filters UserFilters) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.User
	for _, u := range r.users {
		if filters.Role != "" && u.Role != filters.Role {
			continue
		}
		if filters.Status != "" && u.Status != filters.Status {
			continue
		}
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *MemoryUsersRepo) CreateUser(_ context.Context, user *domain.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.UserID] = cloneUser(user)
	return user.UserID, nil
}

func (r *MemoryUsersRepo) UpdateUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.UserID]
	if !ok {
		return sql.ErrNoRows
	}
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.Phone = user.Phone
	existing.Role = user.Role
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUsersRepo) UpdateUserStatus(_ context.Context, userID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.Status = status
	u.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUsersRepo) DeleteUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return sql.ErrNoRows
	}
	delete(r.users, userID)
	return nil
}

// MemoryTemplatesRepo in-memory TemplatesRepository.
type MemoryTemplatesRepo struct {
	mu        sync.RWMutex
	templates map[string]*domain.RoleTemplate // keyed by role
}

// NewMemoryTemplatesRepo creates an empty templates repo.
func NewMemoryTemplatesRepo() *MemoryTemplatesRepo {
	return &MemoryTemplatesRepo{templates: map[string]*domain.RoleTemplate{}}
}

var _ TemplatesRepository = (*MemoryTemplatesRepo)(nil)

func cloneTemplate(t *domain.RoleTemplate) *domain.RoleTemplate {
	c := *t
	c.Sections = make([]domain.TemplateSection, len(t.Sections))
	for i, s := range t.Sections {
		cs := s
		cs.Items = append([]domain.TemplateItem(nil), s.Items...)
		c.Sections[i] = cs
	}
	return &c
}

func (r *MemoryTemplatesRepo) GetTemplateByRole(_ context.Context, role string) (*domain.RoleTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[role]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneTemplate(t), nil
}

func (r *MemoryTemplatesRepo) ListTemplates(_ context.Context) ([]*domain.RoleTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.RoleTemplate
	for _, t := range r.templates {
		out = append(out, cloneTemplate(t))
	}
	return out, nil
}

func (r *MemoryTemplatesRepo) UpsertTemplate(_ context.Context, role string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.templates[role]; ok {
		t.UpdatedAt = time.Now()
		return t.TemplateID, nil
	}
	t := &domain.RoleTemplate{
		TemplateID: uuid.NewString(),
		Role:       role,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	r.templates[role] = t
	return t.TemplateID, nil
}

func (r *MemoryTemplatesRepo) findTemplate(templateID string) *domain.RoleTemplate {
	for _, t := range r.templates {
		if t.TemplateID == templateID {
			return t
		}
	}
	return nil
}

func (r *MemoryTemplatesRepo) CreateSection(_ context.Context, templateID string, section *domain.TemplateSection) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.findTemplate(templateID)
	if t == nil {
		return "", sql.ErrNoRows
	}
	if section.SectionID == "" {
		section.SectionID = uuid.NewString()
	}
	section.TemplateID = templateID
	t.Sections = append(t.Sections, *section)
	return section.SectionID, nil
}

func (r *MemoryTemplatesRepo) UpdateSection(_ context.Context, section *domain.TemplateSection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		for i := range t.Sections {
			if t.Sections[i].SectionID == section.SectionID {
				t.Sections[i].Title = section.Title
				t.Sections[i].SortOrder = section.SortOrder
				return nil
			}
		}
	}
	return sql.ErrNoRows
}

func (r *MemoryTemplatesRepo) DeleteSection(_ context.Context, sectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		for i := range t.Sections {
			if t.Sections[i].SectionID == sectionID {
				t.Sections = append(t.Sections[:i], t.Sections[i+1:]...)
				return nil
			}
		}
	}
	return sql.ErrNoRows
}

func (r *MemoryTemplatesRepo) CreateItem(_ context.Context, sectionID string, item *domain.TemplateItem) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		for i := range t.Sections {
			if t.Sections[i].SectionID == sectionID {
				if item.ItemID == "" {
					item.ItemID = uuid.NewString()
				}
				item.SectionID = sectionID
				t.Sections[i].Items = append(t.Sections[i].Items, *item)
				return item.ItemID, nil
			}
		}
	}
	return "", sql.ErrNoRows
}

func (r *MemoryTemplatesRepo) UpdateItem(_ context.Context, item *domain.TemplateItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		for i := range t.Sections {
			for j := range t.Sections[i].Items {
				if t.Sections[i].Items[j].ItemID == item.ItemID {
					saved := &t.Sections[i].Items[j]
					saved.Title = item.Title
					saved.Description = item.Description
					saved.LinkURL = item.LinkURL
					saved.FileURL = item.FileURL
					saved.DueInDays = item.DueInDays
					saved.SortOrder = item.SortOrder
					return nil
				}
			}
		}
	}
	return sql.ErrNoRows
}

func (r *MemoryTemplatesRepo) DeleteItem(_ context.Context, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		for i := range t.Sections {
			for j := range t.Sections[i].Items {
				if t.Sections[i].Items[j].ItemID == itemID {
					items := t.Sections[i].Items
					t.Sections[i].Items = append(items[:j], items[j+1:]...)
					return nil
				}
			}
		}
	}
	return sql.ErrNoRows
}

// MemoryChecklistsRepo in-memory ChecklistsRepository.
type MemoryChecklistsRepo struct {
	mu         sync.RWMutex
	byUser     map[string]*domain.UserChecklist
	usersRepo  *MemoryUsersRepo // for ListChecklistsWithOwners
	failUserID string           // CreateItem fails for this owner (partial-failure tests)
}

// NewMemoryChecklistsRepo creates an empty checklists repo. usersRepo may be
// nil when ListChecklistsWithOwners is not needed.
func NewMemoryChecklistsRepo(usersRepo *MemoryUsersRepo) *MemoryChecklistsRepo {
	return &MemoryChecklistsRepo{
		byUser:    map[string]*domain.UserChecklist{},
		usersRepo: usersRepo,
	}
}

var _ ChecklistsRepository = (*MemoryChecklistsRepo)(nil)

// FailForUser makes CreateItem return an error for the given owner.
func (r *MemoryChecklistsRepo) FailForUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failUserID = userID
}

func cloneChecklist(c *domain.UserChecklist) *domain.UserChecklist {
	cc := *c
	cc.Sections = make([]domain.UserSection, len(c.Sections))
	for i, s := range c.Sections {
		cs := s
		cs.Items = append([]domain.UserItem(nil), s.Items...)
		cc.Sections[i] = cs
	}
	return &cc
}

func (r *MemoryChecklistsRepo) GetChecklistByUserID(_ context.Context, userID string) (*domain.UserChecklist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneChecklist(c), nil
}

func (r *MemoryChecklistsRepo) CreateChecklist(_ context.Context, checklist *domain.UserChecklist) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if checklist.ChecklistID == "" {
		checklist.ChecklistID = uuid.NewString()
	}
	now := time.Now()
	if checklist.CreatedAt.IsZero() {
		checklist.CreatedAt = now
	}
	if checklist.UpdatedAt.IsZero() {
		checklist.UpdatedAt = now
	}
	for i := range checklist.Sections {
		s := &checklist.Sections[i]
		if s.SectionID == "" {
			s.SectionID = uuid.NewString()
		}
		s.ChecklistID = checklist.ChecklistID
		for j := range s.Items {
			it := &s.Items[j]
			if it.ItemID == "" {
				it.ItemID = uuid.NewString()
			}
			it.SectionID = s.SectionID
			if it.CreatedAt.IsZero() {
				it.CreatedAt = now
			}
		}
	}
	r.byUser[checklist.UserID] = cloneChecklist(checklist)
	return checklist.ChecklistID, nil
}

func (r *MemoryChecklistsRepo) findByChecklistID(checklistID string) *domain.UserChecklist {
	for _, c := range r.byUser {
		if c.ChecklistID == checklistID {
			return c
		}
	}
	return nil
}

func (r *MemoryChecklistsRepo) CreateSection(_ context.Context, checklistID string, section *domain.UserSection) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.findByChecklistID(checklistID)
	if c == nil {
		return "", sql.ErrNoRows
	}
	if section.SectionID == "" {
		section.SectionID = uuid.NewString()
	}
	section.ChecklistID = checklistID
	c.Sections = append(c.Sections, *section)
	return section.SectionID, nil
}

func (r *MemoryChecklistsRepo) CreateItem(_ context.Context, sectionID string, item *domain.UserItem) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, c := range r.byUser {
		for i := range c.Sections {
			if c.Sections[i].SectionID == sectionID {
				if r.failUserID != "" && userID == r.failUserID {
					return "", sql.ErrConnDone
				}
				if item.ItemID == "" {
					item.ItemID = uuid.NewString()
				}
				item.SectionID = sectionID
				if item.CreatedAt.IsZero() {
					item.CreatedAt = time.Now()
				}
				c.Sections[i].Items = append(c.Sections[i].Items, *item)
				return item.ItemID, nil
			}
		}
	}
	return "", sql.ErrNoRows
}

func (r *MemoryChecklistsRepo) UpdateItemContent(_ context.Context, itemID string, update ItemContentUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byUser {
		for i := range c.Sections {
			for j := range c.Sections[i].Items {
				if c.Sections[i].Items[j].ItemID == itemID {
					it := &c.Sections[i].Items[j]
					it.Description = update.Description
					it.LinkURL = update.LinkURL
					it.FileURL = update.FileURL
					it.SortOrder = update.SortOrder
					return nil
				}
			}
		}
	}
	return sql.ErrNoRows
}

func (r *MemoryChecklistsRepo) UpdateItemStatus(_ context.Context, itemID, status string, completedAt sql.NullTime) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byUser {
		for i := range c.Sections {
			for j := range c.Sections[i].Items {
				if c.Sections[i].Items[j].ItemID == itemID {
					c.Sections[i].Items[j].Status = status
					c.Sections[i].Items[j].CompletedAt = completedAt
					return nil
				}
			}
		}
	}
	return sql.ErrNoRows
}

func (r *MemoryChecklistsRepo) TouchChecklist(_ context.Context, checklistID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.findByChecklistID(checklistID)
	if c == nil {
		return sql.ErrNoRows
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryChecklistsRepo) ListChecklistsWithOwners(ctx context.Context, userStatus string) ([]OwnedChecklist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []OwnedChecklist
	for userID, c := range r.byUser {
		if r.usersRepo == nil {
			continue
		}
		owner, err := r.usersRepo.GetUser(ctx, userID)
		if err != nil {
			continue
		}
		if owner.Status != userStatus {
			continue
		}
		out = append(out, OwnedChecklist{Owner: owner, Checklist: cloneChecklist(c)})
	}
	return out, nil
}
