package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"carepath-portal/internal/domain"
	"carepath-portal/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var checklistTestNow = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

type checklistFixture struct {
	svc        *checklistService
	users      *repository.MemoryUsersRepo
	templates  *repository.MemoryTemplatesRepo
	checklists *repository.MemoryChecklistsRepo
}

func newChecklistFixture(t *testing.T) *checklistFixture {
	t.Helper()
	users := repository.NewMemoryUsersRepo()
	templates := repository.NewMemoryTemplatesRepo()
	checklists := repository.NewMemoryChecklistsRepo(users)
	return &checklistFixture{
		svc: &checklistService{
			templatesRepo:  templates,
			checklistsRepo: checklists,
			usersRepo:      users,
			logger:         zap.NewNop(),
			now:            func() time.Time { return checklistTestNow },
		},
		users:      users,
		templates:  templates,
		checklists: checklists,
	}
}

type testItem struct {
	title     string
	dueInDays int
	link      string
}

// seedTemplate builds a role template in the memory repo. dueInDays of 0
// means no due date.
func (f *checklistFixture) seedTemplate(t *testing.T, role string, sections map[string][]testItem) {
	t.Helper()
	ctx := context.Background()
	templateID, err := f.templates.UpsertTemplate(ctx, role)
	require.NoError(t, err)
	order := 0
	for title, items := range sections {
		sectionID, err := f.templates.CreateSection(ctx, templateID, &domain.TemplateSection{
			Title:     title,
			SortOrder: order,
		})
		require.NoError(t, err)
		order++
		for i, it := range items {
			item := &domain.TemplateItem{
				Title:     it.title,
				SortOrder: i,
			}
			if it.dueInDays > 0 {
				item.DueInDays = sql.NullInt32{Int32: int32(it.dueInDays), Valid: true}
			}
			if it.link != "" {
				item.LinkURL = sql.NullString{String: it.link, Valid: true}
			}
			_, err := f.templates.CreateItem(ctx, sectionID, item)
			require.NoError(t, err)
		}
	}
}

func (f *checklistFixture) addUser(t *testing.T, role string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:     "user@example.com",
		FirstName: "Dana",
		LastName:  "Reyes",
		Role:      role,
		Status:    domain.UserStatusApproved,
	}
	_, err := f.users.CreateUser(context.Background(), u)
	require.NoError(t, err)
	return u
}

func adminActor() domain.Actor {
	return domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin, Email: "admin@example.com"}
}

func findItemByTitle(c *domain.UserChecklist, title string) *domain.UserItem {
	for _, s := range c.Sections {
		for i := range s.Items {
			if s.Items[i].Title == title {
				return &s.Items[i]
			}
		}
	}
	return nil
}

func TestEnsureChecklistClonesTemplate(t *testing.T) {
	f := newChecklistFixture(t)
	ctx := context.Background()
	f.seedTemplate(t, "RN", map[string][]testItem{
		"Paperwork": {
			{title: "Sign NDA", dueInDays: 3},
			{title: "Upload License", dueInDays: 7, link: "https://portal/licenses"},
		},
	})
	user := f.addUser(t, "RN")

	checklist, err := f.svc.EnsureChecklist(ctx, user)
	require.NoError(t, err)
	require.Len(t, checklist.Sections, 1)
	require.Len(t, checklist.Sections[0].Items, 2)

	nda := findItemByTitle(checklist, "Sign NDA")
	require.NotNil(t, nda)
	assert.Equal(t, domain.ItemStatusNotStarted, nda.Status)
	assert.Equal(t, domain.DeriveStableKey("Paperwork", "Sign NDA"), nda.StableKey)
	require.True(t, nda.DueDate.Valid)
	assert.Equal(t, checklistTestNow.AddDate(0, 0, 3), nda.DueDate.Time)

	license := findItemByTitle(checklist, "Upload License")
	require.NotNil(t, license)
	assert.Equal(t, "https://portal/licenses", license.LinkURL.String)

	// Second call returns the existing checklist unchanged.
	again, err := f.svc.EnsureChecklist(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, checklist.ChecklistID, again.ChecklistID)
	assert.Len(t, again.Items(), 2)
}

func TestEnsureChecklistWithoutTemplate(t *testing.T) {
	f := newChecklistFixture(t)
	user := f.addUser(t, "PT")

	checklist, err := f.svc.EnsureChecklist(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "PT", checklist.Role)
	assert.Empty(t, checklist.Sections)
}

func TestSyncTemplateIsIdempotent(t *testing.T) {
	f := newChecklistFixture(t)
	ctx := context.Background()
	f.seedTemplate(t, "RN", map[string][]testItem{
		"Paperwork": {{title: "Sign NDA"}},
	})
	user := f.addUser(t, "RN")
	_, err := f.svc.EnsureChecklist(ctx, user)
	require.NoError(t, err)

	// Template grows after the user already has a checklist.
	tmpl, err := f.templates.GetTemplateByRole(ctx, "RN")
	require.NoError(t, err)
	_, err = f.templates.CreateItem(ctx, tmpl.Sections[0].SectionID, &domain.TemplateItem{
		Title:     "Complete HIPAA Training",
		DueInDays: sql.NullInt32{Int32: 14, Valid: true},
		SortOrder: 1,
	})
	require.NoError(t, err)

	result, err := f.svc.SyncTemplateToUsers(ctx, adminActor(), SyncTemplateRequest{Role: "RN"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.UsersUpdated)
	assert.Equal(t, 1, result.ItemsAdded)
	assert.Equal(t, 0, result.UsersFailed)

	checklist, err := f.checklists.GetChecklistByUserID(ctx, user.UserID)
	require.NoError(t, err)
	hipaa := findItemByTitle(checklist, "Complete HIPAA Training")
	require.NotNil(t, hipaa)
	assert.Equal(t, domain.ItemStatusNotStarted, hipaa.Status)
	// Due date anchors at sync time, not checklist creation.
	require.True(t, hipaa.DueDate.Valid)
	assert.Equal(t, checklistTestNow.AddDate(0, 0, 14), hipaa.DueDate.Time)

	// Re-run converges to zero work.
	second, err := f.svc.SyncTemplateToUsers(ctx, adminActor(), SyncTemplateRequest{Role: "RN"})
	require.NoError(t, err)
	assert.Equal(t, 0, second.ItemsAdded)
	assert.Equal(t, 0, second.UsersUpdated)

	checklist, err = f.checklists.GetChecklistByUserID(ctx, user.UserID)
	require.NoError(t, err)
	assert.Len(t, checklist.Items(), 2)
}

func TestSyncCreatesMissingSection(t *testing.T) {
	f := newChecklistFixture(t)
	ctx := context.Background()
	f.seedTemplate(t, "RN", map[string][]testItem{
		"Paperwork": {{title: "Sign NDA"}},
	})
	user := f.addUser(t, "RN")
	_, err := f.svc.EnsureChecklist(ctx, user)
	require.NoError(t, err)

	tmpl, err := f.templates.GetTemplateByRole(ctx, "RN")
	require.NoError(t, err)
	sectionID, err := f.templates.CreateSection(ctx, tmpl.TemplateID, &domain.TemplateSection{
		Title:     "Clinical Readiness",
		SortOrder: 1,
	})
	require.NoError(t, err)
	_, err = f.templates.CreateItem(ctx, sectionID, &domain.TemplateItem{Title: "Shadow a Shift"})
	require.NoError(t, err)

	result, err := f.svc.SyncTemplateToUsers(ctx, adminActor(), SyncTemplateRequest{Role: "RN"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemsAdded)

	checklist, err := f.checklists.GetChecklistByUserID(ctx, user.UserID)
	require.NoError(t, err)
	require.Len(t, checklist.Sections, 2)
	shadow := findItemByTitle(checklist, "Shadow a Shift")
	require.NotNil(t, shadow)
	assert.Equal(t, domain.DeriveStableKey("Clinical Readiness", "Shadow a Shift"), shadow.StableKey)
}

func TestSyncUpdateContentPreservesUserState(t *testing.T) {
	f := newChecklistFixture(t)
	ctx := context.Background()
	f.seedTemplate(t, "RN", map[string][]testItem{
		"Paperwork": {{title: "Sign NDA", link: "https://old.example/nda"}},
	})
	user := f.addUser(t, "RN")
	checklist, err := f.svc.EnsureChecklist(ctx, user)
	require.NoError(t, err)

	// User completes the item before the template content changes.
	nda := findItemByTitle(checklist, "Sign NDA")
	completedAt := sql.NullTime{Time: checklistTestNow.Add(-24 * time.Hour), Valid: true}
	require.NoError(t, f.checklists.UpdateItemStatus(ctx, nda.ItemID, domain.ItemStatusComplete, completedAt))

	tmpl, err := f.templates.GetTemplateByRole(ctx, "RN")
	require.NoError(t, err)
	updated := tmpl.Sections[0].Items[0]
	updated.Description = sql.NullString{String: "Use the new e-sign flow", Valid: true}
	updated.LinkURL = sql.NullString{String: "https://new.example/nda", Valid: true}
	require.NoError(t, f.templates.UpdateItem(ctx, &updated))

	result, err := f.svc.SyncTemplateToUsers(ctx, adminActor(), SyncTemplateRequest{Role: "RN", UpdateContent: true})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ItemsAdded)
	assert.Equal(t, 1, result.ItemsUpdated)
	assert.Equal(t, 1, result.UsersUpdated)

	checklist, err = f.checklists.GetChecklistByUserID(ctx, user.UserID)
	require.NoError(t, err)
	nda = findItemByTitle(checklist, "Sign NDA")
	require.NotNil(t, nda)
	assert.Equal(t, "https://new.example/nda", nda.LinkURL.String)
	assert.Equal(t, "Use the new e-sign flow", nda.Description.String)
	// Status, completion and identity survive the content refresh.
	assert.Equal(t, domain.ItemStatusComplete, nda.Status)
	assert.Equal(t, completedAt, nda.CompletedAt)
	assert.Equal(t, domain.DeriveStableKey("Paperwork", "Sign NDA"), nda.StableKey)
}

func TestSyncRenamedItemLeavesOrphan(t *testing.T) {
	f := newChecklistFixture(t)
	ctx := context.Background()
	f.seedTemplate(t, "RN", map[string][]testItem{
		"Paperwork": {{title: "Sign NDA"}},
	})
	user := f.addUser(t, "RN")
	_, err := f.svc.EnsureChecklist(ctx, user)
	require.NoError(t, err)

	// Renaming changes the stable key; the old user item stays put.
	tmpl, err := f.templates.GetTemplateByRole(ctx, "RN")
	require.NoError(t, err)
	renamed := tmpl.Sections[0].Items[0]
	renamed.Title = "Sign Confidentiality Agreement"
	require.NoError(t, f.templates.UpdateItem(ctx, &renamed))

	result, err := f.svc.SyncTemplateToUsers(ctx, adminActor(), SyncTemplateRequest{Role: "RN"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemsAdded)

	checklist, err := f.checklists.GetChecklistByUserID(ctx, user.UserID)
	require.NoError(t, err)
	assert.Len(t, checklist.Items(), 2)
	assert.NotNil(t, findItemByTitle(checklist, "Sign NDA"))
	assert.NotNil(t, findItemByTitle(checklist, "Sign Confidentiality Agreement"))
}

func TestSyncPartialFailureSkipsUserOnly(t *testing.T) {
	f := newChecklistFixture(t)
	ctx := context.Background()
	f.seedTemplate(t, "RN", map[string][]testItem{
		"Paperwork": {{title: "Sign NDA"}},
	})

	var users []*domain.User
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		u := &domain.User{Email: email, FirstName: "T", LastName: "U", Role: "RN", Status: domain.UserStatusApproved}
		_, err := f.users.CreateUser(ctx, u)
		require.NoError(t, err)
		_, err = f.svc.EnsureChecklist(ctx, u)
		require.NoError(t, err)
		users = append(users, u)
	}

	tmpl, err := f.templates.GetTemplateByRole(ctx, "RN")
	require.NoError(t, err)
	_, err = f.templates.CreateItem(ctx, tmpl.Sections[0].SectionID, &domain.TemplateItem{Title: "Badge Photo", SortOrder: 1})
	require.NoError(t, err)

	f.checklists.FailForUser(users[1].UserID)

	result, err := f.svc.SyncTemplateToUsers(ctx, adminActor(), SyncTemplateRequest{Role: "RN"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.UsersFailed)
	assert.Equal(t, 2, result.UsersUpdated)
	assert.Equal(t, 2, result.ItemsAdded)

	// Clearing the fault and re-running picks up the skipped user.
	f.checklists.FailForUser("")
	result, err = f.svc.SyncTemplateToUsers(ctx, adminActor(), SyncTemplateRequest{Role: "RN"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.UsersFailed)
	assert.Equal(t, 1, result.UsersUpdated)
	assert.Equal(t, 1, result.ItemsAdded)
}

func TestSyncSkipsUsersWithoutChecklist(t *testing.T) {
	f := newChecklistFixture(t)
	ctx := context.Background()
	f.seedTemplate(t, "RN", map[string][]testItem{
		"Paperwork": {{title: "Sign NDA"}},
	})
	f.addUser(t, "RN") // never approved into a checklist

	result, err := f.svc.SyncTemplateToUsers(ctx, adminActor(), SyncTemplateRequest{Role: "RN"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.UsersUpdated)
	assert.Equal(t, 0, result.UsersFailed)
}

func TestSyncAuthorization(t *testing.T) {
	f := newChecklistFixture(t)
	ctx := context.Background()

	_, err := f.svc.SyncTemplateToUsers(ctx, domain.Actor{UserID: "u1", Role: "RN"}, SyncTemplateRequest{Role: "RN"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.SyncTemplateToUsers(ctx, adminActor(), SyncTemplateRequest{Role: "NO_SUCH_ROLE"})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestUpdateItemStatus(t *testing.T) {
	f := newChecklistFixture(t)
	ctx := context.Background()
	f.seedTemplate(t, "RN", map[string][]testItem{
		"Paperwork": {{title: "Sign NDA"}},
	})
	user := f.addUser(t, "RN")
	checklist, err := f.svc.EnsureChecklist(ctx, user)
	require.NoError(t, err)
	itemID := checklist.Items()[0].ItemID
	actor := domain.Actor{UserID: user.UserID, Role: user.Role}

	resp, err := f.svc.UpdateItemStatus(ctx, actor, UpdateItemStatusRequest{ItemID: itemID, Status: domain.ItemStatusComplete})
	require.NoError(t, err)
	item := resp.Checklist.Sections[0].Items[0]
	assert.Equal(t, domain.ItemStatusComplete, item.Status)
	require.NotNil(t, item.CompletedAt)
	assert.Equal(t, checklistTestNow, *item.CompletedAt)
	assert.Equal(t, 100, resp.Progress.Percentage)

	// Reverting clears the completion timestamp.
	resp, err = f.svc.UpdateItemStatus(ctx, actor, UpdateItemStatusRequest{ItemID: itemID, Status: domain.ItemStatusInProgress})
	require.NoError(t, err)
	item = resp.Checklist.Sections[0].Items[0]
	assert.Equal(t, domain.ItemStatusInProgress, item.Status)
	assert.Nil(t, item.CompletedAt)

	_, err = f.svc.UpdateItemStatus(ctx, actor, UpdateItemStatusRequest{ItemID: itemID, Status: "DONE"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Another user's actor cannot touch this item.
	other := f.addUser(t, "RN")
	other.Email = "other@example.com"
	_, err = f.svc.EnsureChecklist(ctx, other)
	require.NoError(t, err)
	_, err = f.svc.UpdateItemStatus(ctx, domain.Actor{UserID: other.UserID, Role: other.Role}, UpdateItemStatusRequest{ItemID: itemID, Status: domain.ItemStatusComplete})
	assert.ErrorIs(t, err, ErrNotFound)
}
