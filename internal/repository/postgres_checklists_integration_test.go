//go:build integration
// +build integration

package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"carepath-portal/internal/config"
	"carepath-portal/internal/domain"
	"carepath-portal/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	cfg := config.Load()
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		t.Skipf("Skipping integration test: database not available: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email string) string {
	users := NewPostgresUsersRepository(db)
	id, err := users.CreateUser(context.Background(), &domain.User{
		Email:        email,
		PasswordHash: []byte("x"),
		FirstName:    "Integration",
		LastName:     "User",
		Role:         "RN",
		Status:       domain.UserStatusApproved,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		// cascades to the checklist tree
		_, _ = db.Exec("DELETE FROM users WHERE user_id = $1", id)
	})
	return id
}

func TestPostgresChecklistLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgresChecklistsRepository(db)
	ctx := context.Background()

	userID := createTestUser(t, db, "it-checklist@test.local")

	_, err := repo.GetChecklistByUserID(ctx, userID)
	require.ErrorIs(t, err, sql.ErrNoRows)

	due := time.Now().AddDate(0, 0, 7).UTC().Truncate(time.Second)
	checklist := &domain.UserChecklist{
		UserID: userID,
		Role:   "RN",
		Sections: []domain.UserSection{
			{
				Title:     "Paperwork",
				SortOrder: 0,
				Items: []domain.UserItem{
					{
						StableKey: domain.DeriveStableKey("Paperwork", "Sign NDA"),
						Title:     "Sign NDA",
						Status:    domain.ItemStatusNotStarted,
						DueDate:   sql.NullTime{Time: due, Valid: true},
						SortOrder: 0,
					},
					{
						StableKey: domain.DeriveStableKey("Paperwork", "Upload License"),
						Title:     "Upload License",
						Status:    domain.ItemStatusNotStarted,
						SortOrder: 1,
					},
				},
			},
		},
	}
	checklistID, err := repo.CreateChecklist(ctx, checklist)
	require.NoError(t, err)
	require.NotEmpty(t, checklistID)

	loaded, err := repo.GetChecklistByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, loaded.Sections, 1)
	require.Len(t, loaded.Sections[0].Items, 2)
	assert.Equal(t, "RN", loaded.Role)

	item := loaded.Sections[0].Items[0]
	assert.Equal(t, domain.DeriveStableKey("Paperwork", "Sign NDA"), item.StableKey)
	require.True(t, item.DueDate.Valid)

	// Completing sets completed_at atomically with the status.
	completedAt := sql.NullTime{Time: time.Now().UTC().Truncate(time.Second), Valid: true}
	require.NoError(t, repo.UpdateItemStatus(ctx, item.ItemID, domain.ItemStatusComplete, completedAt))
	loaded, err = repo.GetChecklistByUserID(ctx, userID)
	require.NoError(t, err)
	got := loaded.Sections[0].Items[0]
	assert.Equal(t, domain.ItemStatusComplete, got.Status)
	assert.True(t, got.CompletedAt.Valid)

	// Reverting clears it; the schema CHECK keeps the pair consistent.
	require.NoError(t, repo.UpdateItemStatus(ctx, item.ItemID, domain.ItemStatusInProgress, sql.NullTime{}))
	loaded, err = repo.GetChecklistByUserID(ctx, userID)
	require.NoError(t, err)
	assert.False(t, loaded.Sections[0].Items[0].CompletedAt.Valid)

	// Content updates never touch status.
	require.NoError(t, repo.UpdateItemContent(ctx, item.ItemID, ItemContentUpdate{
		Description: sql.NullString{String: "Use the e-sign portal", Valid: true},
		SortOrder:   5,
	}))
	loaded, err = repo.GetChecklistByUserID(ctx, userID)
	require.NoError(t, err)
	updated := findLoadedItem(t, loaded, item.ItemID)
	assert.Equal(t, "Use the e-sign portal", updated.Description.String)
	assert.Equal(t, domain.ItemStatusInProgress, updated.Status)

	require.NoError(t, repo.TouchChecklist(ctx, checklistID))

	owned, err := repo.ListChecklistsWithOwners(ctx, domain.UserStatusApproved)
	require.NoError(t, err)
	foundOwner := false
	for _, oc := range owned {
		if oc.Owner.UserID == userID {
			foundOwner = true
			assert.Len(t, oc.Checklist.Items(), 2)
		}
	}
	assert.True(t, foundOwner)
}

func findLoadedItem(t *testing.T, c *domain.UserChecklist, itemID string) domain.UserItem {
	t.Helper()
	for _, it := range c.Items() {
		if it.ItemID == itemID {
			return it
		}
	}
	t.Fatalf("item %s not found", itemID)
	return domain.UserItem{}
}
