package service

import (
	"context"
	"testing"

	"carepath-portal/internal/domain"
	"carepath-portal/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func searchFixture(t *testing.T) (*searchService, *repository.MemoryContentRepo) {
	t.Helper()
	users := repository.NewMemoryUsersRepo()
	checklists := repository.NewMemoryChecklistsRepo(users)
	content := repository.NewMemoryContentRepo()
	repo := repository.NewMemorySearchRepo(users, checklists, content)
	return &searchService{searchRepo: repo, logger: zap.NewNop()}, content
}

func TestSearchShortQueryReturnsEmpty(t *testing.T) {
	svc, _ := searchFixture(t)
	results, err := svc.Search(context.Background(), domain.Actor{UserID: "u1"}, " h ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchFindsPublishedContentOnly(t *testing.T) {
	svc, content := searchFixture(t)
	ctx := context.Background()

	_, err := content.CreateFAQ(ctx, &domain.FAQ{Question: "How do I request PTO?", Answer: "Use the portal.", Published: true})
	require.NoError(t, err)
	_, err = content.CreateFAQ(ctx, &domain.FAQ{Question: "Draft PTO policy changes", Answer: "TBD", Published: false})
	require.NoError(t, err)

	results, err := svc.Search(ctx, domain.Actor{UserID: "u1", Role: "RN"}, "PTO")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.SearchTypeFAQ, results[0].Type)
	assert.Equal(t, "How do I request PTO?", results[0].Title)
}

func TestRankSearchResultsBands(t *testing.T) {
	in := []domain.SearchResult{
		{Title: "Benefits enrollment FAQ"},
		{Title: "Benefits"},
		{Title: "Benefits overview"},
		{Title: "Enroll in benefits"},
	}
	out := RankSearchResults(in, "benefits")

	require.Len(t, out, 4)
	// Exact match first, then prefix matches in input order, then the rest.
	assert.Equal(t, "Benefits", out[0].Title)
	assert.Equal(t, "Benefits enrollment FAQ", out[1].Title)
	assert.Equal(t, "Benefits overview", out[2].Title)
	assert.Equal(t, "Enroll in benefits", out[3].Title)
}
