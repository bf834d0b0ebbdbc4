package service

import (
	"context"
	"sort"
	"strings"

	"carepath-portal/internal/domain"
	"carepath-portal/internal/repository"

	"go.uber.org/zap"
)

// searchMinQueryLen queries shorter than this return an empty result set.
const searchMinQueryLen = 2

// searchPerTypeLimit caps how many rows each entity type contributes.
const searchPerTypeLimit = 20

// SearchService global substring search. Everyone searches their own tasks
// plus published documents and FAQs; admins additionally get users and
// template sections.
type SearchService interface {
	Search(ctx context.Context, actor domain.Actor, query string) ([]domain.SearchResult, error)
}

type searchService struct {
	searchRepo repository.SearchRepository
	logger     *zap.Logger
}

// NewSearchService creates a SearchService instance.
func NewSearchService(searchRepo repository.SearchRepository, logger *zap.Logger) SearchService {
	return &searchService{searchRepo: searchRepo, logger: logger}
}

func (s *searchService) Search(ctx context.Context, actor domain.Actor, query string) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < searchMinQueryLen {
		return []domain.SearchResult{}, nil
	}

	var results []domain.SearchResult
	collect := func(name string, rows []domain.SearchResult, err error) {
		if err != nil {
			// One failing table degrades the result set, not the request.
			s.logger.Warn("Search source failed", zap.String("source", name), zap.Error(err))
			return
		}
		results = append(results, rows...)
	}

	rows, err := s.searchRepo.SearchUserItems(ctx, actor.UserID, query, searchPerTypeLimit)
	collect("tasks", rows, err)
	rows, err = s.searchRepo.SearchDocuments(ctx, query, searchPerTypeLimit)
	collect("documents", rows, err)
	rows, err = s.searchRepo.SearchFAQs(ctx, query, searchPerTypeLimit)
	collect("faqs", rows, err)

	if actor.IsAdmin() {
		rows, err = s.searchRepo.SearchUsers(ctx, query, searchPerTypeLimit)
		collect("users", rows, err)
		rows, err = s.searchRepo.SearchSections(ctx, query, searchPerTypeLimit)
		collect("sections", rows, err)
	}

	return RankSearchResults(results, query), nil
}

// RankSearchResults orders results: exact title matches first, then prefix
// matches, then everything else, preserving source order within a band.
func RankSearchResults(results []domain.SearchResult, query string) []domain.SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	band := func(r domain.SearchResult) int {
		title := strings.ToLower(r.Title)
		switch {
		case title == q:
			return 0
		case strings.HasPrefix(title, q):
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return band(results[i]) < band(results[j])
	})
	if results == nil {
		results = []domain.SearchResult{}
	}
	return results
}
