package service

import (
	"context"
	"time"

	"carepath-portal/internal/domain"
	"carepath-portal/internal/insights"
	"carepath-portal/internal/repository"

	"go.uber.org/zap"
)

// InsightsService exposes the admin analytics: at-risk users, completion
// forecasts, bottleneck ranking and role comparison. All of it is computed
// in memory from approved users' checklists; nothing is persisted.
type InsightsService interface {
	IdentifyAtRiskUsers(ctx context.Context, actor domain.Actor) ([]insights.RiskProfile, error)
	ForecastCompletions(ctx context.Context, actor domain.Actor) ([]insights.Forecast, error)
	RankBottlenecks(ctx context.Context, actor domain.Actor) ([]insights.Bottleneck, error)
	CompareRoles(ctx context.Context, actor domain.Actor) ([]insights.RoleStats, error)
}

type insightsService struct {
	checklistsRepo repository.ChecklistsRepository
	logger         *zap.Logger
	now            func() time.Time
}

// NewInsightsService creates an InsightsService instance.
func NewInsightsService(checklistsRepo repository.ChecklistsRepository, logger *zap.Logger) InsightsService {
	return &insightsService{
		checklistsRepo: checklistsRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// loadEntries fetches every approved user's checklist tree.
func (s *insightsService) loadEntries(ctx context.Context, actor domain.Actor) ([]insights.Entry, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	owned, err := s.checklistsRepo.ListChecklistsWithOwners(ctx, domain.UserStatusApproved)
	if err != nil {
		return nil, err
	}
	entries := make([]insights.Entry, 0, len(owned))
	for _, oc := range owned {
		entries = append(entries, insights.Entry{User: oc.Owner, Checklist: oc.Checklist})
	}
	return entries, nil
}

func (s *insightsService) IdentifyAtRiskUsers(ctx context.Context, actor domain.Actor) ([]insights.RiskProfile, error) {
	entries, err := s.loadEntries(ctx, actor)
	if err != nil {
		return nil, err
	}
	return insights.IdentifyAtRisk(entries, s.now()), nil
}

func (s *insightsService) ForecastCompletions(ctx context.Context, actor domain.Actor) ([]insights.Forecast, error) {
	entries, err := s.loadEntries(ctx, actor)
	if err != nil {
		return nil, err
	}
	return insights.ForecastCompletions(entries, s.now()), nil
}

func (s *insightsService) RankBottlenecks(ctx context.Context, actor domain.Actor) ([]insights.Bottleneck, error) {
	entries, err := s.loadEntries(ctx, actor)
	if err != nil {
		return nil, err
	}
	return insights.RankBottlenecks(entries), nil
}

func (s *insightsService) CompareRoles(ctx context.Context, actor domain.Actor) ([]insights.RoleStats, error) {
	entries, err := s.loadEntries(ctx, actor)
	if err != nil {
		return nil, err
	}
	return insights.CompareRoles(entries), nil
}
