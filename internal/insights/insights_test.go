package insights

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"carepath-portal/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// makeChecklist builds a one-section checklist with len(statuses) items.
func makeChecklist(createdAt time.Time, statuses ...string) *domain.UserChecklist {
	c := &domain.UserChecklist{
		ChecklistID: "cl-1",
		UserID:      "u-1",
		Role:        "RN",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	section := domain.UserSection{SectionID: "s-1", ChecklistID: c.ChecklistID, Title: "Orientation"}
	for i, status := range statuses {
		item := domain.UserItem{
			ItemID:    fmt.Sprintf("i-%d", i),
			SectionID: section.SectionID,
			StableKey: domain.DeriveStableKey(section.Title, fmt.Sprintf("Task %d", i)),
			Title:     fmt.Sprintf("Task %d", i),
			Status:    status,
			CreatedAt: createdAt,
		}
		if status == domain.ItemStatusComplete {
			item.CompletedAt = sql.NullTime{Time: createdAt.Add(48 * time.Hour), Valid: true}
		}
		section.Items = append(section.Items, item)
	}
	c.Sections = []domain.UserSection{section}
	return c
}

func makeUser(id, role string) *domain.User {
	return &domain.User{
		UserID:    id,
		Email:     id + "@carepath.local",
		FirstName: "Test",
		LastName:  id,
		Role:      role,
		Status:    domain.UserStatusApproved,
	}
}

func TestCalculateProgress_CountsAddUp(t *testing.T) {
	c := makeChecklist(testNow.AddDate(0, 0, -10),
		domain.ItemStatusComplete,
		domain.ItemStatusComplete,
		domain.ItemStatusInProgress,
		domain.ItemStatusNotStarted,
	)

	p := CalculateProgress(c)
	assert.Equal(t, 4, p.Total)
	assert.Equal(t, 2, p.Completed)
	assert.Equal(t, 1, p.InProgress)
	assert.Equal(t, 1, p.NotStarted)
	assert.Equal(t, p.Total, p.Completed+p.InProgress+p.NotStarted)
	assert.Equal(t, 50, p.Percentage)
}

func TestCalculateProgress_EmptyChecklist(t *testing.T) {
	c := makeChecklist(testNow)
	p := CalculateProgress(c)
	assert.Equal(t, 0, p.Total)
	assert.Equal(t, 0, p.Percentage)
}

func TestCalculateProgress_PercentageRounds(t *testing.T) {
	c := makeChecklist(testNow,
		domain.ItemStatusComplete,
		domain.ItemStatusNotStarted,
		domain.ItemStatusNotStarted,
	)
	// 1/3 = 33.33 -> 33
	assert.Equal(t, 33, CalculateProgress(c).Percentage)
}

func TestPredictCompletion_NeverDividesByZero(t *testing.T) {
	assert.Nil(t, PredictCompletion(0, 10, testNow))   // no progress -> no rate
	assert.Nil(t, PredictCompletion(50, 0, testNow))   // day zero
	assert.Nil(t, PredictCompletion(100, 10, testNow)) // already done
}

func TestPredictCompletion_LinearRate(t *testing.T) {
	// 40% in 10 days = 4%/day, 60% remaining -> 15 days out.
	got := PredictCompletion(40, 10, testNow)
	require.NotNil(t, got)
	assert.Equal(t, testNow.AddDate(0, 0, 15), *got)
}

func TestBuildRiskProfile_StalledUserIsHigh(t *testing.T) {
	c := makeChecklist(testNow.AddDate(0, 0, -20),
		domain.ItemStatusComplete,
		domain.ItemStatusNotStarted,
		domain.ItemStatusNotStarted,
		domain.ItemStatusNotStarted,
		domain.ItemStatusNotStarted,
	)
	p := BuildRiskProfile(makeUser("u-1", "RN"), c, testNow)

	assert.Equal(t, RiskHigh, p.RiskLevel)
	assert.Contains(t, p.Factors, "Low progress after 2+ weeks")
	// Stale updatedAt also trips the activity rule.
	assert.Contains(t, p.Factors, "No activity in last 7 days")
}

func TestBuildRiskProfile_FourOverdueIsAlwaysHigh(t *testing.T) {
	c := makeChecklist(testNow.AddDate(0, 0, -2),
		domain.ItemStatusNotStarted,
		domain.ItemStatusNotStarted,
		domain.ItemStatusNotStarted,
		domain.ItemStatusNotStarted,
	)
	for i := range c.Sections[0].Items {
		c.Sections[0].Items[i].DueDate = sql.NullTime{Time: testNow.AddDate(0, 0, -1), Valid: true}
	}
	c.UpdatedAt = testNow

	p := BuildRiskProfile(makeUser("u-1", "RN"), c, testNow)
	assert.Equal(t, RiskHigh, p.RiskLevel)
	assert.Equal(t, 4, p.OverdueCount)
	assert.Contains(t, p.Factors, "4 overdue task(s)")
}

func TestBuildRiskProfile_RiskNeverLowers(t *testing.T) {
	// High from the progress rule, then only medium-grade factors follow.
	c := makeChecklist(testNow.AddDate(0, 0, -16),
		domain.ItemStatusNotStarted,
		domain.ItemStatusNotStarted,
	)
	c.Sections[0].Items[0].DueDate = sql.NullTime{Time: testNow.AddDate(0, 0, -1), Valid: true}

	p := BuildRiskProfile(makeUser("u-1", "RN"), c, testNow)
	assert.Equal(t, RiskHigh, p.RiskLevel)
	assert.True(t, len(p.Factors) >= 2)
}

func TestIdentifyAtRisk_ExcludesFinishedLowRiskUsers(t *testing.T) {
	done := makeChecklist(testNow.AddDate(0, 0, -5),
		domain.ItemStatusComplete,
		domain.ItemStatusComplete,
	)
	done.UpdatedAt = testNow
	stalled := makeChecklist(testNow.AddDate(0, 0, -20),
		domain.ItemStatusNotStarted,
		domain.ItemStatusNotStarted,
	)

	got := IdentifyAtRisk([]Entry{
		{User: makeUser("done", "RN"), Checklist: done},
		{User: makeUser("stalled", "CNA"), Checklist: stalled},
	}, testNow)

	require.Len(t, got, 1)
	assert.Equal(t, "stalled", got[0].UserID)
}

func TestIdentifyAtRisk_SortsByRiskThenProgress(t *testing.T) {
	mkEntry := func(id string, createdDaysAgo int, statuses ...string) Entry {
		c := makeChecklist(testNow.AddDate(0, 0, -createdDaysAgo), statuses...)
		c.UpdatedAt = testNow
		return Entry{User: makeUser(id, "RN"), Checklist: c}
	}

	// high (0%), medium (25% after 8+ days), medium with less progress (0%)
	high := mkEntry("high", 20, domain.ItemStatusNotStarted, domain.ItemStatusNotStarted)
	medium := mkEntry("medium", 8,
		domain.ItemStatusComplete, domain.ItemStatusNotStarted,
		domain.ItemStatusNotStarted, domain.ItemStatusNotStarted)
	mediumWorse := mkEntry("medium-worse", 8, domain.ItemStatusNotStarted, domain.ItemStatusNotStarted)

	got := IdentifyAtRisk([]Entry{medium, high, mediumWorse}, testNow)
	require.Len(t, got, 3)
	assert.Equal(t, "high", got[0].UserID)
	assert.Equal(t, "medium-worse", got[1].UserID)
	assert.Equal(t, "medium", got[2].UserID)
}

func TestForecastCompletions_ConfidenceTiers(t *testing.T) {
	highConf := Entry{User: makeUser("a", "RN"), Checklist: makeChecklist(testNow.AddDate(0, 0, -10),
		domain.ItemStatusComplete, domain.ItemStatusComplete, domain.ItemStatusNotStarted, domain.ItemStatusNotStarted)}
	lowConf := Entry{User: makeUser("b", "RN"), Checklist: makeChecklist(testNow,
		domain.ItemStatusNotStarted, domain.ItemStatusNotStarted)}

	got := ForecastCompletions([]Entry{lowConf, highConf}, testNow)
	require.Len(t, got, 2)

	// Dated prediction sorts before the nil one.
	assert.Equal(t, "a", got[0].UserID)
	assert.Equal(t, ConfidenceHigh, got[0].Confidence)
	require.NotNil(t, got[0].PredictedCompletionDate)

	assert.Equal(t, "b", got[1].UserID)
	assert.Equal(t, ConfidenceLow, got[1].Confidence)
	assert.Nil(t, got[1].PredictedCompletionDate)
}

func TestRankBottlenecks_FiltersAndSorts(t *testing.T) {
	// "Task 0" completed by everyone quickly, "Task 1" stuck for everyone.
	var entries []Entry
	for i := 0; i < 3; i++ {
		c := makeChecklist(testNow.AddDate(0, 0, -10),
			domain.ItemStatusComplete,
			domain.ItemStatusNotStarted,
		)
		entries = append(entries, Entry{User: makeUser(fmt.Sprintf("u-%d", i), "RN"), Checklist: c})
	}
	// A key with only one assignment must be filtered out.
	rare := makeChecklist(testNow.AddDate(0, 0, -10), domain.ItemStatusNotStarted)
	rare.Sections[0].Items[0].Title = "Rare Task"
	entries = append(entries, Entry{User: makeUser("u-rare", "RN"), Checklist: rare})

	got := RankBottlenecks(entries)
	require.Len(t, got, 2)
	assert.Equal(t, "Task 1", got[0].ItemTitle)
	assert.Equal(t, float64(0), got[0].CompletionRate)
	assert.Equal(t, "Task 0", got[1].ItemTitle)
	assert.InDelta(t, 100, got[1].CompletionRate, 0.001)
	assert.InDelta(t, 2, got[1].AverageDaysToComplete, 0.001)
}

func TestCompareRoles(t *testing.T) {
	rnDone := makeChecklist(testNow.AddDate(0, 0, -10),
		domain.ItemStatusComplete, domain.ItemStatusComplete)
	rnHalf := makeChecklist(testNow.AddDate(0, 0, -10),
		domain.ItemStatusComplete, domain.ItemStatusNotStarted)
	cna := makeChecklist(testNow.AddDate(0, 0, -5), domain.ItemStatusNotStarted)

	got := CompareRoles([]Entry{
		{User: makeUser("u-1", "RN"), Checklist: rnDone},
		{User: makeUser("u-2", "RN"), Checklist: rnHalf},
		{User: makeUser("u-3", "CNA"), Checklist: cna},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "CNA", got[0].Role)
	assert.Equal(t, "RN", got[1].Role)

	rn := got[1]
	assert.Equal(t, 2, rn.Users)
	assert.InDelta(t, 75, rn.AverageProgress, 0.001)
	assert.InDelta(t, 2, rn.AverageTasks, 0.001)
	assert.InDelta(t, 0.5, rn.CompletionRate, 0.001)
	// Completer finished its last item 2 days after the checklist was created.
	assert.InDelta(t, 2, rn.AverageDaysToComplete, 0.001)
}
