package insights

import (
	"fmt"
	"sort"
	"time"

	"carepath-portal/internal/domain"
)

// Risk levels, lowest to highest.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

var riskRank = map[string]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2}

// RiskProfile is the computed stall-likelihood judgment for one user.
type RiskProfile struct {
	UserID                  string     `json:"userId"`
	Name                    string     `json:"name"`
	Role                    string     `json:"role"`
	RiskLevel               string     `json:"riskLevel"`
	Factors                 []string   `json:"factors"`
	Progress                Progress   `json:"progress"`
	DaysSinceStart          int        `json:"daysSinceStart"`
	OverdueCount            int        `json:"overdueCount"`
	PredictedCompletionDate *time.Time `json:"predictedCompletionDate"`
}

// raise appends a factor and escalates the level; the level never drops.
func (p *RiskProfile) raise(level, factor string) {
	p.Factors = append(p.Factors, factor)
	if riskRank[level] > riskRank[p.RiskLevel] {
		p.RiskLevel = level
	}
}

// BuildRiskProfile applies the risk rules, in order, to one user's checklist.
func BuildRiskProfile(u *domain.User, c *domain.UserChecklist, now time.Time) RiskProfile {
	prog := CalculateProgress(c)
	days := daysBetween(c.CreatedAt, now)

	p := RiskProfile{
		UserID:         u.UserID,
		Name:           u.FullName(),
		Role:           u.Role,
		RiskLevel:      RiskLow,
		Progress:       prog,
		DaysSinceStart: days,
	}

	if days > 14 && prog.Percentage < 25 {
		p.raise(RiskHigh, "Low progress after 2+ weeks")
	} else if days > 7 && prog.Percentage < 50 {
		p.raise(RiskMedium, "Below expected progress")
	}

	overdue := 0
	recentCompletions := 0
	for _, item := range c.Items() {
		if item.DueDate.Valid && item.DueDate.Time.Before(now) && item.Status != domain.ItemStatusComplete {
			overdue++
		}
		if item.CompletedAt.Valid && now.Sub(item.CompletedAt.Time) <= 7*24*time.Hour {
			recentCompletions++
		}
	}
	p.OverdueCount = overdue
	if overdue >= 1 {
		level := RiskMedium
		if overdue >= 3 {
			level = RiskHigh
		}
		p.raise(level, fmt.Sprintf("%d overdue task(s)", overdue))
	}

	if daysBetween(c.UpdatedAt, now) > 7 && prog.Percentage < 100 {
		p.raise(RiskMedium, "No activity in last 7 days")
	}

	if days > 10 && prog.Percentage < 50 && recentCompletions == 0 {
		p.raise(RiskMedium, "No recent task completions")
	}

	p.PredictedCompletionDate = PredictCompletion(prog.Percentage, days, now)
	return p
}

// IdentifyAtRisk profiles every entry, drops users who are both low risk and
// fully complete, and sorts by risk level descending then progress ascending.
func IdentifyAtRisk(entries []Entry, now time.Time) []RiskProfile {
	out := make([]RiskProfile, 0, len(entries))
	for _, e := range entries {
		p := BuildRiskProfile(e.User, e.Checklist, now)
		if p.RiskLevel == RiskLow && p.Progress.Percentage == 100 {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if riskRank[out[i].RiskLevel] != riskRank[out[j].RiskLevel] {
			return riskRank[out[i].RiskLevel] > riskRank[out[j].RiskLevel]
		}
		return out[i].Progress.Percentage < out[j].Progress.Percentage
	})
	return out
}
