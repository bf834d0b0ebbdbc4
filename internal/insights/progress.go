// Package insights derives non-persisted read models (progress, risk,
// forecasts, bottlenecks, role comparisons) from loaded checklists. Every
// function here is pure: callers supply the data and the clock.
package insights

import (
	"math"

	"carepath-portal/internal/domain"
)

// Progress is the status breakdown of one checklist.
type Progress struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	NotStarted int `json:"notStarted"`
	Percentage int `json:"percentage"`
}

// Entry pairs a checklist with its owner for the aggregate calculators.
type Entry struct {
	User      *domain.User
	Checklist *domain.UserChecklist
}

// CalculateProgress flattens the checklist and counts items by status.
// Percentage is round(completed/total*100), 0 for an empty checklist.
func CalculateProgress(c *domain.UserChecklist) Progress {
	var p Progress
	for _, item := range c.Items() {
		p.Total++
		switch item.Status {
		case domain.ItemStatusComplete:
			p.Completed++
		case domain.ItemStatusInProgress:
			p.InProgress++
		default:
			p.NotStarted++
		}
	}
	if p.Total > 0 {
		p.Percentage = int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
	}
	return p
}
