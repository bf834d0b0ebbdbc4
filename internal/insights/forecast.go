package insights

import (
	"math"
	"sort"
	"time"
)

// Forecast confidence tiers.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Forecast is a linear-rate completion projection for one user.
type Forecast struct {
	UserID                  string     `json:"userId"`
	Name                    string     `json:"name"`
	Role                    string     `json:"role"`
	Progress                Progress   `json:"progress"`
	DaysSinceStart          int        `json:"daysSinceStart"`
	PredictedCompletionDate *time.Time `json:"predictedCompletionDate"`
	Confidence              string     `json:"confidence"`
}

// PredictCompletion projects the completion date assuming the observed
// percent-per-day rate holds. Returns nil for brand-new, stalled, or already
// finished users — never a NaN/Inf date.
func PredictCompletion(percentage, daysSinceStart int, now time.Time) *time.Time {
	if percentage <= 0 || percentage >= 100 || daysSinceStart <= 0 {
		return nil
	}
	rate := float64(percentage) / float64(daysSinceStart)
	if rate <= 0 {
		return nil
	}
	remaining := int(math.Ceil(float64(100-percentage) / rate))
	t := now.AddDate(0, 0, remaining)
	return &t
}

// ForecastCompletions projects every entry and sorts by predicted date
// ascending with nil predictions last.
func ForecastCompletions(entries []Entry, now time.Time) []Forecast {
	out := make([]Forecast, 0, len(entries))
	for _, e := range entries {
		prog := CalculateProgress(e.Checklist)
		days := daysBetween(e.Checklist.CreatedAt, now)

		f := Forecast{
			UserID:                  e.User.UserID,
			Name:                    e.User.FullName(),
			Role:                    e.User.Role,
			Progress:                prog,
			DaysSinceStart:          days,
			PredictedCompletionDate: PredictCompletion(prog.Percentage, days, now),
			Confidence:              ConfidenceLow,
		}
		switch {
		case days >= 7 && prog.Percentage >= 25:
			f.Confidence = ConfidenceHigh
		case days >= 3 && prog.Percentage >= 10:
			f.Confidence = ConfidenceMedium
		}
		out = append(out, f)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].PredictedCompletionDate, out[j].PredictedCompletionDate
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})
	return out
}

// daysBetween is the whole number of days from start to now, floored.
func daysBetween(start, now time.Time) int {
	if !now.After(start) {
		return 0
	}
	return int(now.Sub(start).Hours() / 24)
}
