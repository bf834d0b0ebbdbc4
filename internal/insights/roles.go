package insights

import (
	"sort"
)

// RoleStats compares onboarding outcomes between roles.
type RoleStats struct {
	Role                  string  `json:"role"`
	Users                 int     `json:"users"`
	AverageProgress       float64 `json:"averageProgress"`
	AverageTasks          float64 `json:"averageTasks"`
	CompletionRate        float64 `json:"completionRate"`
	AverageDaysToComplete float64 `json:"averageDaysToComplete"`
}

// CompareRoles groups entries by role. CompletionRate is the fraction of
// users at 100%; AverageDaysToComplete is measured from checklist creation
// to the last item completion, over completers only.
func CompareRoles(entries []Entry) []RoleStats {
	type agg struct {
		users       int
		progressSum float64
		tasksSum    float64
		completers  int
		daysSum     float64
	}
	byRole := make(map[string]*agg)

	for _, e := range entries {
		a, ok := byRole[e.User.Role]
		if !ok {
			a = &agg{}
			byRole[e.User.Role] = a
		}
		prog := CalculateProgress(e.Checklist)
		a.users++
		a.progressSum += float64(prog.Percentage)
		a.tasksSum += float64(prog.Total)

		if prog.Total > 0 && prog.Percentage == 100 {
			a.completers++
			var last int64
			for _, item := range e.Checklist.Items() {
				if item.CompletedAt.Valid && item.CompletedAt.Time.Unix() > last {
					last = item.CompletedAt.Time.Unix()
				}
			}
			if last > 0 {
				a.daysSum += float64(last-e.Checklist.CreatedAt.Unix()) / 86400
			}
		}
	}

	out := make([]RoleStats, 0, len(byRole))
	for role, a := range byRole {
		s := RoleStats{
			Role:            role,
			Users:           a.users,
			AverageProgress: a.progressSum / float64(a.users),
			AverageTasks:    a.tasksSum / float64(a.users),
			CompletionRate:  float64(a.completers) / float64(a.users),
		}
		if a.completers > 0 {
			s.AverageDaysToComplete = a.daysSum / float64(a.completers)
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out
}
