package insights

import (
	"sort"

	"carepath-portal/internal/domain"
)

// bottleneckMinAssignments filters out keys with too few samples to rank.
const bottleneckMinAssignments = 3

// bottleneckLimit caps the ranking output.
const bottleneckLimit = 10

// Bottleneck aggregates one (section title, item title) key across all
// checklists it was cloned into.
type Bottleneck struct {
	SectionTitle          string  `json:"sectionTitle"`
	ItemTitle             string  `json:"itemTitle"`
	Total                 int     `json:"total"`
	Completed             int     `json:"completed"`
	InProgress            int     `json:"inProgress"`
	NotStarted            int     `json:"notStarted"`
	CompletionRate        float64 `json:"completionRate"`
	AverageDaysToComplete float64 `json:"averageDaysToComplete"`
}

// RankBottlenecks finds the template tasks that are systematically slow or
// commonly abandoned: lowest completion rate first, slowest first within a
// rate, top 10, keys with fewer than 3 assignments dropped as noise.
func RankBottlenecks(entries []Entry) []Bottleneck {
	type agg struct {
		b       Bottleneck
		daysSum float64
		daysN   int
	}
	byKey := make(map[string]*agg)
	var order []string

	for _, e := range entries {
		for _, section := range e.Checklist.Sections {
			for _, item := range section.Items {
				key := section.Title + "\x00" + item.Title
				a, ok := byKey[key]
				if !ok {
					a = &agg{b: Bottleneck{SectionTitle: section.Title, ItemTitle: item.Title}}
					byKey[key] = a
					order = append(order, key)
				}
				a.b.Total++
				switch item.Status {
				case domain.ItemStatusComplete:
					a.b.Completed++
					if item.CompletedAt.Valid {
						a.daysSum += item.CompletedAt.Time.Sub(item.CreatedAt).Hours() / 24
						a.daysN++
					}
				case domain.ItemStatusInProgress:
					a.b.InProgress++
				default:
					a.b.NotStarted++
				}
			}
		}
	}

	out := make([]Bottleneck, 0, len(order))
	for _, key := range order {
		a := byKey[key]
		if a.b.Total < bottleneckMinAssignments {
			continue
		}
		a.b.CompletionRate = float64(a.b.Completed) / float64(a.b.Total) * 100
		if a.daysN > 0 {
			a.b.AverageDaysToComplete = a.daysSum / float64(a.daysN)
		}
		out = append(out, a.b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CompletionRate != out[j].CompletionRate {
			return out[i].CompletionRate < out[j].CompletionRate
		}
		return out[i].AverageDaysToComplete > out[j].AverageDaysToComplete
	})

	if len(out) > bottleneckLimit {
		out = out[:bottleneckLimit]
	}
	return out
}
