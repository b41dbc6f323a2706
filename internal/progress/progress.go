// Package progress turns a user's selected tasks into dashboard statistics.
//
// HOW IT WORKS:
// Summarize counts completed tasks, computes a whole-number percentage, and
// then scans three threshold tables (color, badge, message) from the highest
// cutoff down. The first tier whose Min is <= the percentage wins. The tables
// are plain data on the Aggregator so each one can be tuned on its own.
//
// Nothing here touches I/O. The same function backs the JSON API, the
// server-rendered dashboard and the admin CLI.
package progress

import (
	"sort"

	"github.com/sakif/learning-tracker/internal/model"
)

// RecentLimit is how many tasks the "recent activity" list shows.
const RecentLimit = 3

// Tier maps a minimum percentage to a label.
type Tier struct {
	Min   int
	Label string
}

// Table is an ordered threshold table. Fallback applies when no tier matches.
type Table struct {
	Tiers    []Tier
	Fallback string
}

// Pick returns the label of the highest tier whose Min is <= pct.
func (t Table) Pick(pct int) string {
	// Copy before sorting so callers can declare tiers in any order
	// without Pick mutating shared state.
	tiers := make([]Tier, len(t.Tiers))
	copy(tiers, t.Tiers)
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Min > tiers[j].Min })

	for _, tier := range tiers {
		if pct >= tier.Min {
			return tier.Label
		}
	}
	return t.Fallback
}

// Color buckets used by the progress bar.
const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorOrange = "orange"
	ColorRed    = "red"
)

// Aggregator holds the three independent threshold tables.
type Aggregator struct {
	Colors   Table
	Badges   Table
	Messages Table
}

// Default returns the tables the dashboard ships with. Color stops at 40,
// while badges and messages both have a 20% tier.
func Default() Aggregator {
	return Aggregator{
		Colors: Table{
			Tiers: []Tier{
				{Min: 80, Label: ColorGreen},
				{Min: 60, Label: ColorYellow},
				{Min: 40, Label: ColorOrange},
			},
			Fallback: ColorRed,
		},
		Badges: Table{
			Tiers: []Tier{
				{Min: 80, Label: "Master Learner"},
				{Min: 60, Label: "Advanced Learner"},
				{Min: 40, Label: "Intermediate Learner"},
				{Min: 20, Label: "Beginner Learner"},
			},
			Fallback: "New Learner",
		},
		Messages: Table{
			Tiers: []Tier{
				{Min: 80, Label: "You're almost there! Great job on your learning journey."},
				{Min: 60, Label: "You're making excellent progress! Keep up the momentum."},
				{Min: 40, Label: "Great start! Every completed task brings you closer to your goals."},
				{Min: 20, Label: "Keep going! Every step forward counts."},
			},
			Fallback: "The journey of a thousand miles begins with a single step. You've got this!",
		},
	}
}

// Summary is the aggregated view of a task list.
type Summary struct {
	Total      int          `json:"total"`
	Completed  int          `json:"completedCount"`
	Remaining  int          `json:"remainingCount"`
	Percentage int          `json:"percentage"`
	Color      string       `json:"colorBucket"`
	Badge      string       `json:"badgeLabel"`
	Message    string       `json:"message"`
	Recent     []model.Task `json:"recent"`
}

// Empty reports whether the user has not selected any task yet.
func (s Summary) Empty() bool { return s.Total == 0 }

// ShowBadge reports whether the badge and message should be displayed.
// Both stay hidden until at least one task is done.
func (s Summary) ShowBadge() bool { return s.Percentage > 0 }

// Summarize aggregates tasks. tasks is expected in display order (by day);
// Recent takes the first RecentLimit of them.
func (a Aggregator) Summarize(tasks []model.Task) Summary {
	total := len(tasks)
	if total == 0 {
		return Summary{Recent: []model.Task{}}
	}

	completed := 0
	for _, t := range tasks {
		if t.IsCompleted {
			completed++
		}
	}
	pct := Percentage(completed, total)

	n := total
	if n > RecentLimit {
		n = RecentLimit
	}
	recent := make([]model.Task, n)
	copy(recent, tasks[:n])

	s := Summary{
		Total:      total,
		Completed:  completed,
		Remaining:  total - completed,
		Percentage: pct,
		Color:      a.Colors.Pick(pct),
		Recent:     recent,
	}
	// At 0% there is no badge or message to show, for HTML and JSON alike.
	if s.ShowBadge() {
		s.Badge = a.Badges.Pick(pct)
		s.Message = a.Messages.Pick(pct)
	}
	return s
}

// Summarize uses the default tables.
func Summarize(tasks []model.Task) Summary {
	return Default().Summarize(tasks)
}

// Percentage returns completed/total*100 rounded half-up, or 0 when total is 0.
// Integer arithmetic keeps 1/8 = 12.5 -> 13 exact.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}
	return (completed*200 + total) / (2 * total)
}
