// Package goal holds the goal and milestone entities and the pure progress
// analytics over them: velocity over a trailing window, completion
// estimation and risk classification. Persistence and dependency lookups
// live in the application layer; everything here operates on snapshots.
package goal

import (
	"time"

	"github.com/example/calendar-core/internal/event"
)

// Status tracks the lifecycle of a goal or milestone.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusOverdue    Status = "overdue"
)

// ProgressEntry is one immutable record in a goal's progress history. The
// history is append-only; entries are never edited or removed.
type ProgressEntry struct {
	Date      time.Time
	Progress  int
	Notes     string
	TimeSpent int // minutes
}

// Goal is a tracked objective with a measurable target.
type Goal struct {
	ID           string
	Title        string
	Category     string
	Timeframe    event.Timeframe
	Priority     event.Priority
	Status       Status
	Progress     int // 0-100
	TargetValue  float64
	CurrentValue float64
	Start        time.Time
	End          time.Time
	Dependencies []string
	MilestoneIDs []string
	History      []ProgressEntry
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Milestone is a dated checkpoint belonging to exactly one goal.
type Milestone struct {
	ID           string
	GoalID       string
	Title        string
	Due          time.Time
	Progress     int
	Status       Status
	Dependencies []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a deep copy of the goal.
func (g Goal) Clone() Goal {
	out := g
	if g.Dependencies != nil {
		out.Dependencies = append([]string(nil), g.Dependencies...)
	}
	if g.MilestoneIDs != nil {
		out.MilestoneIDs = append([]string(nil), g.MilestoneIDs...)
	}
	if g.History != nil {
		out.History = append([]ProgressEntry(nil), g.History...)
	}
	return out
}

// Clone returns a deep copy of the milestone.
func (m Milestone) Clone() Milestone {
	out := m
	if m.Dependencies != nil {
		out.Dependencies = append([]string(nil), m.Dependencies...)
	}
	return out
}

// DeriveStatus computes the goal status after a progress write. Completion
// is terminal: a completed goal never demotes to overdue or in-progress
// unless the caller explicitly resets it. Overdue is re-evaluated against
// the current clock on every derivation, never latched.
func DeriveStatus(previous Status, progress int, end time.Time, now time.Time) Status {
	if previous == StatusCompleted || progress >= 100 {
		return StatusCompleted
	}
	if !end.IsZero() && now.After(end) {
		return StatusOverdue
	}
	if progress > 0 {
		return StatusInProgress
	}
	return StatusNotStarted
}

// ToEvent projects the goal onto the unified calendar model for display.
func (g Goal) ToEvent() event.Event {
	progress := g.Progress
	target := 100
	return event.Event{
		ID:              g.ID,
		Type:            event.TypeGoal,
		Title:           g.Title,
		Start:           g.Start,
		End:             g.End,
		Priority:        g.Priority,
		GoalTimeframe:   g.Timeframe,
		ProgressTarget:  &target,
		CurrentProgress: &progress,
		Dependencies:    append([]string(nil), g.Dependencies...),
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
}

// ToEvent projects the milestone onto the unified calendar model. The due
// instant renders as a zero-duration marker.
func (m Milestone) ToEvent() event.Event {
	progress := m.Progress
	return event.Event{
		ID:              m.ID,
		Type:            event.TypeMilestone,
		Title:           m.Title,
		Start:           m.Due,
		Duration:        0,
		Priority:        event.PriorityMedium,
		CurrentProgress: &progress,
		Dependencies:    append([]string(nil), m.Dependencies...),
		Metadata:        map[string]any{"goalId": m.GoalID},
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
