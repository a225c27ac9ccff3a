package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/goal"
)

// EventFilter narrows event queries. Zero-value fields do not constrain the
// result.
type EventFilter struct {
	Types       []event.Type
	StartsAfter *time.Time
	EndsBefore  *time.Time
	ClientID    string
	SeriesID    string
	// Query matches case-insensitively against title, description, notes,
	// location and client name.
	Query string
}

// EventRepository stores unified calendar events.
type EventRepository interface {
	CreateEvent(ctx context.Context, ev event.Event) (event.Event, error)
	GetEvent(ctx context.Context, id string) (event.Event, error)
	UpdateEvent(ctx context.Context, ev event.Event) (event.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	// DeleteEvents removes the given ids atomically. Any failure aborts the
	// whole batch with a *BatchDeleteError and leaves the store untouched.
	DeleteEvents(ctx context.Context, ids []string) error
	ListEvents(ctx context.Context, filter EventFilter) ([]event.Event, error)
}

// GoalRepository stores goals and their milestones. Deleting a goal
// cascades to its milestones.
type GoalRepository interface {
	CreateGoal(ctx context.Context, g goal.Goal) (goal.Goal, error)
	GetGoal(ctx context.Context, id string) (goal.Goal, error)
	UpdateGoal(ctx context.Context, g goal.Goal) (goal.Goal, error)
	DeleteGoal(ctx context.Context, id string) error
	ListGoals(ctx context.Context) ([]goal.Goal, error)

	CreateMilestone(ctx context.Context, m goal.Milestone) (goal.Milestone, error)
	GetMilestone(ctx context.Context, id string) (goal.Milestone, error)
	UpdateMilestone(ctx context.Context, m goal.Milestone) (goal.Milestone, error)
	DeleteMilestone(ctx context.Context, id string) error
	ListMilestonesForGoal(ctx context.Context, goalID string) ([]goal.Milestone, error)
}

// MatchesQuery reports whether the event satisfies the free-text query of a
// filter. Shared by the in-memory and SQLite adapters so search semantics
// stay identical.
func MatchesQuery(ev event.Event, query string) bool {
	if query == "" {
		return true
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	for _, haystack := range []string{ev.Title, ev.Description, ev.Notes, ev.Location, ev.ClientName} {
		if haystack == "" {
			continue
		}
		if strings.Contains(strings.ToLower(haystack), needle) {
			return true
		}
	}
	return false
}
