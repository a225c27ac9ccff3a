package application

import (
	"time"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/goal"
	"github.com/example/calendar-core/internal/recurrence"
)

// EventInput captures caller provided event fields for create operations.
type EventInput struct {
	Type            event.Type
	Title           string
	Description     string
	Notes           string
	Location        string
	Start           time.Time
	End             time.Time
	Duration        int
	Priority        event.Priority
	ClientID        string
	ClientName      string
	GoalTimeframe   event.Timeframe
	ProgressTarget  *int
	CurrentProgress *int
	Dependencies    []string
	Metadata        map[string]any
}

// EventPatch carries a partial update; nil fields leave the stored value
// untouched.
type EventPatch struct {
	Title           *string
	Description     *string
	Notes           *string
	Location        *string
	Start           *time.Time
	End             *time.Time
	Duration        *int
	Priority        *event.Priority
	ClientID        *string
	ClientName      *string
	GoalTimeframe   *event.Timeframe
	ProgressTarget  *int
	CurrentProgress *int
	Dependencies    []string
	Metadata        map[string]any
}

// ListPeriod identifies the range preset requested for event listings.
type ListPeriod string

const (
	// ListPeriodNone indicates no preset; caller supplied explicit bounds.
	ListPeriodNone ListPeriod = ""
	// ListPeriodDay constrains results to a single day.
	ListPeriodDay ListPeriod = "day"
	// ListPeriodWeek constrains results to the Sunday-start week containing the reference time.
	ListPeriodWeek ListPeriod = "week"
	// ListPeriodMonth constrains results to the month containing the reference time.
	ListPeriodMonth ListPeriod = "month"
)

// ListEventsParams narrows event listings.
type ListEventsParams struct {
	Period          ListPeriod
	PeriodReference time.Time
	StartsAfter     *time.Time
	EndsBefore      *time.Time
	Types           []event.Type
	ClientID        string
	SeriesID        string
	Query           string
}

// CreateSeriesParams wraps the anchor event and the recurrence rule for
// series creation.
type CreateSeriesParams struct {
	Input EventInput
	Rule  recurrence.Rule
}

// DependencyAdvisory reports dependency problems for an item. Missing ids
// do not resolve to any stored event; blocking ids resolve to events that
// are not yet complete.
type DependencyAdvisory struct {
	MissingIDs  []string
	BlockingIDs []string
}

// Clear reports whether no dependency problems were found.
func (a DependencyAdvisory) Clear() bool {
	return len(a.MissingIDs) == 0 && len(a.BlockingIDs) == 0
}

// GoalInput captures caller provided goal fields.
type GoalInput struct {
	Title        string
	Category     string
	Timeframe    event.Timeframe
	Priority     event.Priority
	TargetValue  float64
	Start        time.Time
	End          time.Time
	Dependencies []string
}

// ProgressUpdate records one progress data point against a goal.
type ProgressUpdate struct {
	Progress  int
	Notes     string
	TimeSpent int
	Date      time.Time
}

// MilestoneInput captures caller provided milestone fields.
type MilestoneInput struct {
	GoalID       string
	Title        string
	Due          time.Time
	Dependencies []string
}

// GoalInsights bundles the analytics derived from a goal's progress history.
type GoalInsights struct {
	Velocity            float64
	EstimatedCompletion *time.Time
	Risk                goal.Risk
}

func computePeriodRange(period ListPeriod, reference time.Time) (time.Time, time.Time) {
	switch period {
	case ListPeriodDay:
		start := startOfDay(reference)
		return start, start.AddDate(0, 0, 1)
	case ListPeriodWeek:
		start := startOfWeek(reference)
		return start, start.AddDate(0, 0, 7)
	case ListPeriodMonth:
		start := startOfMonth(reference)
		return start, start.AddDate(0, 1, 0)
	default:
		return time.Time{}, time.Time{}
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns midnight of the Sunday on or before t, matching the
// week convention used by recurrence expansion and day grids.
func startOfWeek(t time.Time) time.Time {
	start := startOfDay(t)
	return start.AddDate(0, 0, -int(start.Weekday()))
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
