// Package event defines the unified calendar event model shared by every
// component of the scheduling core. An Event covers four semantically
// different kinds (plain events, tasks, goals, milestones) distinguished by
// the Type discriminant; goal-specific fields are only meaningful when the
// discriminant says so.
package event

import "time"

// Type discriminates the kind of a unified event.
type Type string

const (
	// TypeEvent is a plain calendar appointment.
	TypeEvent Type = "event"
	// TypeTask is an actionable item placed on the calendar.
	TypeTask Type = "task"
	// TypeGoal is a goal projected onto the calendar for display.
	TypeGoal Type = "goal"
	// TypeMilestone is a goal milestone projected onto the calendar.
	TypeMilestone Type = "milestone"
)

// KnownTypes lists every valid event type.
var KnownTypes = []Type{TypeEvent, TypeTask, TypeGoal, TypeMilestone}

// Valid reports whether the type is one of the known discriminants.
func (t Type) Valid() bool {
	switch t {
	case TypeEvent, TypeTask, TypeGoal, TypeMilestone:
		return true
	}
	return false
}

// Priority orders events for conflict severity and sorting.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank returns the position of the priority in the low<medium<high<urgent
// total order. Unknown priorities rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

// Valid reports whether the priority is one of the known levels.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Timeframe scopes a goal to a planning horizon.
type Timeframe string

const (
	TimeframeDaily     Timeframe = "daily"
	TimeframeWeekly    Timeframe = "weekly"
	TimeframeMonthly   Timeframe = "monthly"
	TimeframeQuarterly Timeframe = "quarterly"
	TimeframeYearly    Timeframe = "yearly"
	TimeframeCustom    Timeframe = "custom"
)

// Valid reports whether the timeframe is one of the known horizons.
func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly, TimeframeQuarterly, TimeframeYearly, TimeframeCustom:
		return true
	}
	return false
}

// DefaultDurationMinutes applies when an event carries neither an explicit
// end nor a duration.
const DefaultDurationMinutes = 60

// Event is the unified calendar entity. Start and End carry wall-clock
// instants; End may be zero, in which case the effective end derives from
// Start plus Duration. CreatedAt and UpdatedAt are maintained by the event
// service only.
type Event struct {
	ID              string
	Type            Type
	Title           string
	Description     string
	Notes           string
	Location        string
	Start           time.Time
	End             time.Time
	Duration        int // minutes
	Priority        Priority
	ClientID        string
	ClientName      string
	GoalTimeframe   Timeframe
	ProgressTarget  *int
	CurrentProgress *int
	Dependencies    []string
	Metadata        map[string]any
	SeriesID        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EffectiveEnd resolves the end instant, deriving it from Start and Duration
// when no explicit end is stored. An event without end or duration is a
// zero-length marker; the default duration is applied at create time, never
// here.
func (e Event) EffectiveEnd() time.Time {
	if !e.End.IsZero() {
		return e.End
	}
	if e.Duration <= 0 {
		return e.Start
	}
	return e.Start.Add(time.Duration(e.Duration) * time.Minute)
}

// Interval returns the half-open [start, end) occupation of the event.
func (e Event) Interval() (time.Time, time.Time) {
	return e.Start, e.EffectiveEnd()
}

// DurationMinutes resolves the effective length of the event in minutes.
func (e Event) DurationMinutes() int {
	return int(e.EffectiveEnd().Sub(e.Start) / time.Minute)
}

// Recurring reports whether the event belongs to a recurrence series.
func (e Event) Recurring() bool {
	return e.SeriesID != ""
}

// Clone returns a deep copy so callers can hand events across component
// boundaries without sharing slice or map backing storage.
func (e Event) Clone() Event {
	out := e
	if e.Dependencies != nil {
		out.Dependencies = make([]string, len(e.Dependencies))
		copy(out.Dependencies, e.Dependencies)
	}
	if e.Metadata != nil {
		out.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			out.Metadata[k] = v
		}
	}
	if e.ProgressTarget != nil {
		v := *e.ProgressTarget
		out.ProgressTarget = &v
	}
	if e.CurrentProgress != nil {
		v := *e.CurrentProgress
		out.CurrentProgress = &v
	}
	return out
}
