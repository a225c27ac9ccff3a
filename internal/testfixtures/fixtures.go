// Package testfixtures provides deterministic clocks, identifier sequences
// and sample calendar data for tests across the module.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/goal"
)

var (
	eventCounter uint64
	goalCounter  uint64
)

var referenceTime = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures,
// a Monday morning.
func ReferenceTime() time.Time {
	return referenceTime
}

// NewEvent returns a one hour meeting starting at the reference time,
// shifted by the given offset. Each call yields a fresh id.
func NewEvent(offset time.Duration) event.Event {
	n := atomic.AddUint64(&eventCounter, 1)
	start := referenceTime.Add(offset)
	return event.Event{
		ID:        fmt.Sprintf("fixture-event-%d", n),
		Type:      event.TypeEvent,
		Title:     fmt.Sprintf("Fixture meeting %d", n),
		Start:     start,
		End:       start.Add(time.Hour),
		Duration:  60,
		Priority:  event.PriorityMedium,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}

// NewTask returns an open-ended task with only a duration, no end time.
func NewTask(offset time.Duration, durationMinutes int) event.Event {
	ev := NewEvent(offset)
	ev.Type = event.TypeTask
	ev.Title = "Fixture task"
	ev.End = time.Time{}
	ev.Duration = durationMinutes
	return ev
}

// NewGoal returns a quarterly goal spanning three months from the
// reference time, with no progress recorded yet.
func NewGoal() goal.Goal {
	n := atomic.AddUint64(&goalCounter, 1)
	start := time.Date(referenceTime.Year(), referenceTime.Month(), 1, 0, 0, 0, 0, time.UTC)
	return goal.Goal{
		ID:          fmt.Sprintf("fixture-goal-%d", n),
		Title:       fmt.Sprintf("Fixture goal %d", n),
		Category:    "revenue",
		Timeframe:   event.TimeframeQuarterly,
		Priority:    event.PriorityHigh,
		Status:      goal.StatusNotStarted,
		TargetValue: 10000,
		Start:       start,
		End:         start.AddDate(0, 3, 0),
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
}

// NewMilestone returns a milestone belonging to the given goal, due one
// month after the reference time.
func NewMilestone(goalID string) goal.Milestone {
	n := atomic.AddUint64(&goalCounter, 1)
	return goal.Milestone{
		ID:        fmt.Sprintf("fixture-milestone-%d", n),
		GoalID:    goalID,
		Title:     fmt.Sprintf("Fixture milestone %d", n),
		Due:       referenceTime.AddDate(0, 1, 0),
		Status:    goal.StatusNotStarted,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}
