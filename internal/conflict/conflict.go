// Package conflict detects time overlaps between a candidate event and a
// pool of existing events. Results are advisory: the detector never blocks
// a write, it reports what the caller should surface for the user to
// resolve. Detection runs on demand over a snapshot and caches nothing.
package conflict

import (
	"fmt"
	"time"

	"github.com/example/calendar-core/internal/event"
)

// Severity grades how serious an overlap is.
type Severity string

const (
	// SeverityWarning is a plain overlap between lower-priority events.
	SeverityWarning Severity = "warning"
	// SeverityError is an overlap covering at least half of the shorter
	// event's duration.
	SeverityError Severity = "error"
	// SeverityCritical is an overlap where both events carry high or urgent
	// priority.
	SeverityCritical Severity = "critical"
)

// Conflict describes one overlapping event.
type Conflict struct {
	ID       string
	Message  string
	Severity Severity
}

// Result aggregates the conflicts found for one candidate.
type Result struct {
	HasConflicts bool
	Conflicts    []Conflict
}

// Overlaps reports whether the half-open occupation intervals of two events
// intersect.
func Overlaps(a, b event.Event) bool {
	aStart, aEnd := a.Interval()
	bStart, bEnd := b.Interval()
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// OverlapDuration returns the length of the intersection of the two events'
// occupation intervals, zero when they do not intersect.
func OverlapDuration(a, b event.Event) time.Duration {
	aStart, aEnd := a.Interval()
	bStart, bEnd := b.Interval()

	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !start.Before(end) {
		return 0
	}
	return end.Sub(start)
}

// Detect reports every conflict between the candidate and the pool. The
// candidate itself (same id) and pool members without a time intersection
// are ignored.
func Detect(candidate event.Event, pool []event.Event) Result {
	var conflicts []Conflict
	for _, other := range pool {
		if other.ID != "" && other.ID == candidate.ID {
			continue
		}
		if !Overlaps(candidate, other) {
			continue
		}
		severity := classify(candidate, other)
		conflicts = append(conflicts, Conflict{
			ID:       other.ID,
			Message:  fmt.Sprintf("overlaps %q from %s to %s", other.Title, event.FormatTime(other.Start), event.FormatTime(other.EffectiveEnd())),
			Severity: severity,
		})
	}
	return Result{HasConflicts: len(conflicts) > 0, Conflicts: conflicts}
}

// classify grades the overlap between two intersecting events. Both at high
// or urgent priority is critical; an overlap covering at least half of the
// shorter duration is an error; anything else is a warning.
func classify(a, b event.Event) Severity {
	if a.Priority.Rank() >= event.PriorityHigh.Rank() && b.Priority.Rank() >= event.PriorityHigh.Rank() {
		return SeverityCritical
	}

	overlap := OverlapDuration(a, b)
	shorter := a.EffectiveEnd().Sub(a.Start)
	if other := b.EffectiveEnd().Sub(b.Start); other < shorter {
		shorter = other
	}
	if shorter > 0 && overlap*2 >= shorter {
		return SeverityError
	}
	return SeverityWarning
}
