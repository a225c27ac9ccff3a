package goal

import (
	"math"
	"time"
)

// DefaultVelocityWindowDays is the trailing window used when callers do not
// specify one.
const DefaultVelocityWindowDays = 7

// Velocity computes the linear progress rate in percentage points per day
// over the trailing window ending at now. History must be chronological,
// which the goal service enforces on write. Fewer than two entries inside
// the window yield zero.
func Velocity(history []ProgressEntry, now time.Time, windowDays int) float64 {
	if windowDays <= 0 {
		windowDays = DefaultVelocityWindowDays
	}
	cutoff := now.AddDate(0, 0, -windowDays)

	var inWindow []ProgressEntry
	for _, entry := range history {
		if entry.Date.Before(cutoff) || entry.Date.After(now) {
			continue
		}
		inWindow = append(inWindow, entry)
	}
	if len(inWindow) < 2 {
		return 0
	}

	first := inWindow[0]
	last := inWindow[len(inWindow)-1]
	days := last.Date.Sub(first.Date).Hours() / 24
	if days <= 0 {
		return 0
	}
	return float64(last.Progress-first.Progress) / days
}

// EstimateCompletion projects the date the goal reaches 100% by extending
// the current velocity forward from now. A non-positive velocity or an
// already complete goal yields nil: no naive extrapolation.
func EstimateCompletion(g Goal, now time.Time, windowDays int) *time.Time {
	if g.Progress >= 100 {
		return nil
	}
	velocity := Velocity(g.History, now, windowDays)
	if velocity <= 0 {
		return nil
	}
	days := float64(100-g.Progress) / velocity
	projected := now.Add(time.Duration(days * 24 * float64(time.Hour)))
	return &projected
}

// Risk grades how likely a goal is to miss its deadline.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// ClassifyRisk applies the deadline heuristics: already overdue or
// projected to finish past the deadline is high; a slow velocity with less
// than thirty days of runway is medium; everything else is low. Completed
// goals are always low risk.
func ClassifyRisk(g Goal, now time.Time, windowDays int) Risk {
	if g.Status == StatusCompleted || g.Progress >= 100 {
		return RiskLow
	}

	if !g.End.IsZero() && now.After(g.End) {
		return RiskHigh
	}
	if projected := EstimateCompletion(g, now, windowDays); projected != nil && !g.End.IsZero() && projected.After(g.End) {
		return RiskHigh
	}

	velocity := Velocity(g.History, now, windowDays)
	if !g.End.IsZero() {
		daysToDeadline := g.End.Sub(now).Hours() / 24
		if velocity < 1 && daysToDeadline < 30 {
			return RiskMedium
		}
	}
	return RiskLow
}

// CurrentValueFor converts a percentage into the goal's measured unit.
func CurrentValueFor(progress int, targetValue float64) float64 {
	return math.Round(float64(progress) / 100 * targetValue)
}
