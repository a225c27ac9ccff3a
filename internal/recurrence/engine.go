// Package recurrence expands recurrence rules attached to an anchor event
// into concrete occurrences and plans partial-series deletions. All
// computation is pure; materializing occurrences into stored events is the
// application layer's job.
package recurrence

import (
	"errors"
	"time"

	"github.com/example/calendar-core/internal/event"
)

// Frequency represents supported recurrence periods.
type Frequency string

const (
	// FrequencyDaily steps the series forward in days.
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly steps the series forward in weeks, optionally emitting
	// one occurrence per selected weekday inside each week.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyMonthly steps the series forward in calendar months.
	FrequencyMonthly Frequency = "monthly"
	// FrequencyYearly steps the series forward in calendar years.
	FrequencyYearly Frequency = "yearly"
)

// Valid reports whether the frequency is supported.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Rule describes a recurrence configuration attached to an anchor event.
// Exactly one of EndDate and Count must bound the series; open-ended rules
// are rejected.
type Rule struct {
	Frequency Frequency
	Interval  int
	WeekDays  []time.Weekday
	EndDate   *time.Time
	Count     int
}

// Occurrence is one generated instance of a series. Index is the position in
// chronological order starting at zero; the anchor occupies index zero.
type Occurrence struct {
	SeriesID string
	Index    int
	Start    time.Time
	End      time.Time
}

var (
	// ErrInvalidFrequency indicates the rule frequency is not supported.
	ErrInvalidFrequency = errors.New("recurrence: invalid frequency")
	// ErrInvalidInterval indicates the rule interval is not a positive integer.
	ErrInvalidInterval = errors.New("recurrence: interval must be positive")
	// ErrUnboundedRule indicates the rule carries neither an end date nor an
	// occurrence count.
	ErrUnboundedRule = errors.New("recurrence: rule requires an end date or occurrence count")
	// ErrAmbiguousBound indicates the rule carries both an end date and an
	// occurrence count.
	ErrAmbiguousBound = errors.New("recurrence: end date and occurrence count are mutually exclusive")
	// ErrInvalidWeekday indicates a weekday selection outside Sunday..Saturday.
	ErrInvalidWeekday = errors.New("recurrence: weekday selection out of range")
)

// maxOccurrences caps expansion as a safety net against pathological bounds.
const maxOccurrences = 5000

// Validate checks the structural invariants of the rule.
func (r Rule) Validate() error {
	if !r.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if r.Interval <= 0 {
		return ErrInvalidInterval
	}
	hasEnd := r.EndDate != nil && !r.EndDate.IsZero()
	hasCount := r.Count > 0
	if !hasEnd && !hasCount {
		return ErrUnboundedRule
	}
	if hasEnd && hasCount {
		return ErrAmbiguousBound
	}
	for _, day := range r.WeekDays {
		if day < time.Sunday || day > time.Saturday {
			return ErrInvalidWeekday
		}
	}
	return nil
}

// Expand generates the ordered occurrences of the rule anchored at the given
// event. Every occurrence carries the anchor's id as SeriesID so later
// grouped operations can address the series. The anchor's own slot is the
// first occurrence when it satisfies the rule's weekday selection.
func Expand(anchor event.Event, rule Rule) ([]Occurrence, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	start, end := anchor.Interval()
	duration := end.Sub(start)

	var starts []time.Time
	if rule.Frequency == FrequencyWeekly && len(rule.WeekDays) > 0 {
		starts = weeklyStarts(start, rule)
	} else {
		starts = steppedStarts(start, rule)
	}

	occurrences := make([]Occurrence, 0, len(starts))
	for i, s := range starts {
		occurrences = append(occurrences, Occurrence{
			SeriesID: anchor.ID,
			Index:    i,
			Start:    s,
			End:      s.Add(duration),
		})
	}
	return occurrences, nil
}

// steppedStarts walks fixed-size periods from the anchor start.
func steppedStarts(anchor time.Time, rule Rule) []time.Time {
	starts := make([]time.Time, 0)
	current := anchor
	for len(starts) < maxOccurrences {
		if !withinBound(current, rule, len(starts)) {
			break
		}
		starts = append(starts, current)
		current = advance(current, rule.Frequency, rule.Interval)
	}
	return starts
}

// weeklyStarts emits one occurrence per selected weekday inside each
// included week, weeks stepping by the rule interval. Weeks start on Sunday
// to match the weekday index convention (0=Sunday .. 6=Saturday).
func weeklyStarts(anchor time.Time, rule Rule) []time.Time {
	selected := make(map[time.Weekday]struct{}, len(rule.WeekDays))
	for _, day := range rule.WeekDays {
		selected[day] = struct{}{}
	}

	starts := make([]time.Time, 0)
	weekStart := anchor.AddDate(0, 0, -int(anchor.Weekday()))

	for len(starts) < maxOccurrences {
		for offset := 0; offset < 7; offset++ {
			candidate := weekStart.AddDate(0, 0, offset)
			if _, ok := selected[candidate.Weekday()]; !ok {
				continue
			}
			if candidate.Before(anchor) {
				continue
			}
			if !withinBound(candidate, rule, len(starts)) {
				return starts
			}
			starts = append(starts, candidate)
			if len(starts) >= maxOccurrences {
				return starts
			}
		}
		weekStart = weekStart.AddDate(0, 0, 7*rule.Interval)
		if rule.EndDate != nil && weekStart.After(*rule.EndDate) {
			break
		}
	}
	return starts
}

func withinBound(start time.Time, rule Rule, emitted int) bool {
	if rule.Count > 0 {
		return emitted < rule.Count
	}
	return !start.After(*rule.EndDate)
}

func advance(t time.Time, freq Frequency, interval int) time.Time {
	switch freq {
	case FrequencyDaily:
		return t.AddDate(0, 0, interval)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7*interval)
	case FrequencyMonthly:
		return t.AddDate(0, interval, 0)
	case FrequencyYearly:
		return t.AddDate(interval, 0, 0)
	}
	return t
}
