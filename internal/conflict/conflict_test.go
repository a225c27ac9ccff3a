package conflict

import (
	"testing"
	"time"

	"github.com/example/calendar-core/internal/event"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, time.January, 6, hour, minute, 0, 0, time.UTC)
}

func appointment(id string, start time.Time, durationMinutes int, priority event.Priority) event.Event {
	return event.Event{
		ID:       id,
		Type:     event.TypeEvent,
		Title:    id,
		Start:    start,
		Duration: durationMinutes,
		Priority: priority,
	}
}

func TestOverlapsIsSymmetric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b event.Event
		want bool
	}{
		{"partial overlap", appointment("a", at(9, 0), 60, event.PriorityLow), appointment("b", at(9, 30), 60, event.PriorityLow), true},
		{"containment", appointment("a", at(9, 0), 120, event.PriorityLow), appointment("b", at(9, 30), 30, event.PriorityLow), true},
		{"back to back", appointment("a", at(9, 0), 60, event.PriorityLow), appointment("b", at(10, 0), 60, event.PriorityLow), false},
		{"disjoint", appointment("a", at(9, 0), 30, event.PriorityLow), appointment("b", at(12, 0), 30, event.PriorityLow), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Fatalf("Overlaps(a,b) = %v, want %v", got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Fatalf("Overlaps(b,a) = %v, want %v (symmetry)", got, tt.want)
			}
		})
	}
}

func TestDetectHalfOverlapIsError(t *testing.T) {
	t.Parallel()

	// 30 minutes shared between two 60-minute events: exactly half of the
	// shorter duration grades as an error.
	a := appointment("a", at(9, 0), 60, event.PriorityMedium)
	b := appointment("b", at(9, 30), 60, event.PriorityMedium)

	result := Detect(b, []event.Event{a})
	if !result.HasConflicts {
		t.Fatalf("expected a conflict")
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("expected one conflict, got %d", len(result.Conflicts))
	}
	if result.Conflicts[0].Severity != SeverityError {
		t.Fatalf("severity = %s, want %s", result.Conflicts[0].Severity, SeverityError)
	}
	if result.Conflicts[0].ID != "a" {
		t.Fatalf("conflict id = %q, want a", result.Conflicts[0].ID)
	}
}

func TestDetectSeverityClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b event.Event
		want Severity
	}{
		{
			name: "both high priority is critical",
			a:    appointment("a", at(9, 0), 60, event.PriorityHigh),
			b:    appointment("b", at(9, 45), 60, event.PriorityUrgent),
			want: SeverityCritical,
		},
		{
			name: "small overlap between low priority is warning",
			a:    appointment("a", at(9, 0), 60, event.PriorityLow),
			b:    appointment("b", at(9, 50), 60, event.PriorityMedium),
			want: SeverityWarning,
		},
		{
			name: "deep overlap is error",
			a:    appointment("a", at(9, 0), 60, event.PriorityLow),
			b:    appointment("b", at(9, 10), 30, event.PriorityMedium),
			want: SeverityError,
		},
		{
			name: "one high priority alone does not escalate",
			a:    appointment("a", at(9, 0), 60, event.PriorityUrgent),
			b:    appointment("b", at(9, 50), 60, event.PriorityLow),
			want: SeverityWarning,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := Detect(tt.a, []event.Event{tt.b})
			if !result.HasConflicts {
				t.Fatalf("expected a conflict")
			}
			if got := result.Conflicts[0].Severity; got != tt.want {
				t.Fatalf("severity = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetectIgnoresSelfAndDisjoint(t *testing.T) {
	t.Parallel()

	candidate := appointment("a", at(9, 0), 60, event.PriorityMedium)
	pool := []event.Event{
		candidate, // same id: a proposed update must not conflict with itself
		appointment("later", at(11, 0), 60, event.PriorityMedium),
	}

	result := Detect(candidate, pool)
	if result.HasConflicts {
		t.Fatalf("expected no conflicts, got %+v", result.Conflicts)
	}
}

func TestDetectSkipsZeroDurationMarkers(t *testing.T) {
	t.Parallel()

	marker := event.Event{ID: "marker", Type: event.TypeMilestone, Title: "launch", Start: at(9, 0), Priority: event.PriorityHigh}
	meeting := appointment("meeting", at(9, 45), 30, event.PriorityHigh)

	// A milestone occupies nothing; the half-open interval [due, due) can
	// never intersect another event.
	if result := Detect(marker, []event.Event{meeting}); result.HasConflicts {
		t.Fatalf("zero-duration marker must not conflict, got %v", result.Conflicts)
	}
	if result := Detect(meeting, []event.Event{marker}); result.HasConflicts {
		t.Fatalf("event must not conflict with a zero-duration marker, got %v", result.Conflicts)
	}
}

func TestDetectZeroDurationNeverErrors(t *testing.T) {
	t.Parallel()

	marker := event.Event{ID: "marker", Type: event.TypeEvent, Title: "marker", Start: at(9, 30), End: at(9, 30).Add(time.Second), Priority: event.PriorityLow}
	meeting := appointment("meeting", at(9, 0), 60, event.PriorityLow)

	result := Detect(marker, []event.Event{meeting})
	if !result.HasConflicts {
		t.Fatalf("expected overlap to register")
	}
	if result.Conflicts[0].Severity != SeverityError {
		// A 1-second event fully inside the meeting overlaps 100% of the
		// shorter duration.
		t.Fatalf("full containment of the shorter event should be an error, got %s", result.Conflicts[0].Severity)
	}
}
