package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/goal"
)

func setupTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "calendar-test.db")
	pool, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		pool.Close()
	})
	return pool
}

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := event.ParseTime(value)
	if err != nil {
		t.Fatalf("ParseTime(%q) failed: %v", value, err)
	}
	return parsed
}

func testEvent(t *testing.T, id, start string) event.Event {
	t.Helper()
	startTime := mustParse(t, start)
	return event.Event{
		ID:        id,
		Type:      event.TypeEvent,
		Title:     "Event " + id,
		Start:     startTime,
		End:       startTime.Add(time.Hour),
		Duration:  60,
		Priority:  event.PriorityMedium,
		CreatedAt: startTime,
		UpdatedAt: startTime,
	}
}

func testGoal(t *testing.T, id string) goal.Goal {
	t.Helper()
	start := mustParse(t, "2025-03-01T00:00:00")
	return goal.Goal{
		ID:          id,
		Title:       "Goal " + id,
		Category:    "revenue",
		Timeframe:   event.TimeframeQuarterly,
		Priority:    event.PriorityHigh,
		Status:      goal.StatusNotStarted,
		TargetValue: 50000,
		Start:       start,
		End:         start.AddDate(0, 3, 0),
		CreatedAt:   start,
		UpdatedAt:   start,
	}
}
