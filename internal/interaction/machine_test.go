package interaction

import (
	"errors"
	"testing"
	"time"

	"github.com/example/calendar-core/internal/event"
)

func block(id string, seriesID string) event.Event {
	return event.Event{
		ID:       id,
		Type:     event.TypeEvent,
		Title:    id,
		Start:    time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC),
		Duration: 60,
		SeriesID: seriesID,
	}
}

func TestResizeBottomSnapsToGrid(t *testing.T) {
	t.Parallel()

	m := NewMachine(Config{}) // defaults: 15 min snap, 60 px/h
	ev := block("evt-1", "")
	if err := m.BeginResize(ev, HandleBottom); err != nil {
		t.Fatalf("BeginResize: %v", err)
	}

	// 22 pixels at 60 px/h is 22 minutes, snapping to 15.
	start, end, err := m.MoveBy(22)
	if err != nil {
		t.Fatalf("MoveBy: %v", err)
	}
	if !start.Equal(ev.Start) {
		t.Fatalf("bottom resize must not move the start, got %v", start)
	}
	if want := ev.Start.Add(75 * time.Minute); !end.Equal(want) {
		t.Fatalf("end = %v, want %v", end, want)
	}
}

func TestResizeEnforcesMinimumDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		handle Handle
		pixels float64
	}{
		{"bottom dragged far above start", HandleBottom, -600},
		{"top dragged far below end", HandleTop, 600},
		{"corner behaves like its edge", HandleTopRight, 600},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewMachine(Config{})
			ev := block("evt-1", "")
			if err := m.BeginResize(ev, tt.handle); err != nil {
				t.Fatalf("BeginResize: %v", err)
			}
			start, end, err := m.MoveBy(tt.pixels)
			if err != nil {
				t.Fatalf("MoveBy: %v", err)
			}
			if got := end.Sub(start); got < 15*time.Minute {
				t.Fatalf("preview duration %v below the 15m floor", got)
			}
		})
	}
}

func TestDragPreservesDuration(t *testing.T) {
	t.Parallel()

	m := NewMachine(Config{SnapMinutes: 30})
	ev := block("evt-1", "")
	if err := m.BeginDrag(ev); err != nil {
		t.Fatalf("BeginDrag: %v", err)
	}

	// 100 pixels at 60 px/h is 100 minutes; 10:40 snaps to 10:30 on a 30
	// minute grid.
	start, end, err := m.MoveBy(100)
	if err != nil {
		t.Fatalf("MoveBy: %v", err)
	}
	if want := time.Date(2025, time.January, 6, 10, 30, 0, 0, time.UTC); !start.Equal(want) {
		t.Fatalf("start = %v, want %v", start, want)
	}
	if got := end.Sub(start); got != 60*time.Minute {
		t.Fatalf("drag changed duration to %v", got)
	}
}

func TestStatesAreMutuallyExclusive(t *testing.T) {
	t.Parallel()

	m := NewMachine(Config{})
	ev := block("evt-1", "")

	if err := m.BeginResize(ev, HandleTop); err != nil {
		t.Fatalf("BeginResize: %v", err)
	}
	if err := m.BeginDrag(ev); !errors.Is(err, ErrInteractionActive) {
		t.Fatalf("expected ErrInteractionActive, got %v", err)
	}
	if err := m.BeginResize(ev, HandleBottom); !errors.Is(err, ErrInteractionActive) {
		t.Fatalf("expected ErrInteractionActive for re-entry, got %v", err)
	}

	m.Cancel()
	if m.State() != StateIdle {
		t.Fatalf("cancel should return to idle, got %s", m.State())
	}
	if err := m.BeginDrag(ev); err != nil {
		t.Fatalf("drag after cancel should succeed: %v", err)
	}
}

func TestReleaseCommitsPreview(t *testing.T) {
	t.Parallel()

	m := NewMachine(Config{})
	ev := block("evt-1", "")
	if err := m.BeginResize(ev, HandleBottom); err != nil {
		t.Fatalf("BeginResize: %v", err)
	}
	if _, _, err := m.MoveBy(60); err != nil {
		t.Fatalf("MoveBy: %v", err)
	}

	update, committed, err := m.Release()
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !committed {
		t.Fatalf("non-recurring release must commit immediately")
	}
	if update.EventID != "evt-1" {
		t.Fatalf("update targets %q", update.EventID)
	}
	if want := ev.Start.Add(2 * time.Hour); !update.End.Equal(want) {
		t.Fatalf("committed end = %v, want %v", update.End, want)
	}
	if m.State() != StateIdle {
		t.Fatalf("machine should be idle after commit, got %s", m.State())
	}
}

func TestRecurringReleaseDefersUntilConfirmed(t *testing.T) {
	t.Parallel()

	m := NewMachine(Config{ConfirmSeriesCommit: true})
	ev := block("evt-1", "series-9")
	if err := m.BeginDrag(ev); err != nil {
		t.Fatalf("BeginDrag: %v", err)
	}
	if _, _, err := m.MoveBy(60); err != nil {
		t.Fatalf("MoveBy: %v", err)
	}

	_, committed, err := m.Release()
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if committed {
		t.Fatalf("recurring release must defer the commit")
	}
	if m.State() != StatePendingConfirm {
		t.Fatalf("state = %s, want %s", m.State(), StatePendingConfirm)
	}

	update, err := m.Confirm(ScopeSeries)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if update.Scope != ScopeSeries {
		t.Fatalf("scope = %s, want %s", update.Scope, ScopeSeries)
	}
	if m.State() != StateIdle {
		t.Fatalf("machine should be idle after confirmation, got %s", m.State())
	}

	if _, err := m.Confirm(ScopeOccurrence); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending after resolution, got %v", err)
	}
}

func TestCancelRevertsWithoutCommit(t *testing.T) {
	t.Parallel()

	m := NewMachine(Config{ConfirmSeriesCommit: true})
	ev := block("evt-1", "series-9")
	if err := m.BeginResize(ev, HandleTop); err != nil {
		t.Fatalf("BeginResize: %v", err)
	}
	if _, _, err := m.MoveBy(-120); err != nil {
		t.Fatalf("MoveBy: %v", err)
	}

	// Cancellation is legal even while a commit awaits confirmation.
	if _, _, err := m.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	m.Cancel()

	if m.State() != StateIdle {
		t.Fatalf("cancel should reach idle from pending confirm, got %s", m.State())
	}
	if _, _, active := m.Preview(); active {
		t.Fatalf("no preview should survive a cancel")
	}
}

func TestMoveWithoutBeginFails(t *testing.T) {
	t.Parallel()

	m := NewMachine(Config{})
	if _, _, err := m.MoveBy(10); !errors.Is(err, ErrNoInteraction) {
		t.Fatalf("expected ErrNoInteraction, got %v", err)
	}
	if _, _, err := m.Release(); !errors.Is(err, ErrNoInteraction) {
		t.Fatalf("expected ErrNoInteraction on release, got %v", err)
	}
}

func TestUnknownHandleRejected(t *testing.T) {
	t.Parallel()

	m := NewMachine(Config{})
	if err := m.BeginResize(block("evt-1", ""), Handle("left")); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("expected ErrUnknownHandle, got %v", err)
	}
	if m.State() != StateIdle {
		t.Fatalf("failed begin must leave the machine idle")
	}
}

func TestTrackerKeepsMachinesIndependent(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(Config{})
	a := block("evt-a", "")
	b := block("evt-b", "")

	if err := tracker.Machine(a.ID).BeginResize(a, HandleBottom); err != nil {
		t.Fatalf("BeginResize a: %v", err)
	}
	if err := tracker.Machine(b.ID).BeginDrag(b); err != nil {
		t.Fatalf("BeginDrag b should be independent of a: %v", err)
	}
	if got := tracker.Active(); got != 2 {
		t.Fatalf("Active() = %d, want 2", got)
	}

	tracker.Machine(a.ID).Cancel()
	if got := tracker.Active(); got != 1 {
		t.Fatalf("Active() after cancel = %d, want 1", got)
	}

	tracker.Release(b.ID)
	if got := tracker.Active(); got != 0 {
		t.Fatalf("Active() after release = %d, want 0", got)
	}
}
