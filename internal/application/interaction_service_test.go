package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/interaction"
)

func newTestInteractionService(repo *eventRepoStub, confirmSeries bool) *InteractionService {
	cfg := interaction.Config{
		SnapMinutes:         15,
		MinDurationMinutes:  15,
		PixelsPerHour:       60,
		ConfirmSeriesCommit: confirmSeries,
	}
	return NewInteractionService(repo, cfg, fixedNow)
}

func storedEvent(t *testing.T, repo *eventRepoStub, id string, start time.Time, durationMinutes int, seriesID string) event.Event {
	t.Helper()
	ev := event.Event{
		ID:        id,
		Type:      event.TypeEvent,
		Title:     "Client review",
		Start:     start,
		End:       start.Add(time.Duration(durationMinutes) * time.Minute),
		Priority:  event.PriorityMedium,
		SeriesID:  seriesID,
		CreatedAt: fixedNow(),
		UpdatedAt: fixedNow(),
	}
	if _, err := repo.CreateEvent(context.Background(), ev); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	return ev
}

func TestInteractionService_DragCommitsOnRelease(t *testing.T) {
	t.Parallel()

	repo := newEventRepoStub()
	svc := newTestInteractionService(repo, true)
	ctx := context.Background()
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	storedEvent(t, repo, "event-1", start, 60, "")

	if err := svc.BeginDrag(ctx, "event-1"); err != nil {
		t.Fatalf("BeginDrag failed: %v", err)
	}
	// 30 pixels at 60 px/h is half an hour down.
	previewStart, previewEnd, err := svc.Move("event-1", 30)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if want := start.Add(30 * time.Minute); !previewStart.Equal(want) {
		t.Fatalf("preview start = %v, want %v", previewStart, want)
	}
	if want := start.Add(90 * time.Minute); !previewEnd.Equal(want) {
		t.Fatalf("preview end = %v, want %v", previewEnd, want)
	}
	if got, ok := repo.events["event-1"]; !ok || !got.Start.Equal(start) {
		t.Fatalf("store changed before release: %v", got.Start)
	}

	updated, committed, err := svc.Release(ctx, "event-1")
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if !committed {
		t.Fatal("expected immediate commit for a standalone event")
	}
	if want := start.Add(30 * time.Minute); !updated.Start.Equal(want) {
		t.Fatalf("committed start = %v, want %v", updated.Start, want)
	}
	if stored := repo.events["event-1"]; !stored.Start.Equal(updated.Start) {
		t.Fatalf("stored start = %v, want %v", stored.Start, updated.Start)
	}
	if got := svc.tracker.Tracked(); got != 0 {
		t.Fatalf("machine retained after commit, tracked = %d", got)
	}
}

func TestInteractionService_ResizeKeepsOpenEndedDuration(t *testing.T) {
	t.Parallel()

	repo := newEventRepoStub()
	svc := newTestInteractionService(repo, true)
	ctx := context.Background()
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	task := event.Event{
		ID:       "task-1",
		Type:     event.TypeTask,
		Title:    "Prepare proposal",
		Start:    start,
		Duration: 30,
		Priority: event.PriorityMedium,
	}
	if _, err := repo.CreateEvent(ctx, task); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	if err := svc.BeginResize(ctx, "task-1", interaction.HandleBottom); err != nil {
		t.Fatalf("BeginResize failed: %v", err)
	}
	if _, _, err := svc.Move("task-1", 30); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	updated, committed, err := svc.Release(ctx, "task-1")
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if !committed {
		t.Fatal("expected immediate commit")
	}
	if !updated.End.IsZero() {
		t.Fatalf("open-ended task gained an end: %v", updated.End)
	}
	if updated.Duration != 60 {
		t.Fatalf("duration = %d, want 60", updated.Duration)
	}
}

func TestInteractionService_SeriesConfirmShiftsAllOccurrences(t *testing.T) {
	t.Parallel()

	repo := newEventRepoStub()
	svc := newTestInteractionService(repo, true)
	ctx := context.Background()
	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		storedEvent(t, repo, fmt.Sprintf("occ-%d", i+1), base.AddDate(0, 0, i), 30, "occ-1")
	}

	if err := svc.BeginDrag(ctx, "occ-2"); err != nil {
		t.Fatalf("BeginDrag failed: %v", err)
	}
	if _, _, err := svc.Move("occ-2", 60); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	_, committed, err := svc.Release(ctx, "occ-2")
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if committed {
		t.Fatal("recurring event should defer the commit")
	}
	if stored := repo.events["occ-2"]; !stored.Start.Equal(base.AddDate(0, 0, 1)) {
		t.Fatalf("store changed before confirmation: %v", stored.Start)
	}

	updated, err := svc.Confirm(ctx, "occ-2", interaction.ScopeSeries)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if len(updated) != 3 {
		t.Fatalf("updated %d occurrences, want 3", len(updated))
	}
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("occ-%d", i+1)
		want := base.AddDate(0, 0, i).Add(time.Hour)
		if stored := repo.events[id]; !stored.Start.Equal(want) {
			t.Fatalf("%s start = %v, want %v", id, stored.Start, want)
		}
	}
	if got := svc.tracker.Tracked(); got != 0 {
		t.Fatalf("machine retained after confirm, tracked = %d", got)
	}
}

func TestInteractionService_OccurrenceConfirmLeavesSiblings(t *testing.T) {
	t.Parallel()

	repo := newEventRepoStub()
	svc := newTestInteractionService(repo, true)
	ctx := context.Background()
	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	storedEvent(t, repo, "occ-1", base, 30, "occ-1")
	storedEvent(t, repo, "occ-2", base.AddDate(0, 0, 1), 30, "occ-1")

	if err := svc.BeginDrag(ctx, "occ-2"); err != nil {
		t.Fatalf("BeginDrag failed: %v", err)
	}
	if _, _, err := svc.Move("occ-2", 60); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if _, _, err := svc.Release(ctx, "occ-2"); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	updated, err := svc.Confirm(ctx, "occ-2", interaction.ScopeOccurrence)
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if len(updated) != 1 {
		t.Fatalf("updated %d events, want 1", len(updated))
	}
	if stored := repo.events["occ-1"]; !stored.Start.Equal(base) {
		t.Fatalf("sibling moved: %v", stored.Start)
	}
	if want := base.AddDate(0, 0, 1).Add(time.Hour); !repo.events["occ-2"].Start.Equal(want) {
		t.Fatalf("occ-2 start = %v, want %v", repo.events["occ-2"].Start, want)
	}
}

func TestInteractionService_CancelRevertsPreview(t *testing.T) {
	t.Parallel()

	repo := newEventRepoStub()
	svc := newTestInteractionService(repo, true)
	ctx := context.Background()
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	storedEvent(t, repo, "event-1", start, 60, "")

	if err := svc.BeginDrag(ctx, "event-1"); err != nil {
		t.Fatalf("BeginDrag failed: %v", err)
	}
	if _, _, err := svc.Move("event-1", 120); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	svc.Cancel("event-1")

	if got := svc.tracker.Tracked(); got != 0 {
		t.Fatalf("machine retained after cancel, tracked = %d", got)
	}
	if _, _, active := svc.Preview("event-1"); active {
		t.Fatal("machine still active after cancel")
	}
	if stored := repo.events["event-1"]; !stored.Start.Equal(start) {
		t.Fatalf("store changed by cancel: %v", stored.Start)
	}
	if _, _, err := svc.Move("event-1", 30); !errors.Is(err, interaction.ErrNoInteraction) {
		t.Fatalf("Move after cancel error = %v, want ErrNoInteraction", err)
	}
}

func TestInteractionService_MissingEvent(t *testing.T) {
	t.Parallel()

	svc := newTestInteractionService(newEventRepoStub(), true)
	if err := svc.BeginDrag(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("BeginDrag error = %v, want ErrNotFound", err)
	}
}
