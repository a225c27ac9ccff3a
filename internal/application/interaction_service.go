package application

import (
	"context"
	"fmt"
	"time"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/interaction"
	"github.com/example/calendar-core/internal/persistence"
)

// InteractionService drives resize and drag interactions against stored
// events. Pointer movement only touches the in-memory machines; the store
// is written on commit, either immediately on release or after the caller
// confirms the scope for a recurring event.
type InteractionService struct {
	events  EventRepository
	tracker *interaction.Tracker
	now     func() time.Time
}

// NewInteractionService wires dependencies for interactive event placement.
func NewInteractionService(events EventRepository, cfg interaction.Config, now func() time.Time) *InteractionService {
	if now == nil {
		now = time.Now
	}
	return &InteractionService{
		events:  events,
		tracker: interaction.NewTracker(cfg),
		now:     now,
	}
}

// BeginResize loads the event and starts a resize on the given handle.
func (s *InteractionService) BeginResize(ctx context.Context, eventID string, handle interaction.Handle) error {
	if s == nil {
		return fmt.Errorf("InteractionService is nil")
	}
	ev, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return mapRepoError(err)
	}
	return s.tracker.Machine(ev.ID).BeginResize(ev, handle)
}

// BeginDrag loads the event and starts a whole-block drag.
func (s *InteractionService) BeginDrag(ctx context.Context, eventID string) error {
	if s == nil {
		return fmt.Errorf("InteractionService is nil")
	}
	ev, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return mapRepoError(err)
	}
	return s.tracker.Machine(ev.ID).BeginDrag(ev)
}

// Move feeds a cumulative pointer offset in pixels to the event's machine
// and returns the snapped preview placement.
func (s *InteractionService) Move(eventID string, pixelDelta float64) (time.Time, time.Time, error) {
	if s == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("InteractionService is nil")
	}
	return s.tracker.Machine(eventID).MoveBy(pixelDelta)
}

// Release ends the interaction. For recurring events with series
// confirmation enabled the commit is deferred and the returned flag is
// false; Confirm finishes it. Otherwise the occurrence is updated in the
// store immediately.
func (s *InteractionService) Release(ctx context.Context, eventID string) (event.Event, bool, error) {
	if s == nil {
		return event.Event{}, false, fmt.Errorf("InteractionService is nil")
	}
	update, committed, err := s.tracker.Machine(eventID).Release()
	if err != nil {
		return event.Event{}, false, err
	}
	if !committed {
		return event.Event{}, false, nil
	}
	ev, err := s.applyToOccurrence(ctx, update)
	if err != nil {
		return event.Event{}, false, err
	}
	s.tracker.Release(eventID)
	serviceLogger(ctx, "interaction", "release", "eventId", ev.ID).Info("placement committed")
	return ev, true, nil
}

// Confirm resolves a deferred commit with the chosen scope and returns the
// updated events, one for the occurrence scope or every occurrence of the
// series otherwise.
func (s *InteractionService) Confirm(ctx context.Context, eventID string, scope interaction.CommitScope) ([]event.Event, error) {
	if s == nil {
		return nil, fmt.Errorf("InteractionService is nil")
	}
	update, err := s.tracker.Machine(eventID).Confirm(scope)
	if err != nil {
		return nil, err
	}
	s.tracker.Release(eventID)

	if scope == interaction.ScopeSeries {
		updated, err := s.applyToSeries(ctx, update)
		if err != nil {
			return nil, err
		}
		serviceLogger(ctx, "interaction", "confirm", "eventId", eventID, "scope", string(scope), "occurrences", len(updated)).Info("placement committed")
		return updated, nil
	}

	ev, err := s.applyToOccurrence(ctx, update)
	if err != nil {
		return nil, err
	}
	serviceLogger(ctx, "interaction", "confirm", "eventId", eventID, "scope", string(scope)).Info("placement committed")
	return []event.Event{ev}, nil
}

// Cancel reverts the event's interaction without writing anything and drops
// the machine so idle state does not accumulate per event id.
func (s *InteractionService) Cancel(eventID string) {
	if s == nil {
		return
	}
	s.tracker.Machine(eventID).Cancel()
	s.tracker.Release(eventID)
}

// Preview returns the current preview placement for an event and whether an
// interaction is in flight.
func (s *InteractionService) Preview(eventID string) (time.Time, time.Time, bool) {
	if s == nil {
		return time.Time{}, time.Time{}, false
	}
	return s.tracker.Machine(eventID).Preview()
}

// Active reports how many events have an interaction in flight.
func (s *InteractionService) Active() int {
	if s == nil {
		return 0
	}
	return s.tracker.Active()
}

func (s *InteractionService) applyToOccurrence(ctx context.Context, update interaction.Update) (event.Event, error) {
	ev, err := s.events.GetEvent(ctx, update.EventID)
	if err != nil {
		return event.Event{}, mapRepoError(err)
	}
	placed := placeEvent(ev, update.Start, update.End, s.now())
	stored, err := s.events.UpdateEvent(ctx, placed)
	if err != nil {
		return event.Event{}, mapRepoError(err)
	}
	return stored, nil
}

// applyToSeries shifts every occurrence of the target's series by the same
// start delta and gives each the committed duration.
func (s *InteractionService) applyToSeries(ctx context.Context, update interaction.Update) ([]event.Event, error) {
	target, err := s.events.GetEvent(ctx, update.EventID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if target.SeriesID == "" {
		ev, err := s.applyToOccurrence(ctx, update)
		if err != nil {
			return nil, err
		}
		return []event.Event{ev}, nil
	}

	occurrences, err := s.events.ListEvents(ctx, persistence.EventFilter{SeriesID: target.SeriesID})
	if err != nil {
		return nil, mapRepoError(err)
	}

	startDelta := update.Start.Sub(target.Start)
	duration := update.End.Sub(update.Start)
	now := s.now()

	updated := make([]event.Event, 0, len(occurrences))
	for _, occ := range occurrences {
		start := occ.Start.Add(startDelta)
		placed := placeEvent(occ, start, start.Add(duration), now)
		stored, err := s.events.UpdateEvent(ctx, placed)
		if err != nil {
			return nil, mapRepoError(err)
		}
		updated = append(updated, stored)
	}
	return updated, nil
}

// placeEvent rewrites an event's occupation to the given bounds. Open-ended
// events stay open-ended; the new span lands in Duration instead of End.
func placeEvent(ev event.Event, start, end time.Time, now time.Time) event.Event {
	placed := ev.Clone()
	placed.Start = start
	if placed.End.IsZero() {
		placed.Duration = int(end.Sub(start) / time.Minute)
	} else {
		placed.End = end
	}
	placed.UpdatedAt = now
	return placed
}
