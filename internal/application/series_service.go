package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/persistence"
	"github.com/example/calendar-core/internal/recurrence"
)

// SeriesService materializes recurring series into stored occurrence events
// and handles partial-series deletion.
type SeriesService struct {
	events      EventRepository
	idGenerator func() string
	now         func() time.Time
}

// NewSeriesService wires dependencies for series operations.
func NewSeriesService(events EventRepository, idGenerator func() string, now func() time.Time) *SeriesService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SeriesService{
		events:      events,
		idGenerator: idGenerator,
		now:         now,
	}
}

// CreateSeries expands the rule from the anchor input and persists every
// occurrence as its own event. All occurrences share a series id; the
// anchor occurrence's event id doubles as the series id.
func (s *SeriesService) CreateSeries(ctx context.Context, params CreateSeriesParams) ([]event.Event, error) {
	if s == nil || s.events == nil {
		return nil, fmt.Errorf("event repository not configured")
	}

	input := params.Input
	normalizeInput(&input)

	vErr := &ValidationError{}
	validateEventCore(input, vErr)
	vErr.merge(validateRule(params.Rule))
	if vErr.HasErrors() {
		return nil, vErr
	}

	createdAt := s.now()
	anchor := event.Event{
		ID:            s.idGenerator(),
		Type:          input.Type,
		Title:         strings.TrimSpace(input.Title),
		Description:   input.Description,
		Notes:         input.Notes,
		Location:      input.Location,
		Start:         input.Start,
		End:           input.End,
		Duration:      input.Duration,
		Priority:      input.Priority,
		ClientID:      input.ClientID,
		ClientName:    input.ClientName,
		GoalTimeframe: input.GoalTimeframe,
		Dependencies:  copyStrings(input.Dependencies),
		Metadata:      copyMetadata(input.Metadata),
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	anchor.SeriesID = anchor.ID

	occurrences, err := recurrence.Expand(anchor, params.Rule)
	if err != nil {
		return nil, err
	}

	events := make([]event.Event, 0, len(occurrences))
	for i, occ := range occurrences {
		ev := anchor.Clone()
		if i > 0 {
			ev.ID = s.idGenerator()
		}
		ev.Start = occ.Start
		if !anchor.End.IsZero() {
			ev.End = occ.End
		}
		events = append(events, ev)
	}

	persisted := make([]event.Event, 0, len(events))
	for _, ev := range events {
		stored, err := s.events.CreateEvent(ctx, ev)
		if err != nil {
			// Roll back occurrences persisted so far to keep the series
			// all-or-nothing.
			ids := make([]string, len(persisted))
			for i, p := range persisted {
				ids[i] = p.ID
			}
			if len(ids) > 0 {
				_ = s.events.DeleteEvents(ctx, ids)
			}
			return nil, mapRepoError(err)
		}
		persisted = append(persisted, stored)
	}

	serviceLogger(ctx, "series", "create", "series_id", anchor.SeriesID).
		Info("series created", "occurrences", len(persisted))
	return persisted, nil
}

// validateRule maps a structurally invalid recurrence rule onto the field
// error vocabulary so rule and event problems surface together.
func validateRule(rule recurrence.Rule) *ValidationError {
	err := rule.Validate()
	if err == nil {
		return nil
	}
	rErr := &ValidationError{}
	rErr.add("recurrence", err.Error())
	return rErr
}

// ListOccurrences returns the stored occurrences of a series ordered by
// start time.
func (s *SeriesService) ListOccurrences(ctx context.Context, seriesID string) ([]event.Event, error) {
	if s == nil || s.events == nil {
		return nil, fmt.Errorf("event repository not configured")
	}
	if seriesID == "" {
		return nil, ErrNotFound
	}

	occurrences, err := s.events.ListEvents(ctx, persistence.EventFilter{SeriesID: seriesID})
	if err != nil {
		return nil, mapRepoError(err)
	}
	if len(occurrences) == 0 {
		return nil, ErrNotFound
	}
	return occurrences, nil
}

// DeleteOccurrences removes part of a series. The reference event anchors
// the option: this occurrence only, everything before it, it and everything
// after, or the whole series. The deletion is atomic; a failed batch leaves
// the series unchanged and surfaces a *SeriesDeleteError.
func (s *SeriesService) DeleteOccurrences(ctx context.Context, eventID string, option recurrence.DeleteOption) error {
	if s == nil || s.events == nil {
		return fmt.Errorf("event repository not configured")
	}

	ev, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return mapRepoError(err)
	}
	if ev.SeriesID == "" {
		// A standalone event deletes directly regardless of option.
		if err := s.events.DeleteEvent(ctx, eventID); err != nil {
			return mapRepoError(err)
		}
		return nil
	}

	occurrences, err := s.ListOccurrences(ctx, ev.SeriesID)
	if err != nil {
		return err
	}

	index := -1
	for i, occ := range occurrences {
		if occ.ID == eventID {
			index = i
			break
		}
	}
	if index < 0 {
		return ErrNotFound
	}

	indices, err := recurrence.PlanDelete(len(occurrences), index, option)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("option", err.Error())
		return vErr
	}

	ids := make([]string, len(indices))
	for i, idx := range indices {
		ids[i] = occurrences[idx].ID
	}

	if err := s.events.DeleteEvents(ctx, ids); err != nil {
		var batchErr *persistence.BatchDeleteError
		if errors.As(err, &batchErr) {
			return &SeriesDeleteError{SeriesID: ev.SeriesID, FailedIDs: batchErr.FailedIDs}
		}
		return mapRepoError(err)
	}

	serviceLogger(ctx, "series", "delete", "series_id", ev.SeriesID).
		Info("occurrences deleted", "count", len(ids), "option", string(option))
	return nil
}
