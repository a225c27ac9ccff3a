package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/calendar-core/internal/conflict"
	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/layout"
	"github.com/example/calendar-core/internal/persistence"
)

// EventRepository captures the persistence interactions needed by the
// event service.
type EventRepository interface {
	CreateEvent(ctx context.Context, ev event.Event) (event.Event, error)
	GetEvent(ctx context.Context, id string) (event.Event, error)
	UpdateEvent(ctx context.Context, ev event.Event) (event.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	DeleteEvents(ctx context.Context, ids []string) error
	ListEvents(ctx context.Context, filter persistence.EventFilter) ([]event.Event, error)
}

// EventService orchestrates validation, conflict detection and persistence
// for unified calendar events.
type EventService struct {
	events      EventRepository
	idGenerator func() string
	now         func() time.Time
}

// NewEventService wires dependencies for event operations.
func NewEventService(events EventRepository, idGenerator func() string, now func() time.Time) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{
		events:      events,
		idGenerator: idGenerator,
		now:         now,
	}
}

// CreateEvent validates the input, detects conflicts against the stored
// calendar and persists the event. Conflicts are advisory and never block
// the write.
func (s *EventService) CreateEvent(ctx context.Context, input EventInput) (event.Event, []conflict.Conflict, error) {
	if s == nil {
		return event.Event{}, nil, fmt.Errorf("EventService is nil")
	}
	if s.events == nil {
		return event.Event{}, nil, fmt.Errorf("event repository not configured")
	}

	normalizeInput(&input)

	vErr := &ValidationError{}
	validateEventCore(input, vErr)
	if vErr.HasErrors() {
		return event.Event{}, nil, vErr
	}

	createdAt := s.now()
	ev := event.Event{
		ID:              s.idGenerator(),
		Type:            input.Type,
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		Notes:           input.Notes,
		Location:        input.Location,
		Start:           input.Start,
		End:             input.End,
		Duration:        input.Duration,
		Priority:        input.Priority,
		ClientID:        input.ClientID,
		ClientName:      input.ClientName,
		GoalTimeframe:   input.GoalTimeframe,
		ProgressTarget:  copyIntPtr(input.ProgressTarget),
		CurrentProgress: copyIntPtr(input.CurrentProgress),
		Dependencies:    copyStrings(input.Dependencies),
		Metadata:        copyMetadata(input.Metadata),
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}

	conflicts, err := s.detectConflicts(ctx, ev)
	if err != nil {
		return event.Event{}, nil, err
	}

	persisted, err := s.events.CreateEvent(ctx, ev)
	if err != nil {
		return event.Event{}, nil, mapRepoError(err)
	}
	serviceLogger(ctx, "event", "create", "event_id", persisted.ID).
		Info("event created", "conflicts", len(conflicts))
	return persisted, conflicts, nil
}

// GetEvent fetches an event by id.
func (s *EventService) GetEvent(ctx context.Context, id string) (event.Event, error) {
	if s == nil || s.events == nil {
		return event.Event{}, fmt.Errorf("event repository not configured")
	}
	ev, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return event.Event{}, mapRepoError(err)
	}
	return ev, nil
}

// UpdateEvent applies a partial patch to a stored event. The patched result
// is validated as a whole: an end that lands at or before the start is
// rejected, never silently corrected.
func (s *EventService) UpdateEvent(ctx context.Context, id string, patch EventPatch) (event.Event, []conflict.Conflict, error) {
	if s == nil || s.events == nil {
		return event.Event{}, nil, fmt.Errorf("event repository not configured")
	}

	existing, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return event.Event{}, nil, mapRepoError(err)
	}

	updated := existing.Clone()
	applyPatch(&updated, patch)
	updated.UpdatedAt = s.now()

	vErr := &ValidationError{}
	validateEventCore(eventAsInput(updated), vErr)
	if vErr.HasErrors() {
		return event.Event{}, nil, vErr
	}

	conflicts, err := s.detectConflicts(ctx, updated)
	if err != nil {
		return event.Event{}, nil, err
	}

	persisted, err := s.events.UpdateEvent(ctx, updated)
	if err != nil {
		return event.Event{}, nil, mapRepoError(err)
	}
	return persisted, conflicts, nil
}

// DeleteEvent removes an event by id.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if s == nil || s.events == nil {
		return fmt.Errorf("event repository not configured")
	}
	if err := s.events.DeleteEvent(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// ListEvents enumerates events matching the params, ordered by start time
// then id. Period presets fill range bounds that the caller left open.
func (s *EventService) ListEvents(ctx context.Context, params ListEventsParams) ([]event.Event, error) {
	if s == nil || s.events == nil {
		return nil, fmt.Errorf("event repository not configured")
	}

	events, err := s.events.ListEvents(ctx, buildEventFilter(params))
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return events, nil
}

// SearchEvents matches the query case-insensitively against title,
// description, notes, location and client name.
func (s *EventService) SearchEvents(ctx context.Context, query string) ([]event.Event, error) {
	return s.ListEvents(ctx, ListEventsParams{Query: query})
}

// DayPositions lists the events of the day containing reference and
// computes their overlap layout positions.
func (s *EventService) DayPositions(ctx context.Context, reference time.Time) ([]event.Event, map[string]layout.Position, error) {
	if s == nil || s.events == nil {
		return nil, nil, fmt.Errorf("event repository not configured")
	}

	events, err := s.ListEvents(ctx, ListEventsParams{
		Period:          ListPeriodDay,
		PeriodReference: reference,
	})
	if err != nil {
		return nil, nil, err
	}
	return events, layout.ComputeDay(startOfDay(reference), events), nil
}

// Conflicts re-runs conflict detection for a stored event against the rest
// of the calendar.
func (s *EventService) Conflicts(ctx context.Context, id string) ([]conflict.Conflict, error) {
	if s == nil || s.events == nil {
		return nil, fmt.Errorf("event repository not configured")
	}

	ev, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return s.detectConflicts(ctx, ev)
}

// CheckDependencies reports dependency ids of the event that are missing
// from the store or resolve to incomplete items. Advisory only.
func (s *EventService) CheckDependencies(ctx context.Context, id string) (DependencyAdvisory, error) {
	if s == nil || s.events == nil {
		return DependencyAdvisory{}, fmt.Errorf("event repository not configured")
	}

	ev, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return DependencyAdvisory{}, mapRepoError(err)
	}

	var advisory DependencyAdvisory
	for _, depID := range ev.Dependencies {
		dep, err := s.events.GetEvent(ctx, depID)
		if err != nil {
			if isNotFoundError(err) {
				advisory.MissingIDs = append(advisory.MissingIDs, depID)
				continue
			}
			return DependencyAdvisory{}, err
		}
		if !eventComplete(dep) {
			advisory.BlockingIDs = append(advisory.BlockingIDs, depID)
		}
	}
	return advisory, nil
}

func (s *EventService) detectConflicts(ctx context.Context, candidate event.Event) ([]conflict.Conflict, error) {
	start := candidate.Start
	end := candidate.EffectiveEnd()
	pool, err := s.events.ListEvents(ctx, persistence.EventFilter{
		StartsAfter: &start,
		EndsBefore:  &end,
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	result := conflict.Detect(candidate, pool)
	return result.Conflicts, nil
}

// eventComplete reports whether an event counts as done for dependency
// purposes: its progress reached 100 or it is explicitly marked completed.
func eventComplete(ev event.Event) bool {
	if ev.CurrentProgress != nil && *ev.CurrentProgress >= 100 {
		return true
	}
	if done, ok := ev.Metadata["completed"].(bool); ok && done {
		return true
	}
	return false
}

func buildEventFilter(params ListEventsParams) persistence.EventFilter {
	startsAfter := params.StartsAfter
	endsBefore := params.EndsBefore

	if params.Period != ListPeriodNone {
		start, end := computePeriodRange(params.Period, params.PeriodReference)
		if startsAfter == nil {
			startsAfter = &start
		}
		if endsBefore == nil {
			endsBefore = &end
		}
	}

	return persistence.EventFilter{
		Types:       params.Types,
		StartsAfter: startsAfter,
		EndsBefore:  endsBefore,
		ClientID:    params.ClientID,
		SeriesID:    params.SeriesID,
		Query:       params.Query,
	}
}

func normalizeInput(input *EventInput) {
	if input.Type == "" {
		input.Type = event.TypeEvent
	}
	if input.Priority == "" {
		input.Priority = event.PriorityMedium
	}
	if input.End.IsZero() && input.Duration == 0 {
		input.Duration = event.DefaultDurationMinutes
	}
}

func validateEventCore(input EventInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if !input.Type.Valid() {
		vErr.add("type", "unknown event type")
	}
	if !input.Priority.Valid() {
		vErr.add("priority", "unknown priority")
	}
	if input.Start.IsZero() {
		vErr.add("startDateTime", "start is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("endDateTime", "end must be after start")
	}
	if input.Duration < 0 {
		vErr.add("duration", "duration must not be negative")
	}

	if input.Type != event.TypeGoal {
		if input.GoalTimeframe != "" {
			vErr.add("goalTimeframe", "timeframe applies only to goals")
		}
		if input.ProgressTarget != nil && input.Type != event.TypeMilestone {
			vErr.add("progressTarget", "progress target applies only to goals and milestones")
		}
	}
	if input.GoalTimeframe != "" && !input.GoalTimeframe.Valid() {
		vErr.add("goalTimeframe", "unknown timeframe")
	}
	if input.CurrentProgress != nil && (*input.CurrentProgress < 0 || *input.CurrentProgress > 100) {
		vErr.add("currentProgress", "progress must be between 0 and 100")
	}
	if input.ProgressTarget != nil && *input.ProgressTarget < 0 {
		vErr.add("progressTarget", "progress target must not be negative")
	}
}

func applyPatch(ev *event.Event, patch EventPatch) {
	if patch.Title != nil {
		ev.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		ev.Description = *patch.Description
	}
	if patch.Notes != nil {
		ev.Notes = *patch.Notes
	}
	if patch.Location != nil {
		ev.Location = *patch.Location
	}
	if patch.Start != nil {
		ev.Start = *patch.Start
	}
	if patch.End != nil {
		ev.End = *patch.End
	}
	if patch.Duration != nil {
		ev.Duration = *patch.Duration
	}
	if patch.Priority != nil {
		ev.Priority = *patch.Priority
	}
	if patch.ClientID != nil {
		ev.ClientID = *patch.ClientID
	}
	if patch.ClientName != nil {
		ev.ClientName = *patch.ClientName
	}
	if patch.GoalTimeframe != nil {
		ev.GoalTimeframe = *patch.GoalTimeframe
	}
	if patch.ProgressTarget != nil {
		ev.ProgressTarget = copyIntPtr(patch.ProgressTarget)
	}
	if patch.CurrentProgress != nil {
		ev.CurrentProgress = copyIntPtr(patch.CurrentProgress)
	}
	if patch.Dependencies != nil {
		ev.Dependencies = copyStrings(patch.Dependencies)
	}
	if patch.Metadata != nil {
		ev.Metadata = copyMetadata(patch.Metadata)
	}
}

func eventAsInput(ev event.Event) EventInput {
	return EventInput{
		Type:            ev.Type,
		Title:           ev.Title,
		Description:     ev.Description,
		Notes:           ev.Notes,
		Location:        ev.Location,
		Start:           ev.Start,
		End:             ev.End,
		Duration:        ev.Duration,
		Priority:        ev.Priority,
		ClientID:        ev.ClientID,
		ClientName:      ev.ClientName,
		GoalTimeframe:   ev.GoalTimeframe,
		ProgressTarget:  ev.ProgressTarget,
		CurrentProgress: ev.CurrentProgress,
		Dependencies:    ev.Dependencies,
		Metadata:        ev.Metadata,
	}
}

func copyIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}

func copyMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
