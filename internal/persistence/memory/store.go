// Package memory implements the persistence repositories with an in-process
// store. Reads are snapshot consistent with the most recent write: every
// returned record is a deep copy, so callers can never observe or cause
// mutation through shared storage.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/goal"
	"github.com/example/calendar-core/internal/persistence"
)

// Store holds events, goals and milestones behind a single lock.
type Store struct {
	mu         sync.RWMutex
	events     map[string]event.Event
	goals      map[string]goal.Goal
	milestones map[string]goal.Milestone
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		events:     make(map[string]event.Event),
		goals:      make(map[string]goal.Goal),
		milestones: make(map[string]goal.Milestone),
	}
}

// CreateEvent inserts a new event.
func (s *Store) CreateEvent(_ context.Context, ev event.Event) (event.Event, error) {
	if ev.ID == "" {
		return event.Event{}, persistence.ErrConstraintViolation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.ID]; ok {
		return event.Event{}, persistence.ErrDuplicate
	}
	s.events[ev.ID] = ev.Clone()
	return ev.Clone(), nil
}

// GetEvent fetches an event by id.
func (s *Store) GetEvent(_ context.Context, id string) (event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return event.Event{}, persistence.ErrNotFound
	}
	return ev.Clone(), nil
}

// UpdateEvent replaces a stored event.
func (s *Store) UpdateEvent(_ context.Context, ev event.Event) (event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.ID]; !ok {
		return event.Event{}, persistence.ErrNotFound
	}
	s.events[ev.ID] = ev.Clone()
	return ev.Clone(), nil
}

// DeleteEvent removes an event by id.
func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

// DeleteEvents removes the given ids atomically. Missing ids abort the
// whole batch before anything is removed.
func (s *Store) DeleteEvents(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var missing []string
	for _, id := range ids {
		if _, ok := s.events[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &persistence.BatchDeleteError{FailedIDs: missing}
	}
	for _, id := range ids {
		delete(s.events, id)
	}
	return nil
}

// ListEvents returns events matching the filter ordered by start time, ties
// broken by id.
func (s *Store) ListEvents(_ context.Context, filter persistence.EventFilter) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []event.Event
	for _, ev := range s.events {
		if !matches(ev, filter) {
			continue
		}
		out = append(out, ev.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func matches(ev event.Event, filter persistence.EventFilter) bool {
	if len(filter.Types) > 0 {
		found := false
		for _, t := range filter.Types {
			if ev.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.ClientID != "" && ev.ClientID != filter.ClientID {
		return false
	}
	if filter.SeriesID != "" && ev.SeriesID != filter.SeriesID {
		return false
	}
	// Range filters keep any event whose occupation intersects the window.
	if filter.StartsAfter != nil && !ev.EffectiveEnd().After(*filter.StartsAfter) {
		return false
	}
	if filter.EndsBefore != nil && !ev.Start.Before(*filter.EndsBefore) {
		return false
	}
	return persistence.MatchesQuery(ev, filter.Query)
}

// CreateGoal inserts a new goal.
func (s *Store) CreateGoal(_ context.Context, g goal.Goal) (goal.Goal, error) {
	if g.ID == "" {
		return goal.Goal{}, persistence.ErrConstraintViolation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[g.ID]; ok {
		return goal.Goal{}, persistence.ErrDuplicate
	}
	s.goals[g.ID] = g.Clone()
	return g.Clone(), nil
}

// GetGoal fetches a goal by id.
func (s *Store) GetGoal(_ context.Context, id string) (goal.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[id]
	if !ok {
		return goal.Goal{}, persistence.ErrNotFound
	}
	return g.Clone(), nil
}

// UpdateGoal replaces a stored goal.
func (s *Store) UpdateGoal(_ context.Context, g goal.Goal) (goal.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[g.ID]; !ok {
		return goal.Goal{}, persistence.ErrNotFound
	}
	s.goals[g.ID] = g.Clone()
	return g.Clone(), nil
}

// DeleteGoal removes a goal and cascades to its milestones.
func (s *Store) DeleteGoal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.goals, id)
	for msID, ms := range s.milestones {
		if ms.GoalID == id {
			delete(s.milestones, msID)
		}
	}
	return nil
}

// ListGoals returns all goals ordered by end date then id.
func (s *Store) ListGoals(_ context.Context) ([]goal.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]goal.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		out = append(out, g.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].End.Equal(out[j].End) {
			return out[i].ID < out[j].ID
		}
		return out[i].End.Before(out[j].End)
	})
	return out, nil
}

// CreateMilestone inserts a milestone; the referenced goal must exist.
func (s *Store) CreateMilestone(_ context.Context, m goal.Milestone) (goal.Milestone, error) {
	if m.ID == "" || m.GoalID == "" {
		return goal.Milestone{}, persistence.ErrConstraintViolation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[m.GoalID]; !ok {
		return goal.Milestone{}, persistence.ErrForeignKeyViolation
	}
	if _, ok := s.milestones[m.ID]; ok {
		return goal.Milestone{}, persistence.ErrDuplicate
	}
	s.milestones[m.ID] = m.Clone()
	return m.Clone(), nil
}

// GetMilestone fetches a milestone by id.
func (s *Store) GetMilestone(_ context.Context, id string) (goal.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.milestones[id]
	if !ok {
		return goal.Milestone{}, persistence.ErrNotFound
	}
	return m.Clone(), nil
}

// UpdateMilestone replaces a stored milestone.
func (s *Store) UpdateMilestone(_ context.Context, m goal.Milestone) (goal.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.milestones[m.ID]; !ok {
		return goal.Milestone{}, persistence.ErrNotFound
	}
	s.milestones[m.ID] = m.Clone()
	return m.Clone(), nil
}

// DeleteMilestone removes a milestone by id.
func (s *Store) DeleteMilestone(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.milestones[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.milestones, id)
	return nil
}

// ListMilestonesForGoal returns the milestones of a goal ordered by due
// date then id.
func (s *Store) ListMilestonesForGoal(_ context.Context, goalID string) ([]goal.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []goal.Milestone
	for _, m := range s.milestones {
		if m.GoalID == goalID {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Due.Equal(out[j].Due) {
			return out[i].ID < out[j].ID
		}
		return out[i].Due.Before(out[j].Due)
	})
	return out, nil
}
