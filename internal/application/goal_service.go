package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/goal"
)

// GoalRepository captures the persistence interactions needed by the goal
// service.
type GoalRepository interface {
	CreateGoal(ctx context.Context, g goal.Goal) (goal.Goal, error)
	GetGoal(ctx context.Context, id string) (goal.Goal, error)
	UpdateGoal(ctx context.Context, g goal.Goal) (goal.Goal, error)
	DeleteGoal(ctx context.Context, id string) error
	ListGoals(ctx context.Context) ([]goal.Goal, error)

	CreateMilestone(ctx context.Context, m goal.Milestone) (goal.Milestone, error)
	GetMilestone(ctx context.Context, id string) (goal.Milestone, error)
	UpdateMilestone(ctx context.Context, m goal.Milestone) (goal.Milestone, error)
	DeleteMilestone(ctx context.Context, id string) error
	ListMilestonesForGoal(ctx context.Context, goalID string) ([]goal.Milestone, error)
}

// GoalService orchestrates goal and milestone lifecycle, progress history
// and the analytics derived from it.
type GoalService struct {
	goals              GoalRepository
	idGenerator        func() string
	now                func() time.Time
	velocityWindowDays int
}

// NewGoalService wires dependencies for goal operations.
func NewGoalService(goals GoalRepository, idGenerator func() string, now func() time.Time) *GoalService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &GoalService{
		goals:              goals,
		idGenerator:        idGenerator,
		now:                now,
		velocityWindowDays: goal.DefaultVelocityWindowDays,
	}
}

// CreateGoal validates the input and persists a new goal in the
// not-started state.
func (s *GoalService) CreateGoal(ctx context.Context, input GoalInput) (goal.Goal, error) {
	if s == nil || s.goals == nil {
		return goal.Goal{}, fmt.Errorf("goal repository not configured")
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if !input.Timeframe.Valid() {
		vErr.add("goalTimeframe", "unknown timeframe")
	}
	if input.Priority == "" {
		input.Priority = event.PriorityMedium
	}
	if !input.Priority.Valid() {
		vErr.add("priority", "unknown priority")
	}
	if input.TargetValue < 0 {
		vErr.add("targetValue", "target must not be negative")
	}
	if input.Start.IsZero() {
		vErr.add("startDate", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("endDate", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("endDate", "end must be after start")
	}
	if vErr.HasErrors() {
		return goal.Goal{}, vErr
	}

	createdAt := s.now()
	g := goal.Goal{
		ID:           s.idGenerator(),
		Title:        strings.TrimSpace(input.Title),
		Category:     input.Category,
		Timeframe:    input.Timeframe,
		Priority:     input.Priority,
		Status:       goal.StatusNotStarted,
		TargetValue:  input.TargetValue,
		Start:        input.Start,
		End:          input.End,
		Dependencies: copyStrings(input.Dependencies),
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	persisted, err := s.goals.CreateGoal(ctx, g)
	if err != nil {
		return goal.Goal{}, mapRepoError(err)
	}
	serviceLogger(ctx, "goal", "create", "goal_id", persisted.ID).Info("goal created")
	return persisted, nil
}

// GetGoal fetches a goal by id.
func (s *GoalService) GetGoal(ctx context.Context, id string) (goal.Goal, error) {
	if s == nil || s.goals == nil {
		return goal.Goal{}, fmt.Errorf("goal repository not configured")
	}
	g, err := s.goals.GetGoal(ctx, id)
	if err != nil {
		return goal.Goal{}, mapRepoError(err)
	}
	return g, nil
}

// ListGoals enumerates all goals.
func (s *GoalService) ListGoals(ctx context.Context) ([]goal.Goal, error) {
	if s == nil || s.goals == nil {
		return nil, fmt.Errorf("goal repository not configured")
	}
	goals, err := s.goals.ListGoals(ctx)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return goals, nil
}

// DeleteGoal removes a goal; its milestones and history cascade away with
// it.
func (s *GoalService) DeleteGoal(ctx context.Context, id string) error {
	if s == nil || s.goals == nil {
		return fmt.Errorf("goal repository not configured")
	}
	if err := s.goals.DeleteGoal(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// RecordProgress appends an immutable entry to the goal's history and
// re-derives progress, current value and status. Completion is terminal:
// once a goal reaches completed it stays completed.
func (s *GoalService) RecordProgress(ctx context.Context, goalID string, update ProgressUpdate) (goal.Goal, error) {
	if s == nil || s.goals == nil {
		return goal.Goal{}, fmt.Errorf("goal repository not configured")
	}

	vErr := &ValidationError{}
	if update.Progress < 0 || update.Progress > 100 {
		vErr.add("progress", "progress must be between 0 and 100")
	}
	if update.TimeSpent < 0 {
		vErr.add("timeSpent", "time spent must not be negative")
	}
	if vErr.HasErrors() {
		return goal.Goal{}, vErr
	}

	g, err := s.goals.GetGoal(ctx, goalID)
	if err != nil {
		return goal.Goal{}, mapRepoError(err)
	}

	now := s.now()
	entryDate := update.Date
	if entryDate.IsZero() {
		entryDate = now
	}
	// History stays chronological; velocity differencing depends on it.
	if len(g.History) > 0 && entryDate.Before(g.History[len(g.History)-1].Date) {
		vErr.add("date", "entry date must not precede the last recorded entry")
		return goal.Goal{}, vErr
	}

	updated := g.Clone()
	updated.History = append(updated.History, goal.ProgressEntry{
		Date:      entryDate,
		Progress:  update.Progress,
		Notes:     update.Notes,
		TimeSpent: update.TimeSpent,
	})
	updated.Progress = update.Progress
	updated.CurrentValue = goal.CurrentValueFor(update.Progress, updated.TargetValue)
	updated.Status = goal.DeriveStatus(g.Status, update.Progress, updated.End, now)
	updated.UpdatedAt = now

	persisted, err := s.goals.UpdateGoal(ctx, updated)
	if err != nil {
		return goal.Goal{}, mapRepoError(err)
	}
	serviceLogger(ctx, "goal", "progress", "goal_id", goalID).
		Info("progress recorded", "progress", update.Progress, "status", string(persisted.Status))
	return persisted, nil
}

// Insights computes progress velocity, the projected completion date and
// the risk class for a goal.
func (s *GoalService) Insights(ctx context.Context, goalID string) (GoalInsights, error) {
	if s == nil || s.goals == nil {
		return GoalInsights{}, fmt.Errorf("goal repository not configured")
	}

	g, err := s.goals.GetGoal(ctx, goalID)
	if err != nil {
		return GoalInsights{}, mapRepoError(err)
	}

	now := s.now()
	return GoalInsights{
		Velocity:            goal.Velocity(g.History, now, s.velocityWindowDays),
		EstimatedCompletion: goal.EstimateCompletion(g, now, s.velocityWindowDays),
		Risk:                goal.ClassifyRisk(g, now, s.velocityWindowDays),
	}, nil
}

// CheckDependencies reports dependency goal ids that are missing or not
// yet completed. Advisory only.
func (s *GoalService) CheckDependencies(ctx context.Context, goalID string) (DependencyAdvisory, error) {
	if s == nil || s.goals == nil {
		return DependencyAdvisory{}, fmt.Errorf("goal repository not configured")
	}

	g, err := s.goals.GetGoal(ctx, goalID)
	if err != nil {
		return DependencyAdvisory{}, mapRepoError(err)
	}

	var advisory DependencyAdvisory
	for _, depID := range g.Dependencies {
		dep, err := s.goals.GetGoal(ctx, depID)
		if err != nil {
			if isNotFoundError(err) {
				advisory.MissingIDs = append(advisory.MissingIDs, depID)
				continue
			}
			return DependencyAdvisory{}, err
		}
		if dep.Status != goal.StatusCompleted {
			advisory.BlockingIDs = append(advisory.BlockingIDs, depID)
		}
	}
	return advisory, nil
}

// CreateMilestone validates and persists a milestone under an existing
// goal.
func (s *GoalService) CreateMilestone(ctx context.Context, input MilestoneInput) (goal.Milestone, error) {
	if s == nil || s.goals == nil {
		return goal.Milestone{}, fmt.Errorf("goal repository not configured")
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.GoalID == "" {
		vErr.add("goalId", "goal id is required")
	}
	if input.Due.IsZero() {
		vErr.add("dueDate", "due date is required")
	}
	if vErr.HasErrors() {
		return goal.Milestone{}, vErr
	}

	if _, err := s.goals.GetGoal(ctx, input.GoalID); err != nil {
		if isNotFoundError(err) {
			vErr.add("goalId", "goal does not exist")
			return goal.Milestone{}, vErr
		}
		return goal.Milestone{}, err
	}

	createdAt := s.now()
	m := goal.Milestone{
		ID:           s.idGenerator(),
		GoalID:       input.GoalID,
		Title:        strings.TrimSpace(input.Title),
		Due:          input.Due,
		Status:       goal.StatusNotStarted,
		Dependencies: copyStrings(input.Dependencies),
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	persisted, err := s.goals.CreateMilestone(ctx, m)
	if err != nil {
		return goal.Milestone{}, mapRepoError(err)
	}
	return persisted, nil
}

// UpdateMilestoneProgress sets a milestone's progress and re-derives its
// status against the due date.
func (s *GoalService) UpdateMilestoneProgress(ctx context.Context, milestoneID string, progress int) (goal.Milestone, error) {
	if s == nil || s.goals == nil {
		return goal.Milestone{}, fmt.Errorf("goal repository not configured")
	}

	if progress < 0 || progress > 100 {
		vErr := &ValidationError{}
		vErr.add("progress", "progress must be between 0 and 100")
		return goal.Milestone{}, vErr
	}

	m, err := s.goals.GetMilestone(ctx, milestoneID)
	if err != nil {
		return goal.Milestone{}, mapRepoError(err)
	}

	now := s.now()
	updated := m.Clone()
	updated.Progress = progress
	updated.Status = goal.DeriveStatus(m.Status, progress, m.Due, now)
	updated.UpdatedAt = now

	persisted, err := s.goals.UpdateMilestone(ctx, updated)
	if err != nil {
		return goal.Milestone{}, mapRepoError(err)
	}
	return persisted, nil
}

// DeleteMilestone removes a milestone by id.
func (s *GoalService) DeleteMilestone(ctx context.Context, id string) error {
	if s == nil || s.goals == nil {
		return fmt.Errorf("goal repository not configured")
	}
	if err := s.goals.DeleteMilestone(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// ListMilestones returns the milestones of a goal ordered by due date.
func (s *GoalService) ListMilestones(ctx context.Context, goalID string) ([]goal.Milestone, error) {
	if s == nil || s.goals == nil {
		return nil, fmt.Errorf("goal repository not configured")
	}
	milestones, err := s.goals.ListMilestonesForGoal(ctx, goalID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return milestones, nil
}

// CalendarProjection renders every goal and milestone as unified calendar
// events ordered by start time then id.
func (s *GoalService) CalendarProjection(ctx context.Context) ([]event.Event, error) {
	if s == nil || s.goals == nil {
		return nil, fmt.Errorf("goal repository not configured")
	}

	goals, err := s.goals.ListGoals(ctx)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	var events []event.Event
	for _, g := range goals {
		events = append(events, g.ToEvent())
		milestones, err := s.goals.ListMilestonesForGoal(ctx, g.ID)
		if err != nil {
			return nil, mapRepoError(err)
		}
		for _, m := range milestones {
			events = append(events, m.ToEvent())
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].ID < events[j].ID
		}
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}
