package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/goal"
	"github.com/example/calendar-core/internal/persistence"
)

type goalRepoStub struct {
	goals      map[string]goal.Goal
	milestones map[string]goal.Milestone
	updateErr  error
}

func newGoalRepoStub() *goalRepoStub {
	return &goalRepoStub{
		goals:      make(map[string]goal.Goal),
		milestones: make(map[string]goal.Milestone),
	}
}

func (s *goalRepoStub) CreateGoal(ctx context.Context, g goal.Goal) (goal.Goal, error) {
	if _, ok := s.goals[g.ID]; ok {
		return goal.Goal{}, persistence.ErrDuplicate
	}
	s.goals[g.ID] = g.Clone()
	return g, nil
}

func (s *goalRepoStub) GetGoal(ctx context.Context, id string) (goal.Goal, error) {
	g, ok := s.goals[id]
	if !ok {
		return goal.Goal{}, persistence.ErrNotFound
	}
	return g.Clone(), nil
}

func (s *goalRepoStub) UpdateGoal(ctx context.Context, g goal.Goal) (goal.Goal, error) {
	if s.updateErr != nil {
		return goal.Goal{}, s.updateErr
	}
	if _, ok := s.goals[g.ID]; !ok {
		return goal.Goal{}, persistence.ErrNotFound
	}
	s.goals[g.ID] = g.Clone()
	return g, nil
}

func (s *goalRepoStub) DeleteGoal(ctx context.Context, id string) error {
	if _, ok := s.goals[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.goals, id)
	for mid, m := range s.milestones {
		if m.GoalID == id {
			delete(s.milestones, mid)
		}
	}
	return nil
}

func (s *goalRepoStub) ListGoals(ctx context.Context) ([]goal.Goal, error) {
	var out []goal.Goal
	for _, g := range s.goals {
		out = append(out, g.Clone())
	}
	return out, nil
}

func (s *goalRepoStub) CreateMilestone(ctx context.Context, m goal.Milestone) (goal.Milestone, error) {
	if _, ok := s.goals[m.GoalID]; !ok {
		return goal.Milestone{}, persistence.ErrForeignKeyViolation
	}
	s.milestones[m.ID] = m.Clone()
	return m, nil
}

func (s *goalRepoStub) GetMilestone(ctx context.Context, id string) (goal.Milestone, error) {
	m, ok := s.milestones[id]
	if !ok {
		return goal.Milestone{}, persistence.ErrNotFound
	}
	return m.Clone(), nil
}

func (s *goalRepoStub) UpdateMilestone(ctx context.Context, m goal.Milestone) (goal.Milestone, error) {
	if _, ok := s.milestones[m.ID]; !ok {
		return goal.Milestone{}, persistence.ErrNotFound
	}
	s.milestones[m.ID] = m.Clone()
	return m, nil
}

func (s *goalRepoStub) DeleteMilestone(ctx context.Context, id string) error {
	if _, ok := s.milestones[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.milestones, id)
	return nil
}

func (s *goalRepoStub) ListMilestonesForGoal(ctx context.Context, goalID string) ([]goal.Milestone, error) {
	var out []goal.Milestone
	for _, m := range s.milestones {
		if m.GoalID == goalID {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

func newTestGoalService(repo *goalRepoStub) *GoalService {
	return NewGoalService(repo, sequentialIDs("goal"), fixedNow)
}

func validGoalInput() GoalInput {
	return GoalInput{
		Title:       "Q2 revenue",
		Category:    "sales",
		Timeframe:   event.TimeframeQuarterly,
		Priority:    event.PriorityHigh,
		TargetValue: 50000,
		Start:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGoalService_CreateGoal(t *testing.T) {
	t.Parallel()

	svc := newTestGoalService(newGoalRepoStub())

	created, err := svc.CreateGoal(context.Background(), validGoalInput())
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	if created.ID != "goal-1" {
		t.Errorf("Expected generated id 'goal-1', got '%s'", created.ID)
	}
	if created.Status != goal.StatusNotStarted {
		t.Errorf("Expected status not-started, got '%s'", created.Status)
	}
	if created.Progress != 0 || created.CurrentValue != 0 {
		t.Errorf("Expected zero progress, got %d/%v", created.Progress, created.CurrentValue)
	}
}

func TestGoalService_CreateGoal_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*GoalInput)
		field  string
	}{
		{"missing title", func(in *GoalInput) { in.Title = "  " }, "title"},
		{"unknown timeframe", func(in *GoalInput) { in.Timeframe = "decade" }, "goalTimeframe"},
		{"negative target", func(in *GoalInput) { in.TargetValue = -1 }, "targetValue"},
		{"missing start", func(in *GoalInput) { in.Start = time.Time{} }, "startDate"},
		{"end before start", func(in *GoalInput) { in.End = in.Start.AddDate(0, 0, -1) }, "endDate"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			input := validGoalInput()
			tt.mutate(&input)

			svc := newTestGoalService(newGoalRepoStub())
			_, err := svc.CreateGoal(context.Background(), input)

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tt.field]; !ok {
				t.Errorf("Expected field error for '%s', got %v", tt.field, vErr.FieldErrors)
			}
		})
	}
}

func TestGoalService_RecordProgress(t *testing.T) {
	t.Parallel()

	repo := newGoalRepoStub()
	svc := newTestGoalService(repo)
	ctx := context.Background()

	created, err := svc.CreateGoal(ctx, validGoalInput())
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	updated, err := svc.RecordProgress(ctx, created.ID, ProgressUpdate{
		Progress:  40,
		Notes:     "pipeline filling",
		TimeSpent: 180,
	})
	if err != nil {
		t.Fatalf("RecordProgress failed: %v", err)
	}
	if updated.Progress != 40 {
		t.Errorf("Expected progress 40, got %d", updated.Progress)
	}
	if updated.CurrentValue != 20000 {
		t.Errorf("Expected current value 20000, got %v", updated.CurrentValue)
	}
	if updated.Status != goal.StatusInProgress {
		t.Errorf("Expected status in-progress, got '%s'", updated.Status)
	}
	if len(updated.History) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(updated.History))
	}
	if !updated.History[0].Date.Equal(fixedNow()) {
		t.Errorf("Expected entry dated %v, got %v", fixedNow(), updated.History[0].Date)
	}

	// A second update appends; it never rewrites existing entries.
	again, err := svc.RecordProgress(ctx, created.ID, ProgressUpdate{Progress: 60})
	if err != nil {
		t.Fatalf("RecordProgress failed: %v", err)
	}
	if len(again.History) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(again.History))
	}
	if again.History[0].Progress != 40 {
		t.Errorf("Expected first entry untouched at 40, got %d", again.History[0].Progress)
	}
}

func TestGoalService_RecordProgress_CompletionIsTerminal(t *testing.T) {
	t.Parallel()

	repo := newGoalRepoStub()
	svc := newTestGoalService(repo)
	ctx := context.Background()

	created, err := svc.CreateGoal(ctx, validGoalInput())
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	if _, err := svc.RecordProgress(ctx, created.ID, ProgressUpdate{Progress: 100}); err != nil {
		t.Fatalf("RecordProgress failed: %v", err)
	}

	// Lowering progress afterwards must not demote the status.
	demoted, err := svc.RecordProgress(ctx, created.ID, ProgressUpdate{Progress: 80})
	if err != nil {
		t.Fatalf("RecordProgress failed: %v", err)
	}
	if demoted.Status != goal.StatusCompleted {
		t.Errorf("Expected status to stay completed, got '%s'", demoted.Status)
	}
}

func TestGoalService_RecordProgress_OutOfRange(t *testing.T) {
	t.Parallel()

	svc := newTestGoalService(newGoalRepoStub())
	_, err := svc.RecordProgress(context.Background(), "goal-1", ProgressUpdate{Progress: 120})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["progress"]; !ok {
		t.Errorf("Expected progress field error, got %v", vErr.FieldErrors)
	}
}

func TestGoalService_RecordProgress_RejectsBackdatedEntry(t *testing.T) {
	t.Parallel()

	repo := newGoalRepoStub()
	svc := newTestGoalService(repo)
	ctx := context.Background()

	created, err := svc.CreateGoal(ctx, validGoalInput())
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	if _, err := svc.RecordProgress(ctx, created.ID, ProgressUpdate{Progress: 40}); err != nil {
		t.Fatalf("RecordProgress failed: %v", err)
	}

	_, err = svc.RecordProgress(ctx, created.ID, ProgressUpdate{
		Progress: 50,
		Date:     fixedNow().AddDate(0, 0, -2),
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["date"]; !ok {
		t.Errorf("Expected date field error, got %v", vErr.FieldErrors)
	}

	// The rejected entry must not land in the history.
	stored := repo.goals[created.ID]
	if len(stored.History) != 1 || stored.Progress != 40 {
		t.Fatalf("goal changed by rejected update: %+v", stored)
	}

	// A same-date correction is still allowed.
	if _, err := svc.RecordProgress(ctx, created.ID, ProgressUpdate{Progress: 45, Date: fixedNow()}); err != nil {
		t.Fatalf("RecordProgress with same-day date failed: %v", err)
	}
}

func TestGoalService_Insights(t *testing.T) {
	t.Parallel()

	repo := newGoalRepoStub()
	svc := newTestGoalService(repo)
	ctx := context.Background()

	created, err := svc.CreateGoal(ctx, validGoalInput())
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	// Seed two entries a week apart so the trailing window has a slope.
	g := repo.goals[created.ID]
	g.History = []goal.ProgressEntry{
		{Date: fixedNow().AddDate(0, 0, -7), Progress: 20},
		{Date: fixedNow(), Progress: 40},
	}
	g.Progress = 40
	repo.goals[created.ID] = g

	insights, err := svc.Insights(ctx, created.ID)
	if err != nil {
		t.Fatalf("Insights failed: %v", err)
	}
	wantVelocity := 20.0 / 7.0
	if diff := insights.Velocity - wantVelocity; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Expected velocity %v, got %v", wantVelocity, insights.Velocity)
	}
	if insights.EstimatedCompletion == nil {
		t.Fatal("Expected a completion estimate")
	}
	wantDays := 21.0
	gotDays := insights.EstimatedCompletion.Sub(fixedNow()).Hours() / 24
	if gotDays < wantDays-0.01 || gotDays > wantDays+0.01 {
		t.Errorf("Expected completion in ~%v days, got %v", wantDays, gotDays)
	}
}

func TestGoalService_CheckDependencies(t *testing.T) {
	t.Parallel()

	repo := newGoalRepoStub()
	svc := newTestGoalService(repo)
	ctx := context.Background()

	done, err := svc.CreateGoal(ctx, validGoalInput())
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	if _, err := svc.RecordProgress(ctx, done.ID, ProgressUpdate{Progress: 100}); err != nil {
		t.Fatalf("RecordProgress failed: %v", err)
	}

	pendingInput := validGoalInput()
	pendingInput.Title = "Hiring plan"
	pending, err := svc.CreateGoal(ctx, pendingInput)
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	dependentInput := validGoalInput()
	dependentInput.Title = "Office expansion"
	dependentInput.Dependencies = []string{done.ID, pending.ID, "missing"}
	dependent, err := svc.CreateGoal(ctx, dependentInput)
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	advisory, err := svc.CheckDependencies(ctx, dependent.ID)
	if err != nil {
		t.Fatalf("CheckDependencies failed: %v", err)
	}
	if len(advisory.MissingIDs) != 1 || advisory.MissingIDs[0] != "missing" {
		t.Errorf("Expected missing ['missing'], got %v", advisory.MissingIDs)
	}
	if len(advisory.BlockingIDs) != 1 || advisory.BlockingIDs[0] != pending.ID {
		t.Errorf("Expected blocking ['%s'], got %v", pending.ID, advisory.BlockingIDs)
	}
}

func TestGoalService_MilestoneLifecycle(t *testing.T) {
	t.Parallel()

	repo := newGoalRepoStub()
	svc := newTestGoalService(repo)
	ctx := context.Background()

	created, err := svc.CreateGoal(ctx, validGoalInput())
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	m, err := svc.CreateMilestone(ctx, MilestoneInput{
		GoalID: created.ID,
		Title:  "First 10k",
		Due:    time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateMilestone failed: %v", err)
	}
	if m.Status != goal.StatusNotStarted {
		t.Errorf("Expected status not-started, got '%s'", m.Status)
	}

	updated, err := svc.UpdateMilestoneProgress(ctx, m.ID, 100)
	if err != nil {
		t.Fatalf("UpdateMilestoneProgress failed: %v", err)
	}
	if updated.Status != goal.StatusCompleted {
		t.Errorf("Expected status completed, got '%s'", updated.Status)
	}

	milestones, err := svc.ListMilestones(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListMilestones failed: %v", err)
	}
	if len(milestones) != 1 {
		t.Errorf("Expected 1 milestone, got %d", len(milestones))
	}
}

func TestGoalService_CreateMilestone_UnknownGoal(t *testing.T) {
	t.Parallel()

	svc := newTestGoalService(newGoalRepoStub())
	_, err := svc.CreateMilestone(context.Background(), MilestoneInput{
		GoalID: "missing",
		Title:  "Orphan",
		Due:    time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["goalId"]; !ok {
		t.Errorf("Expected goalId field error, got %v", vErr.FieldErrors)
	}
}

func TestGoalService_CalendarProjection(t *testing.T) {
	t.Parallel()

	repo := newGoalRepoStub()
	svc := newTestGoalService(repo)
	ctx := context.Background()

	created, err := svc.CreateGoal(ctx, validGoalInput())
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	m, err := svc.CreateMilestone(ctx, MilestoneInput{
		GoalID: created.ID,
		Title:  "First 10k",
		Due:    time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateMilestone failed: %v", err)
	}

	events, err := svc.CalendarProjection(ctx)
	if err != nil {
		t.Fatalf("CalendarProjection failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 projected events, got %d", len(events))
	}
	if events[0].ID != created.ID || events[0].Type != event.TypeGoal {
		t.Errorf("Expected goal projection first, got %+v", events[0])
	}
	if events[1].ID != m.ID || events[1].Type != event.TypeMilestone {
		t.Errorf("Expected milestone projection second, got %+v", events[1])
	}
	if events[1].Metadata["goalId"] != created.ID {
		t.Errorf("Expected milestone metadata to reference the goal, got %v", events[1].Metadata)
	}
}
