package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/goal"
	"github.com/example/calendar-core/internal/persistence"
)

// GoalRepository implements persistence.GoalRepository on SQLite. Progress
// history lives in its own table; milestone ids are derived from the
// milestones table on read rather than stored on the goal row.
type GoalRepository struct {
	pool *ConnectionPool
}

// NewGoalRepository creates a goal repository over the pool.
func NewGoalRepository(pool *ConnectionPool) *GoalRepository {
	return &GoalRepository{pool: pool}
}

const goalColumns = `id, title, category, timeframe, priority, status, progress,
	target_value, current_value, start_date, end_date, dependencies, created_at, updated_at`

const milestoneColumns = `id, goal_id, title, due_date, progress, status, dependencies, created_at, updated_at`

// CreateGoal inserts a goal together with its initial progress history.
func (r *GoalRepository) CreateGoal(ctx context.Context, g goal.Goal) (goal.Goal, error) {
	if g.ID == "" {
		return goal.Goal{}, persistence.ErrConstraintViolation
	}
	args, err := goalArgs(g)
	if err != nil {
		return goal.Goal{}, err
	}

	err = r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO goals (` + goalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		if _, err := tx.Exec(query, args...); err != nil {
			return mapError(err)
		}
		return insertHistory(tx, g.ID, g.History)
	})
	if err != nil {
		return goal.Goal{}, err
	}
	return g, nil
}

// GetGoal fetches a goal with its history and milestone ids.
func (r *GoalRepository) GetGoal(ctx context.Context, id string) (goal.Goal, error) {
	if id == "" {
		return goal.Goal{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err != nil {
		return goal.Goal{}, mapError(err)
	}
	if err := r.attachGoalDetails(ctx, &g); err != nil {
		return goal.Goal{}, err
	}
	return g, nil
}

// UpdateGoal replaces the stored goal and rewrites its progress history to
// match the given snapshot.
func (r *GoalRepository) UpdateGoal(ctx context.Context, g goal.Goal) (goal.Goal, error) {
	args, err := goalArgs(g)
	if err != nil {
		return goal.Goal{}, err
	}
	args = append(args[1:], g.ID)

	err = r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `UPDATE goals SET
			title = ?, category = ?, timeframe = ?, priority = ?, status = ?, progress = ?,
			target_value = ?, current_value = ?, start_date = ?, end_date = ?, dependencies = ?,
			created_at = ?, updated_at = ?
			WHERE id = ?`
		result, err := tx.Exec(query, args...)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		if _, err := tx.Exec(`DELETE FROM progress_entries WHERE goal_id = ?`, g.ID); err != nil {
			return mapError(err)
		}
		return insertHistory(tx, g.ID, g.History)
	})
	if err != nil {
		return goal.Goal{}, err
	}
	return g, nil
}

// DeleteGoal removes a goal. Milestones and progress entries cascade via
// foreign keys.
func (r *GoalRepository) DeleteGoal(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListGoals returns all goals ordered by start date then id.
func (r *GoalRepository) ListGoals(ctx context.Context) ([]goal.Goal, error) {
	rows, err := r.pool.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM goals ORDER BY start_date ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var goals []goal.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, mapError(err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for i := range goals {
		if err := r.attachGoalDetails(ctx, &goals[i]); err != nil {
			return nil, err
		}
	}
	return goals, nil
}

// CreateMilestone inserts a milestone. The referenced goal must exist.
func (r *GoalRepository) CreateMilestone(ctx context.Context, m goal.Milestone) (goal.Milestone, error) {
	if m.ID == "" {
		return goal.Milestone{}, persistence.ErrConstraintViolation
	}
	args, err := milestoneArgs(m)
	if err != nil {
		return goal.Milestone{}, err
	}

	query := `INSERT INTO milestones (` + milestoneColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.pool.db.ExecContext(ctx, query, args...); err != nil {
		return goal.Milestone{}, mapError(err)
	}
	return m, nil
}

// GetMilestone fetches a milestone by id.
func (r *GoalRepository) GetMilestone(ctx context.Context, id string) (goal.Milestone, error) {
	if id == "" {
		return goal.Milestone{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+milestoneColumns+` FROM milestones WHERE id = ?`, id)
	m, err := scanMilestone(row)
	if err != nil {
		return goal.Milestone{}, mapError(err)
	}
	return m, nil
}

// UpdateMilestone replaces a stored milestone.
func (r *GoalRepository) UpdateMilestone(ctx context.Context, m goal.Milestone) (goal.Milestone, error) {
	args, err := milestoneArgs(m)
	if err != nil {
		return goal.Milestone{}, err
	}
	args = append(args[1:], m.ID)

	query := `UPDATE milestones SET
		goal_id = ?, title = ?, due_date = ?, progress = ?, status = ?, dependencies = ?,
		created_at = ?, updated_at = ?
		WHERE id = ?`
	result, err := r.pool.db.ExecContext(ctx, query, args...)
	if err != nil {
		return goal.Milestone{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return goal.Milestone{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return goal.Milestone{}, persistence.ErrNotFound
	}
	return m, nil
}

// DeleteMilestone removes a milestone by id.
func (r *GoalRepository) DeleteMilestone(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM milestones WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListMilestonesForGoal returns a goal's milestones ordered by due date
// then id.
func (r *GoalRepository) ListMilestonesForGoal(ctx context.Context, goalID string) ([]goal.Milestone, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT `+milestoneColumns+` FROM milestones WHERE goal_id = ? ORDER BY due_date ASC, id ASC`, goalID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var milestones []goal.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, mapError(err)
		}
		milestones = append(milestones, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return milestones, nil
}

func (r *GoalRepository) attachGoalDetails(ctx context.Context, g *goal.Goal) error {
	history, err := r.loadHistory(ctx, g.ID)
	if err != nil {
		return err
	}
	g.History = history

	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT id FROM milestones WHERE goal_id = ? ORDER BY due_date ASC, id ASC`, g.ID)
	if err != nil {
		return mapError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return mapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return mapError(err)
	}
	g.MilestoneIDs = ids
	return nil
}

func (r *GoalRepository) loadHistory(ctx context.Context, goalID string) ([]goal.ProgressEntry, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT entry_date, progress, notes, time_spent FROM progress_entries
		 WHERE goal_id = ? ORDER BY entry_date ASC, rowid ASC`, goalID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var history []goal.ProgressEntry
	for rows.Next() {
		var entry goal.ProgressEntry
		var dateStr string
		if err := rows.Scan(&dateStr, &entry.Progress, &entry.Notes, &entry.TimeSpent); err != nil {
			return nil, mapError(err)
		}
		if entry.Date, err = event.ParseTime(dateStr); err != nil {
			return nil, fmt.Errorf("parse entry_date: %w", err)
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return history, nil
}

func insertHistory(tx *sql.Tx, goalID string, history []goal.ProgressEntry) error {
	for _, entry := range history {
		_, err := tx.Exec(
			`INSERT INTO progress_entries (goal_id, entry_date, progress, notes, time_spent) VALUES (?, ?, ?, ?, ?)`,
			goalID, event.FormatTime(entry.Date), entry.Progress, entry.Notes, entry.TimeSpent)
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}

func goalArgs(g goal.Goal) ([]any, error) {
	dependencies, err := json.Marshal(dependenciesOrEmpty(g.Dependencies))
	if err != nil {
		return nil, fmt.Errorf("marshal dependencies: %w", err)
	}
	return []any{
		g.ID,
		g.Title,
		g.Category,
		string(g.Timeframe),
		string(g.Priority),
		string(g.Status),
		g.Progress,
		g.TargetValue,
		g.CurrentValue,
		event.FormatTime(g.Start),
		event.FormatTime(g.End),
		string(dependencies),
		event.FormatTime(g.CreatedAt),
		event.FormatTime(g.UpdatedAt),
	}, nil
}

func milestoneArgs(m goal.Milestone) ([]any, error) {
	dependencies, err := json.Marshal(dependenciesOrEmpty(m.Dependencies))
	if err != nil {
		return nil, fmt.Errorf("marshal dependencies: %w", err)
	}
	return []any{
		m.ID,
		m.GoalID,
		m.Title,
		event.FormatTime(m.Due),
		m.Progress,
		string(m.Status),
		string(dependencies),
		event.FormatTime(m.CreatedAt),
		event.FormatTime(m.UpdatedAt),
	}, nil
}

func scanGoal(row rowScanner) (goal.Goal, error) {
	var g goal.Goal
	var timeframe, priority, status string
	var startStr, endStr, createdStr, updatedStr string
	var dependenciesJSON string

	err := row.Scan(
		&g.ID,
		&g.Title,
		&g.Category,
		&timeframe,
		&priority,
		&status,
		&g.Progress,
		&g.TargetValue,
		&g.CurrentValue,
		&startStr,
		&endStr,
		&dependenciesJSON,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return goal.Goal{}, err
	}

	g.Timeframe = event.Timeframe(timeframe)
	g.Priority = event.Priority(priority)
	g.Status = goal.Status(status)

	if g.Start, err = event.ParseTime(startStr); err != nil {
		return goal.Goal{}, fmt.Errorf("parse start_date: %w", err)
	}
	if g.End, err = event.ParseTime(endStr); err != nil {
		return goal.Goal{}, fmt.Errorf("parse end_date: %w", err)
	}
	if g.CreatedAt, err = event.ParseTime(createdStr); err != nil {
		return goal.Goal{}, fmt.Errorf("parse created_at: %w", err)
	}
	if g.UpdatedAt, err = event.ParseTime(updatedStr); err != nil {
		return goal.Goal{}, fmt.Errorf("parse updated_at: %w", err)
	}

	var dependencies []string
	if err := json.Unmarshal([]byte(dependenciesJSON), &dependencies); err != nil {
		return goal.Goal{}, fmt.Errorf("unmarshal dependencies: %w", err)
	}
	if len(dependencies) > 0 {
		g.Dependencies = dependencies
	}
	return g, nil
}

func scanMilestone(row rowScanner) (goal.Milestone, error) {
	var m goal.Milestone
	var status string
	var dueStr, createdStr, updatedStr string
	var dependenciesJSON string

	err := row.Scan(
		&m.ID,
		&m.GoalID,
		&m.Title,
		&dueStr,
		&m.Progress,
		&status,
		&dependenciesJSON,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return goal.Milestone{}, err
	}

	m.Status = goal.Status(status)
	if m.Due, err = event.ParseTime(dueStr); err != nil {
		return goal.Milestone{}, fmt.Errorf("parse due_date: %w", err)
	}
	if m.CreatedAt, err = event.ParseTime(createdStr); err != nil {
		return goal.Milestone{}, fmt.Errorf("parse created_at: %w", err)
	}
	if m.UpdatedAt, err = event.ParseTime(updatedStr); err != nil {
		return goal.Milestone{}, fmt.Errorf("parse updated_at: %w", err)
	}

	var dependencies []string
	if err := json.Unmarshal([]byte(dependenciesJSON), &dependencies); err != nil {
		return goal.Milestone{}, fmt.Errorf("unmarshal dependencies: %w", err)
	}
	if len(dependencies) > 0 {
		m.Dependencies = dependencies
	}
	return m, nil
}
