package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/calendar-core/internal/event"
	"github.com/example/calendar-core/internal/persistence"
)

// EventRepository implements persistence.EventRepository on SQLite.
type EventRepository struct {
	pool *ConnectionPool
}

// NewEventRepository creates an event repository over the pool.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `id, type, title, description, notes, location, start_time, end_time, duration,
	priority, client_id, client_name, goal_timeframe, progress_target, current_progress,
	dependencies, metadata, series_id, created_at, updated_at`

// CreateEvent inserts a new event.
func (r *EventRepository) CreateEvent(ctx context.Context, ev event.Event) (event.Event, error) {
	if ev.ID == "" {
		return event.Event{}, persistence.ErrConstraintViolation
	}
	args, err := eventArgs(ev)
	if err != nil {
		return event.Event{}, err
	}

	query := `INSERT INTO events (` + eventColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.pool.db.ExecContext(ctx, query, args...); err != nil {
		return event.Event{}, mapError(err)
	}
	return ev, nil
}

// GetEvent fetches an event by id.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (event.Event, error) {
	if id == "" {
		return event.Event{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if err != nil {
		return event.Event{}, mapError(err)
	}
	return ev, nil
}

// UpdateEvent replaces a stored event.
func (r *EventRepository) UpdateEvent(ctx context.Context, ev event.Event) (event.Event, error) {
	args, err := eventArgs(ev)
	if err != nil {
		return event.Event{}, err
	}
	// Shift id from the front of the insert ordering to the WHERE clause.
	args = append(args[1:], ev.ID)

	query := `UPDATE events SET
		type = ?, title = ?, description = ?, notes = ?, location = ?, start_time = ?, end_time = ?,
		duration = ?, priority = ?, client_id = ?, client_name = ?, goal_timeframe = ?,
		progress_target = ?, current_progress = ?, dependencies = ?, metadata = ?, series_id = ?,
		created_at = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.pool.db.ExecContext(ctx, query, args...)
	if err != nil {
		return event.Event{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return event.Event{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return event.Event{}, persistence.ErrNotFound
	}
	return ev, nil
}

// DeleteEvent removes an event by id.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
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

// DeleteEvents removes the given ids inside one transaction. Any id that
// does not delete exactly one row aborts and rolls back the whole batch.
func (r *EventRepository) DeleteEvents(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var failed []string
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			result, err := tx.Exec(`DELETE FROM events WHERE id = ?`, id)
			if err != nil {
				failed = append(failed, id)
				return mapError(err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if affected == 0 {
				failed = append(failed, id)
				return persistence.ErrNotFound
			}
		}
		return nil
	})
	if err != nil {
		if len(failed) > 0 {
			return &persistence.BatchDeleteError{FailedIDs: failed}
		}
		return err
	}
	return nil
}

// ListEvents returns events matching the filter ordered by start time then
// id. The free-text query reuses the shared matcher so search semantics
// stay identical to the in-memory store.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]event.Event, error) {
	query, args := buildListQuery(filter)

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, mapError(err)
		}
		// The lower range bound depends on the effective end, which for
		// open-ended events is start plus duration. That is simpler to
		// evaluate here than in SQL against wall-clock text columns.
		if filter.StartsAfter != nil && !ev.EffectiveEnd().After(*filter.StartsAfter) {
			continue
		}
		if !persistence.MatchesQuery(ev, filter.Query) {
			continue
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return events, nil
}

func buildListQuery(filter persistence.EventFilter) (string, []any) {
	query := `SELECT ` + eventColumns + ` FROM events`

	var conditions []string
	var args []any

	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		conditions = append(conditions, fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ClientID != "" {
		conditions = append(conditions, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.SeriesID != "" {
		conditions = append(conditions, "series_id = ?")
		args = append(args, filter.SeriesID)
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, event.FormatTime(*filter.EndsBefore))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"
	return query, args
}

func eventArgs(ev event.Event) ([]any, error) {
	dependencies, err := json.Marshal(dependenciesOrEmpty(ev.Dependencies))
	if err != nil {
		return nil, fmt.Errorf("marshal dependencies: %w", err)
	}
	metadata, err := json.Marshal(metadataOrEmpty(ev.Metadata))
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	var endTime sql.NullString
	if !ev.End.IsZero() {
		endTime = sql.NullString{String: event.FormatTime(ev.End), Valid: true}
	}

	return []any{
		ev.ID,
		string(ev.Type),
		ev.Title,
		ev.Description,
		ev.Notes,
		ev.Location,
		event.FormatTime(ev.Start),
		endTime,
		ev.Duration,
		string(ev.Priority),
		ev.ClientID,
		ev.ClientName,
		string(ev.GoalTimeframe),
		nullableInt(ev.ProgressTarget),
		nullableInt(ev.CurrentProgress),
		string(dependencies),
		string(metadata),
		ev.SeriesID,
		event.FormatTime(ev.CreatedAt),
		event.FormatTime(ev.UpdatedAt),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (event.Event, error) {
	var ev event.Event
	var typ, priority, timeframe string
	var startStr, createdStr, updatedStr string
	var endStr sql.NullString
	var progressTarget, currentProgress sql.NullInt64
	var dependenciesJSON, metadataJSON string

	err := row.Scan(
		&ev.ID,
		&typ,
		&ev.Title,
		&ev.Description,
		&ev.Notes,
		&ev.Location,
		&startStr,
		&endStr,
		&ev.Duration,
		&priority,
		&ev.ClientID,
		&ev.ClientName,
		&timeframe,
		&progressTarget,
		&currentProgress,
		&dependenciesJSON,
		&metadataJSON,
		&ev.SeriesID,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return event.Event{}, err
	}

	ev.Type = event.Type(typ)
	ev.Priority = event.Priority(priority)
	ev.GoalTimeframe = event.Timeframe(timeframe)

	if ev.Start, err = event.ParseTime(startStr); err != nil {
		return event.Event{}, fmt.Errorf("parse start_time: %w", err)
	}
	if endStr.Valid {
		if ev.End, err = event.ParseTime(endStr.String); err != nil {
			return event.Event{}, fmt.Errorf("parse end_time: %w", err)
		}
	}
	if ev.CreatedAt, err = event.ParseTime(createdStr); err != nil {
		return event.Event{}, fmt.Errorf("parse created_at: %w", err)
	}
	if ev.UpdatedAt, err = event.ParseTime(updatedStr); err != nil {
		return event.Event{}, fmt.Errorf("parse updated_at: %w", err)
	}

	if progressTarget.Valid {
		v := int(progressTarget.Int64)
		ev.ProgressTarget = &v
	}
	if currentProgress.Valid {
		v := int(currentProgress.Int64)
		ev.CurrentProgress = &v
	}

	var dependencies []string
	if err := json.Unmarshal([]byte(dependenciesJSON), &dependencies); err != nil {
		return event.Event{}, fmt.Errorf("unmarshal dependencies: %w", err)
	}
	if len(dependencies) > 0 {
		ev.Dependencies = dependencies
	}
	var metadata map[string]any
	if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
		return event.Event{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if len(metadata) > 0 {
		ev.Metadata = metadata
	}

	return ev, nil
}

func dependenciesOrEmpty(deps []string) []string {
	if deps == nil {
		return []string{}
	}
	return deps
}

func metadataOrEmpty(metadata map[string]any) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}
	return metadata
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
