package sqlite

import "fmt"

// migrations apply in order; PRAGMA user_version tracks the last applied
// index so existing databases only run what they are missing.
var migrations = []string{
	`CREATE TABLE events (
		id               TEXT PRIMARY KEY,
		type             TEXT NOT NULL,
		title            TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		notes            TEXT NOT NULL DEFAULT '',
		location         TEXT NOT NULL DEFAULT '',
		start_time       TEXT NOT NULL,
		end_time         TEXT,
		duration         INTEGER NOT NULL DEFAULT 60,
		priority         TEXT NOT NULL,
		client_id        TEXT NOT NULL DEFAULT '',
		client_name      TEXT NOT NULL DEFAULT '',
		goal_timeframe   TEXT NOT NULL DEFAULT '',
		progress_target  INTEGER,
		current_progress INTEGER,
		dependencies     TEXT NOT NULL DEFAULT '[]',
		metadata         TEXT NOT NULL DEFAULT '{}',
		series_id        TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL,
		CHECK (end_time IS NULL OR end_time > start_time)
	);
	CREATE INDEX idx_events_start ON events(start_time);
	CREATE INDEX idx_events_series ON events(series_id);
	CREATE INDEX idx_events_client ON events(client_id);

	CREATE TABLE goals (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL,
		category      TEXT NOT NULL DEFAULT '',
		timeframe     TEXT NOT NULL,
		priority      TEXT NOT NULL,
		status        TEXT NOT NULL,
		progress      INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
		target_value  REAL NOT NULL DEFAULT 0,
		current_value REAL NOT NULL DEFAULT 0,
		start_date    TEXT NOT NULL,
		end_date      TEXT NOT NULL,
		dependencies  TEXT NOT NULL DEFAULT '[]',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL,
		CHECK (end_date > start_date)
	);

	CREATE TABLE milestones (
		id           TEXT PRIMARY KEY,
		goal_id      TEXT NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
		title        TEXT NOT NULL,
		due_date     TEXT NOT NULL,
		progress     INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
		status       TEXT NOT NULL,
		dependencies TEXT NOT NULL DEFAULT '[]',
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	);
	CREATE INDEX idx_milestones_goal ON milestones(goal_id);

	CREATE TABLE progress_entries (
		goal_id    TEXT NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
		entry_date TEXT NOT NULL,
		progress   INTEGER NOT NULL CHECK (progress BETWEEN 0 AND 100),
		notes      TEXT NOT NULL DEFAULT '',
		time_spent INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX idx_progress_goal ON progress_entries(goal_id, entry_date);`,
}

func (cp *ConnectionPool) migrate() error {
	var version int
	if err := cp.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		tx, err := cp.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("bump user_version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}
	return nil
}
