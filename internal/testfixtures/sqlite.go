package testfixtures

import (
	"path/filepath"
	"testing"

	"github.com/example/calendar-core/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool   *sqlite.ConnectionPool
	Events *sqlite.EventRepository
	Goals  *sqlite.GoalRepository
}

// NewSQLiteHarness opens a database file under the test's temp directory.
// The pool closes automatically when the test finishes.
func NewSQLiteHarness(t *testing.T) *SQLiteHarness {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "calendar-fixture.db")
	pool, err := sqlite.Open(dsn)
	if err != nil {
		t.Fatalf("open sqlite fixture: %v", err)
	}
	t.Cleanup(func() {
		pool.Close()
	})

	return &SQLiteHarness{
		Pool:   pool,
		Events: sqlite.NewEventRepository(pool),
		Goals:  sqlite.NewGoalRepository(pool),
	}
}
