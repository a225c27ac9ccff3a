// Package persistence defines the repository contracts the application
// services depend on, together with the error taxonomy adapters translate
// their backend failures into.
package persistence

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a record with the same id already exists.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrConstraintViolation is returned when a stored invariant is violated.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)

// BatchDeleteError reports a multi-record delete that was aborted. The
// operation is all-or-nothing: when this error is returned no record was
// removed and the store remains in its pre-operation state.
type BatchDeleteError struct {
	// FailedIDs lists the ids whose deletion failed and caused the abort.
	FailedIDs []string
}

// Error implements the error interface.
func (e *BatchDeleteError) Error() string {
	if e == nil || len(e.FailedIDs) == 0 {
		return "persistence: batch delete aborted"
	}
	return fmt.Sprintf("persistence: batch delete aborted, failed ids: %s", strings.Join(e.FailedIDs, ", "))
}
