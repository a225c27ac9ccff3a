package recurrence

import "errors"

// DeleteOption selects the scope of a partial-series deletion relative to
// one chosen occurrence.
type DeleteOption string

const (
	// DeleteThisOnly removes just the selected occurrence.
	DeleteThisOnly DeleteOption = "this_only"
	// DeleteAllPrevious removes every occurrence before the selected one,
	// leaving the selected occurrence in place.
	DeleteAllPrevious DeleteOption = "all_previous"
	// DeleteThisAndFollowing removes the selected occurrence and everything
	// after it.
	DeleteThisAndFollowing DeleteOption = "this_and_following"
	// DeleteAll removes the whole series.
	DeleteAll DeleteOption = "all"
)

// Valid reports whether the option is one of the supported scopes.
func (o DeleteOption) Valid() bool {
	switch o {
	case DeleteThisOnly, DeleteAllPrevious, DeleteThisAndFollowing, DeleteAll:
		return true
	}
	return false
}

var (
	// ErrInvalidDeleteOption indicates an unsupported deletion scope.
	ErrInvalidDeleteOption = errors.New("recurrence: invalid delete option")
	// ErrIndexOutOfRange indicates the selected occurrence index does not
	// exist in the series.
	ErrIndexOutOfRange = errors.New("recurrence: occurrence index out of range")
)

// PlanDelete resolves a deletion scope into the chronological indices to
// remove from a series of the given length. Planning is pure; executing the
// plan transactionally is the caller's responsibility.
func PlanDelete(seriesLen, index int, option DeleteOption) ([]int, error) {
	if !option.Valid() {
		return nil, ErrInvalidDeleteOption
	}
	if seriesLen <= 0 || index < 0 || index >= seriesLen {
		return nil, ErrIndexOutOfRange
	}

	var lo, hi int // half-open [lo, hi)
	switch option {
	case DeleteThisOnly:
		lo, hi = index, index+1
	case DeleteAllPrevious:
		lo, hi = 0, index
	case DeleteThisAndFollowing:
		lo, hi = index, seriesLen
	case DeleteAll:
		lo, hi = 0, seriesLen
	}

	indices := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		indices = append(indices, i)
	}
	return indices, nil
}
