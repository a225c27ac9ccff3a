// Package interaction models the interactive resize and drag of calendar
// event blocks as an explicit state machine. Pointer movement produces a
// snapped preview without touching the store; the final start and end are
// only handed back on release, and a cancellation reverts to the captured
// original at any point before commit.
package interaction

import (
	"errors"
	"math"
	"time"

	"github.com/example/calendar-core/internal/event"
)

// State names the interaction phase of one event block.
type State string

const (
	// StateIdle means no interaction is in flight.
	StateIdle State = "idle"
	// StateResizing means a handle is grabbed and the block edge follows the
	// pointer.
	StateResizing State = "resizing"
	// StateDragging means the whole block follows the pointer at constant
	// duration.
	StateDragging State = "dragging"
	// StatePendingConfirm means the pointer was released on a recurring
	// event and the commit waits for the caller's scope decision.
	StatePendingConfirm State = "pending_confirm"
)

// Handle identifies which edge of the block was grabbed. Corner handles
// exist in week view and anchor the same edge as their top or bottom
// counterpart on the time axis.
type Handle string

const (
	HandleTop         Handle = "top"
	HandleBottom      Handle = "bottom"
	HandleTopLeft     Handle = "top-left"
	HandleTopRight    Handle = "top-right"
	HandleBottomLeft  Handle = "bottom-left"
	HandleBottomRight Handle = "bottom-right"
)

// movesStart reports whether the handle adjusts the start edge.
func (h Handle) movesStart() (bool, error) {
	switch h {
	case HandleTop, HandleTopLeft, HandleTopRight:
		return true, nil
	case HandleBottom, HandleBottomLeft, HandleBottomRight:
		return false, nil
	}
	return false, ErrUnknownHandle
}

// CommitScope selects what a confirmed commit applies to.
type CommitScope string

const (
	// ScopeOccurrence applies the change to the grabbed occurrence only.
	ScopeOccurrence CommitScope = "occurrence"
	// ScopeSeries applies the change to the whole series.
	ScopeSeries CommitScope = "series"
)

var (
	// ErrInteractionActive rejects starting a resize or drag while another
	// interaction is in flight on the same event.
	ErrInteractionActive = errors.New("interaction: another interaction is active")
	// ErrNoInteraction rejects movement or release without a prior begin.
	ErrNoInteraction = errors.New("interaction: no interaction in progress")
	// ErrUnknownHandle rejects an unrecognized resize handle.
	ErrUnknownHandle = errors.New("interaction: unknown handle")
	// ErrNotPending rejects a confirmation when no commit is waiting.
	ErrNotPending = errors.New("interaction: no commit pending confirmation")
)

// Config tunes the pixel-to-time conversion and the safety floors.
type Config struct {
	SnapMinutes        int
	MinDurationMinutes int
	PixelsPerHour      float64
	// ConfirmSeriesCommit defers the commit of recurring events until the
	// caller confirms whether it applies to the occurrence or the series.
	ConfirmSeriesCommit bool
}

const (
	defaultSnapMinutes        = 15
	defaultMinDurationMinutes = 15
	defaultPixelsPerHour      = 60
)

func (c Config) withDefaults() Config {
	if c.SnapMinutes <= 0 {
		c.SnapMinutes = defaultSnapMinutes
	}
	if c.MinDurationMinutes <= 0 {
		c.MinDurationMinutes = defaultMinDurationMinutes
	}
	if c.PixelsPerHour <= 0 {
		c.PixelsPerHour = defaultPixelsPerHour
	}
	return c
}

// Update is the final placement handed to the caller on commit.
type Update struct {
	EventID string
	Start   time.Time
	End     time.Time
	Scope   CommitScope
}

// Machine tracks the interaction state of a single event block.
type Machine struct {
	cfg   Config
	state State

	eventID   string
	recurring bool

	originalStart time.Time
	originalEnd   time.Time
	previewStart  time.Time
	previewEnd    time.Time

	movesStart bool // resize only
}

// NewMachine returns an idle machine with defaults applied to the config.
func NewMachine(cfg Config) *Machine {
	return &Machine{cfg: cfg.withDefaults(), state: StateIdle}
}

// State reports the current interaction phase.
func (m *Machine) State() State {
	return m.state
}

// BeginResize captures the event's placement and enters the resizing state.
// Starting while any interaction is active is illegal.
func (m *Machine) BeginResize(ev event.Event, handle Handle) error {
	if m.state != StateIdle {
		return ErrInteractionActive
	}
	movesStart, err := handle.movesStart()
	if err != nil {
		return err
	}
	m.capture(ev)
	m.movesStart = movesStart
	m.state = StateResizing
	return nil
}

// BeginDrag captures the event's placement and enters the dragging state.
func (m *Machine) BeginDrag(ev event.Event) error {
	if m.state != StateIdle {
		return ErrInteractionActive
	}
	m.capture(ev)
	m.state = StateDragging
	return nil
}

func (m *Machine) capture(ev event.Event) {
	m.eventID = ev.ID
	m.recurring = ev.Recurring()
	m.originalStart, m.originalEnd = ev.Interval()
	m.previewStart, m.previewEnd = m.originalStart, m.originalEnd
}

// MoveBy converts a cumulative pointer offset (pixels from the grab point,
// positive downward) into the snapped preview placement. The store is never
// mutated; callers render the returned preview.
func (m *Machine) MoveBy(pixelDelta float64) (time.Time, time.Time, error) {
	switch m.state {
	case StateResizing:
		m.applyResize(pixelDelta)
	case StateDragging:
		m.applyDrag(pixelDelta)
	default:
		return time.Time{}, time.Time{}, ErrNoInteraction
	}
	return m.previewStart, m.previewEnd, nil
}

func (m *Machine) applyResize(pixelDelta float64) {
	delta := m.snappedDelta(pixelDelta)
	floor := time.Duration(m.cfg.MinDurationMinutes) * time.Minute

	if m.movesStart {
		start := m.originalStart.Add(delta)
		if latest := m.originalEnd.Add(-floor); start.After(latest) {
			start = latest
		}
		m.previewStart = start
		m.previewEnd = m.originalEnd
		return
	}

	end := m.originalEnd.Add(delta)
	if earliest := m.originalStart.Add(floor); end.Before(earliest) {
		end = earliest
	}
	m.previewStart = m.originalStart
	m.previewEnd = end
}

func (m *Machine) applyDrag(pixelDelta float64) {
	duration := m.originalEnd.Sub(m.originalStart)
	start := snapToGrid(m.originalStart.Add(m.rawDelta(pixelDelta)), m.cfg.SnapMinutes)
	m.previewStart = start
	m.previewEnd = start.Add(duration)
}

// rawDelta converts pixels to whole minutes.
func (m *Machine) rawDelta(pixelDelta float64) time.Duration {
	minutes := math.Round(pixelDelta / m.cfg.PixelsPerHour * 60)
	return time.Duration(minutes) * time.Minute
}

// snappedDelta rounds the pixel-derived minute delta to the nearest snap
// interval.
func (m *Machine) snappedDelta(pixelDelta float64) time.Duration {
	minutes := math.Round(pixelDelta / m.cfg.PixelsPerHour * 60)
	snap := float64(m.cfg.SnapMinutes)
	snapped := math.Round(minutes/snap) * snap
	return time.Duration(snapped) * time.Minute
}

// snapToGrid aligns an instant to the nearest multiple of the snap interval
// within its day.
func snapToGrid(t time.Time, snapMinutes int) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := t.Sub(day)
	snap := time.Duration(snapMinutes) * time.Minute
	snapped := time.Duration(math.Round(float64(offset)/float64(snap))) * snap
	return day.Add(snapped)
}

// Release commits the preview. For recurring events under a configured
// confirmation step, the commit is deferred: the machine parks in
// StatePendingConfirm and the returned committed flag is false until
// Confirm resolves the scope.
func (m *Machine) Release() (Update, bool, error) {
	if m.state != StateResizing && m.state != StateDragging {
		return Update{}, false, ErrNoInteraction
	}

	update := Update{
		EventID: m.eventID,
		Start:   m.previewStart,
		End:     m.previewEnd,
		Scope:   ScopeOccurrence,
	}

	if m.recurring && m.cfg.ConfirmSeriesCommit {
		m.state = StatePendingConfirm
		return update, false, nil
	}

	m.reset()
	return update, true, nil
}

// Confirm resolves a deferred commit with the chosen scope.
func (m *Machine) Confirm(scope CommitScope) (Update, error) {
	if m.state != StatePendingConfirm {
		return Update{}, ErrNotPending
	}
	update := Update{
		EventID: m.eventID,
		Start:   m.previewStart,
		End:     m.previewEnd,
		Scope:   scope,
	}
	m.reset()
	return update, nil
}

// Cancel reverts to the captured original placement without committing.
// Cancelling an idle machine is a no-op.
func (m *Machine) Cancel() {
	m.reset()
}

// Preview returns the current preview placement and whether an interaction
// is in flight.
func (m *Machine) Preview() (time.Time, time.Time, bool) {
	if m.state == StateIdle {
		return time.Time{}, time.Time{}, false
	}
	return m.previewStart, m.previewEnd, true
}

func (m *Machine) reset() {
	m.state = StateIdle
	m.eventID = ""
	m.recurring = false
	m.originalStart, m.originalEnd = time.Time{}, time.Time{}
	m.previewStart, m.previewEnd = time.Time{}, time.Time{}
	m.movesStart = false
}
