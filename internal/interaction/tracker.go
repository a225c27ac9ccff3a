package interaction

import "sync"

// Tracker manages independent interaction machines keyed by event id.
// Different events may resize or drag concurrently; a single event can only
// be in one interaction at a time, which each Machine enforces itself.
type Tracker struct {
	mu       sync.Mutex
	cfg      Config
	machines map[string]*Machine
}

// NewTracker returns a tracker that creates machines with the given config.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg:      cfg.withDefaults(),
		machines: make(map[string]*Machine),
	}
}

// Machine returns the interaction machine for the event id, creating an
// idle one on first use.
func (t *Tracker) Machine(eventID string) *Machine {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.machines[eventID]
	if !ok {
		m = NewMachine(t.cfg)
		t.machines[eventID] = m
	}
	return m
}

// Active reports how many events currently have an interaction in flight.
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	count := 0
	for _, m := range t.machines {
		if m.State() != StateIdle {
			count++
		}
	}
	return count
}

// Tracked reports how many machines are currently retained, idle ones
// included.
func (t *Tracker) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.machines)
}

// Release drops the machine for an event after its interaction finished or
// the event itself was deleted.
func (t *Tracker) Release(eventID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.machines, eventID)
}
