package tracker

import "sync"

// Kind is the reported type of the engine object affected by a change.
type Kind string

const (
	KindCanvas3D       Kind = "Canvas3D"
	KindStructure      Kind = "Structure"
	KindRepresentation Kind = "Representation"
)

// Flags are the externally observable UI flags of one viewer.
type Flags struct {
	SaveEnabled  bool `json:"save_enabled"`
	ResetEnabled bool `json:"reset_enabled"`
}

// Dirties reports whether a change to an object of this kind makes saving meaningful.
func Dirties(kind Kind) bool {
	switch kind {
	case KindCanvas3D, KindStructure, KindRepresentation:
		return true
	default:
		return false
	}
}

// Next applies one change event to prev. SaveEnabled only ever goes up.
func Next(prev Flags, kind Kind) Flags {
	if Dirties(kind) {
		prev.SaveEnabled = true
	}
	return prev
}

// Tracker holds the flags of a single viewer handle.
type Tracker struct {
	mu        sync.Mutex
	flags     Flags
	observers map[int]func(Flags)
	nextID    int
	closed    bool
}

// New creates a tracker starting at initial.
func New(initial Flags) *Tracker {
	return &Tracker{
		flags:     initial,
		observers: make(map[int]func(Flags)),
	}
}

// Flags returns the current flags.
func (t *Tracker) Flags() Flags {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flags
}

// Observe feeds one change event through Next.
func (t *Tracker) Observe(kind Kind) Flags {
	return t.update(func(f Flags) Flags { return Next(f, kind) })
}

// MarkRestored records that a persisted session was just applied: the view
// is clean and a session exists.
func (t *Tracker) MarkRestored() Flags {
	return t.update(func(Flags) Flags {
		return Flags{SaveEnabled: false, ResetEnabled: true}
	})
}

// MarkSaved records a save. SaveEnabled is left as is.
func (t *Tracker) MarkSaved() Flags {
	return t.update(func(f Flags) Flags {
		f.ResetEnabled = true
		return f
	})
}

// MarkCleared records that the persisted session was removed.
func (t *Tracker) MarkCleared() Flags {
	return t.update(func(f Flags) Flags {
		f.ResetEnabled = false
		return f
	})
}

// Subscribe registers fn to be called with the new flags after every change.
// The returned func cancels the registration and is safe to call twice.
func (t *Tracker) Subscribe(fn func(Flags)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return func() {}
	}
	subID := t.nextID
	t.nextID++
	t.observers[subID] = fn
	return func() {
		t.mu.Lock()
		delete(t.observers, subID)
		t.mu.Unlock()
	}
}

// Close drops all observers; later updates still change the flags but notify nobody.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.observers = make(map[int]func(Flags))
	t.mu.Unlock()
}

func (t *Tracker) update(fn func(Flags) Flags) Flags {
	t.mu.Lock()
	prev := t.flags
	next := fn(prev)
	t.flags = next
	var notify []func(Flags)
	if next != prev {
		notify = make([]func(Flags), 0, len(t.observers))
		for _, obs := range t.observers {
			notify = append(notify, obs)
		}
	}
	t.mu.Unlock()

	// Observers run outside the lock so they may read Flags.
	for _, obs := range notify {
		obs(next)
	}
	return next
}
