package viewer

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/molx/internal/domain/intake"
	"github.com/GriffinCanCode/molx/internal/domain/tracker"
	"github.com/GriffinCanCode/molx/internal/shared/id"
)

// Handle is one live engine instance bound to one file and one view
type Handle struct {
	id      id.HandleID
	viewID  string
	file    *intake.UploadedFile
	format  Format
	tracker *tracker.Tracker
	created time.Time

	mu       sync.Mutex
	state    State
	eng      Engine       // Protected by mu
	sub      Subscription // Protected by mu
	restored bool
	err      error
}

func newHandle(file *intake.UploadedFile, viewID string, initial tracker.Flags) *Handle {
	return &Handle{
		id:      id.NewHandleID(),
		viewID:  viewID,
		file:    file,
		format:  FormatFor(file.Name),
		tracker: tracker.New(initial),
		created: time.Now(),
	}
}

func (h *Handle) ID() id.HandleID { return h.id }
func (h *Handle) ViewID() string { return h.viewID }
func (h *Handle) File() *intake.UploadedFile { return h.file }
func (h *Handle) Format() Format { return h.format }
func (h *Handle) Flags() tracker.Flags { return h.tracker.Flags() }
func (h *Handle) Tracker() *tracker.Tracker { return h.tracker }

// State returns the current lifecycle state
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Restored reports whether the handle reached Ready through a persisted session
func (h *Handle) Restored() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.restored
}

// Err returns the initialization failure that disposed the handle, if any
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Status describes the handle for clients
func (h *Handle) Status() Status {
	h.mu.Lock()
	st := Status{
		State:    h.state,
		HandleID: h.id,
		ViewID:   h.viewID,
		File:     h.file.Name,
		Format:   h.format,
		Restored: h.restored,
	}
	if h.err != nil {
		st.Error = h.err.Error()
	}
	h.mu.Unlock()

	st.Flags = h.tracker.Flags()
	return st
}

// advance moves to next unless the handle was disposed
func (h *Handle) advance(next State) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateDisposed {
		return false
	}
	h.state = next
	return true
}

func (h *Handle) disposed() bool {
	return h.State() == StateDisposed
}

// attach binds the created engine unless the handle was disposed meanwhile
func (h *Handle) attach(eng Engine) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateDisposed {
		return false
	}
	h.eng = eng
	return true
}

// ready stores the change subscription and enters Ready
func (h *Handle) ready(sub Subscription, restored bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateDisposed {
		return false
	}
	h.sub = sub
	h.restored = restored
	h.state = StateReady
	return true
}

// engine returns the engine if the handle is Ready
func (h *Handle) engine() (Engine, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StateReady {
		return nil, false
	}
	return h.eng, true
}

// dispose releases the subscription and the engine. It reports whether
// this call did the release and whether an engine was attached.
func (h *Handle) dispose(cause error) (released, hadEngine bool) {
	h.mu.Lock()
	if h.state == StateDisposed {
		h.mu.Unlock()
		return false, false
	}
	h.state = StateDisposed
	if cause != nil {
		h.err = cause
	}
	sub, eng := h.sub, h.eng
	h.sub, h.eng = nil, nil
	h.mu.Unlock()

	// Unsubscribe first so no callback observes a disposed engine.
	if sub != nil {
		sub.Unsubscribe()
	}
	if eng != nil {
		eng.Dispose()
	}
	h.tracker.Close()
	return true, eng != nil
}
