package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/molx/internal/domain/intake"
	"github.com/GriffinCanCode/molx/internal/domain/session"
	"github.com/GriffinCanCode/molx/internal/domain/tracker"
	"github.com/GriffinCanCode/molx/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/molx/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/molx/internal/shared/id"
	"github.com/GriffinCanCode/molx/internal/shared/types"
	"go.uber.org/zap"
)

var (
	// ErrEngineInitialization wraps a failure to create, restore, parse or preset
	ErrEngineInitialization = errors.New("viewer engine initialization failed")
	// ErrDisposed is returned when the handle was disposed while an operation was in flight
	ErrDisposed = errors.New("viewer handle disposed")
	// ErrNotReady is returned by operations that need a Ready handle
	ErrNotReady = errors.New("viewer not ready")
	// ErrNoFile is returned when opening without an accepted file
	ErrNoFile = errors.New("no file accepted")
	// ErrSaveDisabled is returned by Save when there is nothing new to save
	ErrSaveDisabled = errors.New("save not enabled")
	// ErrResetDisabled is returned by Reset when no session is persisted
	ErrResetDisabled = errors.New("reset not enabled")
)

// Persistence is the session store the manager restores from and saves to
type Persistence interface {
	Save(ctx context.Context, src session.SnapshotSource) (types.Snapshot, error)
	Restore(ctx context.Context) (types.Snapshot, bool)
	Clear(ctx context.Context) error
	Exists(ctx context.Context) bool
}

// Status describes the viewer for clients
type Status struct {
	State    State         `json:"state"`
	HandleID id.HandleID   `json:"handle_id,omitempty"`
	ViewID   string        `json:"view_id,omitempty"`
	File     string        `json:"file,omitempty"`
	Format   Format        `json:"format,omitempty"`
	Restored bool          `json:"restored"`
	Flags    tracker.Flags `json:"flags"`
	Error    string        `json:"error,omitempty"`
}

// Manager owns the single live viewer handle
type Manager struct {
	factory  EngineFactory
	sessions Persistence
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	mu        sync.Mutex
	current   *Handle                     // Protected by mu
	observers map[int]func(tracker.Flags) // Protected by mu
	nextObs   int
}

// NewManager creates a viewer manager
func NewManager(factory EngineFactory, sessions Persistence, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		factory:   factory,
		sessions:  sessions,
		logger:    logger,
		observers: make(map[int]func(tracker.Flags)),
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Current returns the current handle, which may be disposed
func (m *Manager) Current() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// OnFlags registers fn for flag changes of the current handle, and for
// persistence changes made while no handle is live.
func (m *Manager) OnFlags(fn func(tracker.Flags)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	obsID := m.nextObs
	m.nextObs++
	m.observers[obsID] = fn
	return func() {
		m.mu.Lock()
		delete(m.observers, obsID)
		m.mu.Unlock()
	}
}

// Open binds the viewer to file in view viewID. A live handle for the same
// file and view is returned as is; otherwise the previous handle is
// disposed and a new one initialized.
func (m *Manager) Open(ctx context.Context, file *intake.UploadedFile, viewID string) (*Handle, error) {
	return m.open(ctx, file, viewID, false)
}

func (m *Manager) open(ctx context.Context, file *intake.UploadedFile, viewID string, force bool) (*Handle, error) {
	if file == nil {
		return nil, ErrNoFile
	}

	if !force {
		if cur := m.Current(); cur != nil && cur.file == file && cur.viewID == viewID && !cur.disposed() {
			return cur, nil
		}
	}
	initial := tracker.Flags{ResetEnabled: m.sessions.Exists(ctx)}

	m.mu.Lock()
	if cur := m.current; !force && cur != nil && cur.file == file && cur.viewID == viewID && !cur.disposed() {
		m.mu.Unlock()
		return cur, nil
	}
	prev := m.current
	h := newHandle(file, viewID, initial)
	m.current = h
	m.mu.Unlock()

	if prev != nil {
		m.release(prev, nil)
	}
	h.tracker.Subscribe(func(f tracker.Flags) { m.flagsChanged(h, f) })
	m.flagsChanged(h, h.Flags())

	if err := m.initialize(ctx, h); err != nil {
		return h, err
	}
	return h, nil
}

// initialize drives h from Uninitialized to Ready
func (m *Manager) initialize(ctx context.Context, h *Handle) error {
	start := time.Now()
	log := m.logger.With(tracing.Fields(ctx)...).With(zap.String("handle", h.id.String()), zap.String("file", h.file.Name))

	if !h.advance(StateInitializing) {
		return m.discarded(h, log)
	}
	log.Debug("Creating viewer engine")

	eng, err := m.factory.Create(ctx, Target{ViewID: h.viewID, HandleID: h.id})
	if err != nil {
		return m.checkpoint(h, log, "create", err)
	}
	if !h.attach(eng) {
		eng.Dispose()
		return m.discarded(h, log)
	}
	m.metrics.IncViewersActive()

	snap, found := m.sessions.Restore(ctx)
	if err := m.checkpoint(h, log, "restore", nil); err != nil {
		return err
	}

	if found {
		if !h.advance(StateRestoring) {
			return m.discarded(h, log)
		}
		setErr := eng.SetSnapshot(ctx, snap)
		if errors.Is(setErr, ErrSnapshotInvalid) && !h.disposed() {
			// The record is unusable for this engine: treat it as absent.
			m.metrics.RecordSessionOp("restore", "corrupt")
			log.Warn("Persisted session rejected by engine, loading raw file", zap.Error(setErr))
			h.tracker.MarkCleared()
			found, setErr = false, nil
		}
		if err := m.checkpoint(h, log, "restore", setErr); err != nil {
			return err
		}
	}

	outcome := "loaded"
	if found {
		outcome = "restored"
		h.tracker.MarkRestored()
	} else if err := m.load(ctx, h, eng, log); err != nil {
		return err
	}

	sub := eng.OnChange(func(ev ChangeEvent) { m.observe(h, ev) })
	if !h.ready(sub, found) {
		sub.Unsubscribe()
		return m.discarded(h, log)
	}

	m.metrics.RecordViewerOpen(outcome, time.Since(start))
	log.Info("Viewer ready",
		zap.String("path", outcome),
		zap.String("format", string(h.format)),
		zap.Duration("took", time.Since(start)))
	return nil
}

// load ingests the raw file into eng
func (m *Manager) load(ctx context.Context, h *Handle, eng Engine, log *zap.Logger) error {
	if !h.advance(StateLoading) {
		return m.discarded(h, log)
	}

	data, err := h.file.Content(ctx)
	if err := m.checkpoint(h, log, "read", err); err != nil {
		return err
	}
	ref, err := eng.LoadRawData(ctx, data, h.file.Name)
	if err := m.checkpoint(h, log, "load", err); err != nil {
		return err
	}
	traj, err := eng.ParseTrajectory(ctx, ref, h.format)
	if err := m.checkpoint(h, log, "parse", err); err != nil {
		return err
	}
	return m.checkpoint(h, log, "preset", eng.ApplyDefaultPreset(ctx, traj))
}

// checkpoint runs after every suspension: a disposed handle discards the
// result, an error disposes the handle.
func (m *Manager) checkpoint(h *Handle, log *zap.Logger, stage string, err error) error {
	if h.disposed() {
		return m.discarded(h, log)
	}
	if err == nil {
		return nil
	}

	wrapped := fmt.Errorf("%w: %s: %w", ErrEngineInitialization, stage, err)
	m.release(h, wrapped)
	m.metrics.RecordViewerOpen("failed", 0)
	log.Error("Viewer initialization failed", zap.String("stage", stage), zap.Error(err))
	return wrapped
}

func (m *Manager) discarded(h *Handle, log *zap.Logger) error {
	m.metrics.RecordViewerOpen("discarded", 0)
	log.Debug("Viewer handle disposed during initialization, discarding result")
	return ErrDisposed
}

// observe feeds an engine change event into the handle's tracker
func (m *Manager) observe(h *Handle, ev ChangeEvent) {
	if h.disposed() {
		return
	}
	m.metrics.RecordChangeEvent(string(ev.Kind))
	h.tracker.Observe(ev.Kind)
}

func (m *Manager) flagsChanged(h *Handle, f tracker.Flags) {
	m.mu.Lock()
	if m.current != h {
		m.mu.Unlock()
		return
	}
	notify := m.snapshotObservers()
	m.mu.Unlock()

	for _, fn := range notify {
		fn(f)
	}
}

func (m *Manager) emitFlags(f tracker.Flags) {
	m.mu.Lock()
	notify := m.snapshotObservers()
	m.mu.Unlock()

	for _, fn := range notify {
		fn(f)
	}
}

// snapshotObservers copies the observer list; callers hold mu
func (m *Manager) snapshotObservers() []func(tracker.Flags) {
	out := make([]func(tracker.Flags), 0, len(m.observers))
	for _, fn := range m.observers {
		out = append(out, fn)
	}
	return out
}

func (m *Manager) release(h *Handle, cause error) {
	released, hadEngine := h.dispose(cause)
	if !released {
		return
	}
	if hadEngine {
		m.metrics.DecViewersActive()
	}
	m.logger.Debug("Viewer handle disposed", zap.String("handle", h.id.String()))
}

// Dispose releases the current handle. It is safe to call at any time and
// any number of times.
func (m *Manager) Dispose() {
	m.mu.Lock()
	h := m.current
	m.current = nil
	m.mu.Unlock()

	if h != nil {
		m.release(h, nil)
	}
}

// Close disposes the current handle
func (m *Manager) Close() error {
	m.Dispose()
	return nil
}

// readyHandle returns the current handle and its engine if it is Ready
func (m *Manager) readyHandle() (*Handle, Engine, error) {
	m.mu.Lock()
	h := m.current
	m.mu.Unlock()

	if h == nil {
		return nil, nil, ErrNotReady
	}
	eng, ok := h.engine()
	if !ok {
		return nil, nil, ErrNotReady
	}
	return h, eng, nil
}

// Save persists the current view. A storage write failure still marks the
// session as saved in the flags and is returned to the caller.
func (m *Manager) Save(ctx context.Context) ([]types.Notification, error) {
	h, eng, err := m.readyHandle()
	if err != nil {
		return nil, err
	}
	if !h.Flags().SaveEnabled {
		return nil, ErrSaveDisabled
	}

	_, err = m.sessions.Save(ctx, eng)
	if err != nil && !errors.Is(err, session.ErrStorageWrite) {
		return nil, err
	}
	h.tracker.MarkSaved()
	if err != nil {
		return nil, err
	}

	return []types.Notification{
		types.Success(types.MsgSaved),
		types.Info(types.MsgSavedHint),
	}, nil
}

// Reset deletes the persisted session and reloads the current file from its
// raw data into a fresh handle.
func (m *Manager) Reset(ctx context.Context) ([]types.Notification, error) {
	m.mu.Lock()
	h := m.current
	m.mu.Unlock()

	live := h != nil && !h.disposed()
	var enabled bool
	if h != nil && h.State() == StateReady {
		enabled = h.Flags().ResetEnabled
	} else {
		enabled = m.sessions.Exists(ctx)
	}
	if !enabled {
		return nil, ErrResetDisabled
	}

	if err := m.sessions.Clear(ctx); err != nil {
		return nil, err
	}
	notes := []types.Notification{types.Success(types.MsgReset)}

	if !live {
		m.emitFlags(tracker.Flags{})
		return notes, nil
	}

	h.tracker.MarkCleared()
	if _, err := m.open(ctx, h.file, h.viewID, true); err != nil {
		return notes, err
	}
	return notes, nil
}

// Dispatch forwards a client-observed change into the engine. Engines that
// do not accept mutations have the event fed straight to the tracker.
func (m *Manager) Dispatch(ctx context.Context, ev ChangeEvent) error {
	h, eng, err := m.readyHandle()
	if err != nil {
		return err
	}
	if mut, ok := eng.(Mutator); ok {
		return mut.Mutate(ctx, ev)
	}
	m.observe(h, ev)
	return nil
}

// Status describes the current handle, or the idle viewer if there is none
func (m *Manager) Status(ctx context.Context) Status {
	m.mu.Lock()
	h := m.current
	m.mu.Unlock()

	if h == nil {
		return Status{
			State: StateUninitialized,
			Flags: tracker.Flags{ResetEnabled: m.sessions.Exists(ctx)},
		}
	}
	return h.Status()
}

// Snapshot returns the live view state of the current handle
func (m *Manager) Snapshot(ctx context.Context) (types.Snapshot, error) {
	_, eng, err := m.readyHandle()
	if err != nil {
		return nil, err
	}
	return eng.GetSnapshot(ctx)
}
