package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/molx/internal/domain/intake"
	"github.com/GriffinCanCode/molx/internal/domain/tracker"
	"github.com/GriffinCanCode/molx/internal/domain/viewer"
	"github.com/GriffinCanCode/molx/internal/shared/types"
	"github.com/GriffinCanCode/molx/internal/shared/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidRequest marks malformed client input
var ErrInvalidRequest = errors.New("invalid request")

// Broadcaster pushes state changes to connected clients
type Broadcaster interface {
	Notify(n types.Notification)
	Flags(f tracker.Flags)
	Status(s viewer.Status)
}

// State is a copy of the workbench state
type State struct {
	File        *intake.UploadedFile `json:"file,omitempty"`
	ShowViewer  bool                 `json:"show_viewer"`
	ViewID      string               `json:"view_id,omitempty"`
	SaveEnabled bool                 `json:"save_enabled"`
	Viewer      viewer.Status        `json:"viewer"`
}

// Manager orchestrates the workbench
type Manager struct {
	mu          sync.RWMutex
	file        *intake.UploadedFile // Protected by mu
	showViewer  bool                 // Protected by mu
	viewID      string               // Protected by mu
	saveEnabled bool                 // Protected by mu

	intake      *intake.Intake
	viewer      *viewer.Manager
	broadcaster Broadcaster
	logger      *zap.Logger
	unsubscribe func()
}

// NewManager creates a workbench over the given intake and viewer
func NewManager(in *intake.Intake, v *viewer.Manager, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		intake: in,
		viewer: v,
		logger: logger,
	}
	m.unsubscribe = v.OnFlags(m.handleFlags)
	return m
}

// WithBroadcaster adds client push to the manager
func (m *Manager) WithBroadcaster(b Broadcaster) *Manager {
	m.broadcaster = b
	return m
}

// handleFlags mirrors the viewer's save flag at the application level
func (m *Manager) handleFlags(f tracker.Flags) {
	m.mu.Lock()
	m.saveEnabled = f.SaveEnabled
	m.mu.Unlock()

	if m.broadcaster != nil {
		m.broadcaster.Flags(f)
	}
}

func (m *Manager) notify(notes ...types.Notification) {
	if m.broadcaster == nil {
		return
	}
	for _, n := range notes {
		m.broadcaster.Notify(n)
	}
}

func (m *Manager) publishStatus(ctx context.Context) {
	if m.broadcaster != nil {
		m.broadcaster.Status(m.viewer.Status(ctx))
	}
}

// HandleFile accepts a candidate. A rejected candidate raises a blocking
// alert and leaves the current file untouched. If the viewer is open it is
// re-initialized for the new file.
func (m *Manager) HandleFile(ctx context.Context, c *intake.Candidate) (*intake.UploadedFile, error) {
	file, err := m.intake.Accept(c)
	if err != nil {
		msg := types.MsgInvalidFile
		if errors.Is(err, intake.ErrFileTooLarge) {
			msg = types.MsgFileTooLarge
		}
		m.notify(types.Alert(msg))
		return nil, err
	}

	m.mu.Lock()
	if file.SameAs(m.file) {
		m.logger.Debug("Same file uploaded again", zap.String("name", file.Name))
	}
	m.file = file
	show, viewID := m.showViewer, m.viewID
	m.mu.Unlock()

	if show {
		if _, err := m.viewer.Open(ctx, file, viewID); err != nil {
			m.logger.Error("Viewer failed to open new file", zap.String("name", file.Name), zap.Error(err))
		}
		m.publishStatus(ctx)
	}
	return file, nil
}

// File returns the accepted file, if any
func (m *Manager) File() (*intake.UploadedFile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.file, m.file != nil
}

// RemoveFile drops the accepted file and closes the viewer
func (m *Manager) RemoveFile(ctx context.Context) {
	m.mu.Lock()
	m.file = nil
	m.showViewer = false
	m.viewID = ""
	m.saveEnabled = false
	m.mu.Unlock()

	m.viewer.Dispose()
	m.publishStatus(ctx)
}

// OpenViewer shows the viewer for the accepted file. An empty viewID
// keeps the open view's id, or starts a new view.
func (m *Manager) OpenViewer(ctx context.Context, viewID string) (viewer.Status, error) {
	if viewID != "" {
		if err := utils.ValidateID(viewID, "view_id", false); err != nil {
			return viewer.Status{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}

	m.mu.Lock()
	file := m.file
	if file == nil {
		m.mu.Unlock()
		return viewer.Status{}, viewer.ErrNoFile
	}
	if viewID == "" {
		viewID = m.viewID
	}
	if viewID == "" {
		viewID = uuid.NewString()
	}
	m.showViewer = true
	m.viewID = viewID
	m.mu.Unlock()

	_, err := m.viewer.Open(ctx, file, viewID)
	st := m.viewer.Status(ctx)
	if m.broadcaster != nil {
		m.broadcaster.Status(st)
	}
	return st, err
}

// CloseViewer hides the viewer and disposes its engine
func (m *Manager) CloseViewer(ctx context.Context) {
	m.mu.Lock()
	m.showViewer = false
	m.viewID = ""
	m.saveEnabled = false
	m.mu.Unlock()

	m.viewer.Dispose()
	m.publishStatus(ctx)
}

// Save persists the current view and notifies the user
func (m *Manager) Save(ctx context.Context) ([]types.Notification, error) {
	notes, err := m.viewer.Save(ctx)
	if err != nil {
		return nil, err
	}
	m.notify(notes...)
	return notes, nil
}

// Reset deletes the persisted session and notifies the user
func (m *Manager) Reset(ctx context.Context) ([]types.Notification, error) {
	notes, err := m.viewer.Reset(ctx)
	m.notify(notes...)
	if len(notes) > 0 {
		m.publishStatus(ctx)
	}
	return notes, err
}

// Dispatch forwards a client-observed change of an object of kind
func (m *Manager) Dispatch(ctx context.Context, kind, ref string) error {
	if err := utils.ValidateKind(kind); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return m.viewer.Dispatch(ctx, viewer.ChangeEvent{Kind: tracker.Kind(kind), Ref: ref})
}

// State returns a copy of the workbench state
func (m *Manager) State(ctx context.Context) State {
	m.mu.RLock()
	st := State{
		File:        m.file,
		ShowViewer:  m.showViewer,
		ViewID:      m.viewID,
		SaveEnabled: m.saveEnabled,
	}
	m.mu.RUnlock()

	st.Viewer = m.viewer.Status(ctx)
	return st
}

// Close stops mirroring flags and disposes the viewer
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.viewer.Dispose()
}
