package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/molx/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/molx/internal/shared/types"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// DefaultKey is the key of the single persisted session record
const DefaultKey = "molx_session"

var (
	// ErrStorageWrite wraps a failed write or delete against the store
	ErrStorageWrite = errors.New("session storage write failed")
	// ErrInvalidSnapshot is returned when the engine produced a snapshot that could never be restored
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Store is the durable key-value store the session lives in
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// SnapshotSource produces the snapshot to persist
type SnapshotSource interface {
	GetSnapshot(ctx context.Context) (types.Snapshot, error)
}

// Stats describes recent persistence activity
type Stats struct {
	Key          string     `json:"key"`
	LastSaved    *time.Time `json:"last_saved,omitempty"`
	LastRestored *time.Time `json:"last_restored,omitempty"`
	LastCleared  *time.Time `json:"last_cleared,omitempty"`
}

// Manager handles session persistence
type Manager struct {
	store   Store
	key     string
	logger  *zap.Logger
	metrics *monitoring.Metrics

	mu           sync.RWMutex
	lastSaved    *time.Time
	lastRestored *time.Time
	lastCleared  *time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithKey overrides the record key
func WithKey(key string) Option {
	return func(m *Manager) {
		if key != "" {
			m.key = key
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics adds metrics tracking
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates a session manager over store
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		key:    DefaultKey,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Key returns the record key
func (m *Manager) Key() string { return m.key }

// Save captures a snapshot from src and writes it as the sole record.
// A failed write is returned wrapped in ErrStorageWrite together with the
// captured snapshot, and is not retried.
func (m *Manager) Save(ctx context.Context, src SnapshotSource) (types.Snapshot, error) {
	snap, err := src.GetSnapshot(ctx)
	if err != nil {
		m.metrics.RecordSessionOp("save", "error")
		return nil, fmt.Errorf("failed to capture snapshot: %w", err)
	}
	if !Valid(snap) {
		m.metrics.RecordSessionOp("save", "invalid")
		return nil, ErrInvalidSnapshot
	}

	if err := m.store.Set(ctx, m.key, snap); err != nil {
		m.metrics.RecordSessionOp("save", "error")
		m.logger.Error("Session write failed", zap.String("key", m.key), zap.Error(err))
		return snap, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	now := time.Now()
	m.mu.Lock()
	m.lastSaved = &now
	m.mu.Unlock()

	m.metrics.RecordSessionOp("save", "ok")
	m.metrics.ObserveSnapshotSize(snap.Len())
	m.logger.Info("Session saved", zap.String("key", m.key), zap.Int("bytes", snap.Len()))
	return snap, nil
}

// Restore reads the persisted record. ok is false if it is absent,
// unreadable or malformed.
func (m *Manager) Restore(ctx context.Context) (types.Snapshot, bool) {
	data, found, err := m.store.Get(ctx, m.key)
	if err != nil {
		m.metrics.RecordSessionOp("restore", "error")
		m.logger.Warn("Session read failed, treating as absent", zap.String("key", m.key), zap.Error(err))
		return nil, false
	}
	if !found {
		m.metrics.RecordSessionOp("restore", "absent")
		return nil, false
	}
	if !Valid(data) {
		m.metrics.RecordSessionOp("restore", "corrupt")
		m.logger.Warn("Persisted session is corrupt, ignoring", zap.String("key", m.key), zap.Int("bytes", len(data)))
		return nil, false
	}

	now := time.Now()
	m.mu.Lock()
	m.lastRestored = &now
	m.mu.Unlock()

	m.metrics.RecordSessionOp("restore", "ok")
	return types.Snapshot(data), true
}

// Clear removes the record. Clearing when nothing is stored is a no-op.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Delete(ctx, m.key); err != nil {
		m.metrics.RecordSessionOp("clear", "error")
		m.logger.Error("Session delete failed", zap.String("key", m.key), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	now := time.Now()
	m.mu.Lock()
	m.lastCleared = &now
	m.mu.Unlock()

	m.metrics.RecordSessionOp("clear", "ok")
	m.logger.Info("Session cleared", zap.String("key", m.key))
	return nil
}

// Exists reports whether a restorable record is present
func (m *Manager) Exists(ctx context.Context) bool {
	data, found, err := m.store.Get(ctx, m.key)
	if err != nil || !found {
		return false
	}
	return Valid(data)
}

// Load returns the raw persisted snapshot without recording a restore
func (m *Manager) Load(ctx context.Context) (types.Snapshot, bool) {
	data, found, err := m.store.Get(ctx, m.key)
	if err != nil || !found || !Valid(data) {
		return nil, false
	}
	return types.Snapshot(data), true
}

// Stats returns session manager statistics
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		Key:          m.key,
		LastSaved:    m.lastSaved,
		LastRestored: m.lastRestored,
		LastCleared:  m.lastCleared,
	}
}

// Valid reports whether data is a well-formed snapshot document: a JSON object.
func Valid(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return sonic.Valid(trimmed)
}
