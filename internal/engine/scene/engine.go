package scene

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/molx/internal/domain/tracker"
	"github.com/GriffinCanCode/molx/internal/domain/viewer"
	"github.com/GriffinCanCode/molx/internal/shared/types"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

var (
	// ErrDisposed is returned by every operation after Dispose
	ErrDisposed = errors.New("engine disposed")
	// ErrUnknownRef is returned when a data or trajectory ref does not exist
	ErrUnknownRef = errors.New("unknown ref")
)

// Object kinds reported for cells that do not affect dirty state
const (
	KindData       tracker.Kind = "Data"
	KindTrajectory tracker.Kind = "Trajectory"
)

// Engine is an in-process viewer engine
type Engine struct {
	target viewer.Target
	logger *zap.Logger

	mu           sync.Mutex
	doc          *document
	subs         map[int]func(viewer.ChangeEvent)
	nextSub      int
	pendingFrame bool
	disposed     bool
	onDispose    func()
}

// New creates an engine mounted at target
func New(target viewer.Target, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		target: target,
		logger: logger.With(zap.String("handle", target.HandleID.String())),
		doc:    newDocument(),
		subs:   make(map[int]func(viewer.ChangeEvent)),
	}
}

// lock acquires mu if the engine is live and ctx is not done
func (e *Engine) lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return ErrDisposed
	}
	return nil
}

// GetSnapshot serializes the state tree
func (e *Engine) GetSnapshot(ctx context.Context) (types.Snapshot, error) {
	if err := e.lock(ctx); err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	data, err := sonic.ConfigStd.Marshal(e.doc)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return types.Snapshot(data), nil
}

// SetSnapshot replaces the state tree. It emits no change events.
func (e *Engine) SetSnapshot(ctx context.Context, snap types.Snapshot) error {
	doc := &document{}
	if err := sonic.ConfigStd.Unmarshal(snap, doc); err != nil {
		return fmt.Errorf("%w: %w", viewer.ErrSnapshotInvalid, err)
	}
	if doc.Version != documentVersion {
		return fmt.Errorf("%w: unsupported version %d", viewer.ErrSnapshotInvalid, doc.Version)
	}

	if err := e.lock(ctx); err != nil {
		return err
	}
	e.doc = doc
	e.pendingFrame = false
	e.mu.Unlock()
	return nil
}

// LoadRawData stores text as the data cell
func (e *Engine) LoadRawData(ctx context.Context, data []byte, label string) (viewer.DataRef, error) {
	if err := e.lock(ctx); err != nil {
		return "", err
	}
	ref := "data"
	e.doc.Data = &dataCell{Ref: ref, Label: label, Text: string(data)}
	e.doc.Trajectory = nil
	e.doc.Structure = nil
	e.doc.Representations = nil
	e.mu.Unlock()

	e.emit(viewer.ChangeEvent{Kind: KindData, Ref: ref})
	return viewer.DataRef(ref), nil
}

// ParseTrajectory sniffs the data cell as format
func (e *Engine) ParseTrajectory(ctx context.Context, data viewer.DataRef, format viewer.Format) (viewer.TrajectoryRef, error) {
	if err := e.lock(ctx); err != nil {
		return "", err
	}
	cell := e.doc.Data
	if cell == nil || cell.Ref != string(data) {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUnknownRef, data)
	}
	sum, err := sniff(cell.Text, format)
	if err != nil {
		e.mu.Unlock()
		return "", err
	}
	ref := "trajectory"
	e.doc.Trajectory = &trajectory{
		Ref:      ref,
		Format:   string(format),
		Models:   sum.models,
		Atoms:    sum.atoms,
		HetAtoms: sum.hetAtoms,
	}
	e.mu.Unlock()

	e.logger.Debug("Trajectory parsed",
		zap.String("format", string(format)),
		zap.Int("atoms", sum.atoms),
		zap.Int("het_atoms", sum.hetAtoms))
	e.emit(viewer.ChangeEvent{Kind: KindTrajectory, Ref: ref})
	return viewer.TrajectoryRef(ref), nil
}

// ApplyDefaultPreset builds the structure and its default representations
func (e *Engine) ApplyDefaultPreset(ctx context.Context, traj viewer.TrajectoryRef) error {
	if err := e.lock(ctx); err != nil {
		return err
	}
	t := e.doc.Trajectory
	if t == nil || t.Ref != string(traj) {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownRef, traj)
	}

	e.doc.Structure = &structureCell{Ref: "structure", Preset: "default"}
	reps := []representation{{Ref: "polymer", Type: "cartoon", Selector: "polymer"}}
	if t.HetAtoms > 0 {
		reps = append(reps, representation{Ref: "ligand", Type: "ball-and-stick", Selector: "ligand"})
	}
	e.doc.Representations = reps
	e.pendingFrame = true
	e.mu.Unlock()

	e.emit(viewer.ChangeEvent{Kind: tracker.KindStructure, Ref: "structure"})
	for _, r := range reps {
		e.emit(viewer.ChangeEvent{Kind: tracker.KindRepresentation, Ref: r.Ref})
	}
	return nil
}

// OnChange registers fn for change events
func (e *Engine) OnChange(fn func(viewer.ChangeEvent)) viewer.Subscription {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return viewer.SubscriptionFunc(func() {})
	}
	subID := e.nextSub
	e.nextSub++
	e.subs[subID] = fn
	frame := e.pendingFrame
	if frame {
		e.pendingFrame = false
		e.doc.Canvas.Revision++
	}
	e.mu.Unlock()

	if frame {
		fn(viewer.ChangeEvent{Kind: tracker.KindCanvas3D, Ref: "canvas"})
	}

	var once sync.Once
	return viewer.SubscriptionFunc(func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, subID)
			e.mu.Unlock()
		})
	})
}

// Mutate applies a client-driven change and reports it
func (e *Engine) Mutate(ctx context.Context, ev viewer.ChangeEvent) error {
	if err := e.lock(ctx); err != nil {
		return err
	}
	switch ev.Kind {
	case "":
	case tracker.KindCanvas3D:
		e.doc.Canvas.Revision++
		if ev.Ref == "" {
			ev.Ref = "canvas"
		}
	case tracker.KindStructure:
		if s := e.doc.Structure; s != nil {
			s.Revision++
			ev.Ref = s.Ref
		} else {
			e.bump(ev.Kind)
		}
	case tracker.KindRepresentation:
		if r := e.representation(ev.Ref); r != nil {
			r.Revision++
			ev.Ref = r.Ref
		} else {
			e.bump(ev.Kind)
		}
	default:
		e.bump(ev.Kind)
	}
	e.mu.Unlock()

	e.emit(ev)
	return nil
}

// representation finds ref, or the first representation when ref is empty;
// callers hold mu
func (e *Engine) representation(ref string) *representation {
	for i := range e.doc.Representations {
		r := &e.doc.Representations[i]
		if ref == "" || r.Ref == ref {
			return r
		}
	}
	return nil
}

// bump counts a change to an object the tree does not model; callers hold mu
func (e *Engine) bump(kind tracker.Kind) {
	if e.doc.Counters == nil {
		e.doc.Counters = make(map[string]int)
	}
	e.doc.Counters[string(kind)]++
}

func (e *Engine) emit(ev viewer.ChangeEvent) {
	e.mu.Lock()
	subs := make([]func(viewer.ChangeEvent), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Dispose releases the engine. Later calls are no-ops.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	e.subs = make(map[int]func(viewer.ChangeEvent))
	e.doc = newDocument()
	hook := e.onDispose
	e.mu.Unlock()

	if hook != nil {
		hook()
	}
	e.logger.Debug("Engine disposed")
}

// Subscribers returns the number of live subscriptions
func (e *Engine) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}
