package viewer

import (
	"context"
	"errors"
	"sync"

	"github.com/GriffinCanCode/molx/internal/shared/types"
)

// fakeEngine records every call and lets tests emit change events
type fakeEngine struct {
	mu          sync.Mutex
	calls       []string
	snapshot    types.Snapshot
	applied     types.Snapshot
	loadedData  []byte
	loadedLabel string
	format      Format
	subs        map[int]func(ChangeEvent)
	nextSub     int
	disposed    int

	failOn string             // stage that returns an error
	setErr error              // returned by SetSnapshot when set
	hook   func(stage string) // runs before the stage, outside the lock
}

var errStage = errors.New("stage failed")

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		snapshot: types.Snapshot(`{"camera":{"zoom":1}}`),
		subs:     make(map[int]func(ChangeEvent)),
	}
}

func (e *fakeEngine) enter(stage string) error {
	if e.hook != nil {
		e.hook(stage)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, stage)
	if e.failOn == stage {
		return errStage
	}
	return nil
}

func (e *fakeEngine) GetSnapshot(context.Context) (types.Snapshot, error) {
	if err := e.enter("get"); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.Clone(), nil
}

func (e *fakeEngine) SetSnapshot(_ context.Context, snap types.Snapshot) error {
	if err := e.enter("set"); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.setErr != nil {
		return e.setErr
	}
	e.applied = snap.Clone()
	e.snapshot = snap.Clone()
	return nil
}

func (e *fakeEngine) LoadRawData(_ context.Context, data []byte, label string) (DataRef, error) {
	if err := e.enter("load"); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadedData = data
	e.loadedLabel = label
	return DataRef("data-1"), nil
}

func (e *fakeEngine) ParseTrajectory(_ context.Context, _ DataRef, format Format) (TrajectoryRef, error) {
	if err := e.enter("parse"); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.format = format
	return TrajectoryRef("traj-1"), nil
}

func (e *fakeEngine) ApplyDefaultPreset(context.Context, TrajectoryRef) error {
	return e.enter("preset")
}

func (e *fakeEngine) OnChange(fn func(ChangeEvent)) Subscription {
	_ = e.enter("subscribe")
	e.mu.Lock()
	defer e.mu.Unlock()
	subID := e.nextSub
	e.nextSub++
	e.subs[subID] = fn
	return SubscriptionFunc(func() {
		e.mu.Lock()
		delete(e.subs, subID)
		e.mu.Unlock()
	})
}

func (e *fakeEngine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disposed++
}

func (e *fakeEngine) emit(ev ChangeEvent) {
	e.mu.Lock()
	subs := make([]func(ChangeEvent), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (e *fakeEngine) activeSubs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

func (e *fakeEngine) disposeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disposed
}

func (e *fakeEngine) called(stage string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.calls {
		if c == stage {
			return true
		}
	}
	return false
}

// mutatingEngine turns dispatched events into engine change events
type mutatingEngine struct {
	*fakeEngine
}

func (e mutatingEngine) Mutate(_ context.Context, ev ChangeEvent) error {
	e.emit(ev)
	return nil
}

// fakeFactory hands out fakeEngines
type fakeFactory struct {
	mu        sync.Mutex
	engines   []*fakeEngine
	targets   []Target
	err       error
	entered   chan struct{} // signalled when Create starts
	gate      chan struct{} // Create waits on it when set
	configure func(*fakeEngine)
	mutating  bool
}

func (f *fakeFactory) Create(_ context.Context, target Target) (Engine, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, target)
	if f.err != nil {
		return nil, f.err
	}
	e := newFakeEngine()
	if f.configure != nil {
		f.configure(e)
	}
	f.engines = append(f.engines, e)
	if f.mutating {
		return mutatingEngine{e}, nil
	}
	return e, nil
}

func (f *fakeFactory) engine(i int) *fakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.engines[i]
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}
