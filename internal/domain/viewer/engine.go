package viewer

import (
	"context"
	"errors"
	"strings"

	"github.com/GriffinCanCode/molx/internal/domain/tracker"
	"github.com/GriffinCanCode/molx/internal/shared/id"
	"github.com/GriffinCanCode/molx/internal/shared/types"
)

// Format is a structure text format understood by the engine
type Format string

const (
	FormatPDB   Format = "pdb"
	FormatMMCIF Format = "mmcif"
)

// FormatFor resolves the parse format from a file name: names ending
// exactly in ".cif" are mmCIF, everything else is PDB.
func FormatFor(name string) Format {
	if strings.HasSuffix(name, ".cif") {
		return FormatMMCIF
	}
	return FormatPDB
}

// ErrSnapshotInvalid is returned by SetSnapshot when the engine cannot
// decode the snapshot it was given
var ErrSnapshotInvalid = errors.New("snapshot not restorable")

// DataRef points at raw data loaded into an engine
type DataRef string

// TrajectoryRef points at a parsed trajectory inside an engine
type TrajectoryRef string

// ChangeEvent reports a state change inside the engine. An empty Kind
// means the change carried no object.
type ChangeEvent struct {
	Kind tracker.Kind `json:"kind"`
	Ref  string       `json:"ref,omitempty"`
}

// Subscription cancels an OnChange registration
type Subscription interface {
	Unsubscribe()
}

// Target identifies where an engine instance is mounted
type Target struct {
	ViewID   string
	HandleID id.HandleID
}

// Engine is one live viewer engine instance
type Engine interface {
	GetSnapshot(ctx context.Context) (types.Snapshot, error)
	SetSnapshot(ctx context.Context, snap types.Snapshot) error
	LoadRawData(ctx context.Context, data []byte, label string) (DataRef, error)
	ParseTrajectory(ctx context.Context, data DataRef, format Format) (TrajectoryRef, error)
	ApplyDefaultPreset(ctx context.Context, trajectory TrajectoryRef) error
	OnChange(fn func(ChangeEvent)) Subscription
	Dispose()
}

// EngineFactory constructs engines
type EngineFactory interface {
	Create(ctx context.Context, target Target) (Engine, error)
}

// EngineFactoryFunc adapts a function to EngineFactory
type EngineFactoryFunc func(ctx context.Context, target Target) (Engine, error)

func (f EngineFactoryFunc) Create(ctx context.Context, target Target) (Engine, error) {
	return f(ctx, target)
}

// Mutator is implemented by engines that accept externally driven changes.
// The engine reports the resulting change through its OnChange stream.
type Mutator interface {
	Mutate(ctx context.Context, ev ChangeEvent) error
}

// SubscriptionFunc adapts a function to Subscription
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() { f() }
