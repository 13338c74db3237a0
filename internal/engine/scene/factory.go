package scene

import (
	"context"
	"sync/atomic"

	"github.com/GriffinCanCode/molx/internal/domain/viewer"
	"go.uber.org/zap"
)

// Factory creates scene engines
type Factory struct {
	logger  *zap.Logger
	live    atomic.Int64
	created atomic.Int64
}

// NewFactory creates a factory
func NewFactory(logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{logger: logger}
}

// Create builds an engine for target
func (f *Factory) Create(ctx context.Context, target viewer.Target) (viewer.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e := New(target, f.logger)
	e.onDispose = func() { f.live.Add(-1) }
	f.live.Add(1)
	f.created.Add(1)
	return e, nil
}

// Stats reports engine counts
type Stats struct {
	Live    int64 `json:"live"`
	Created int64 `json:"created"`
}

// Stats returns live and total engine counts
func (f *Factory) Stats() Stats {
	return Stats{Live: f.live.Load(), Created: f.created.Load()}
}
