package storage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/molx/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/molx/internal/infrastructure/resilience"
)

// guarded routes every call through a circuit breaker
type guarded struct {
	Store
	breaker *resilience.Breaker
}

// NewBreaker returns the breaker used in front of a network-backed store.
// Context cancellation by the caller is not a backend failure.
func NewBreaker(driver string, logger *zap.Logger, metrics *monitoring.Metrics) *resilience.Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return resilience.New("storage-"+driver, resilience.Settings{
		Threshold: 3,
		Cooldown:  10 * time.Second,
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			metrics.RecordBreakerTransition(name, to.String())
			logger.Warn("Storage circuit breaker changed state",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
		OnReject: func(name string) {
			metrics.RecordBreakerRejection(name)
		},
	})
}

// Guard wraps store with b. Rejected calls return resilience.ErrCircuitOpen.
func Guard(store Store, b *resilience.Breaker) Store {
	if b == nil {
		return store
	}
	return &guarded{Store: store, breaker: b}
}

// Breaker returns the breaker guarding store, if any
func Breaker(store Store) (*resilience.Breaker, bool) {
	for {
		switch s := store.(type) {
		case *guarded:
			return s.breaker, true
		case *instrumented:
			store = s.Store
		default:
			return nil, false
		}
	}
}

func (s *guarded) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	err := s.breaker.Do(func() error {
		var err error
		value, found, err = s.Store.Get(ctx, key)
		return err
	})
	return value, found, err
}

func (s *guarded) Set(ctx context.Context, key string, value []byte) error {
	return s.breaker.Do(func() error {
		return s.Store.Set(ctx, key, value)
	})
}

func (s *guarded) Delete(ctx context.Context, key string) error {
	return s.breaker.Do(func() error {
		return s.Store.Delete(ctx, key)
	})
}
