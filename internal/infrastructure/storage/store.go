package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/molx/internal/infrastructure/config"
	"github.com/GriffinCanCode/molx/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// ErrClosed is returned by operations on a closed store
var ErrClosed = errors.New("storage: store closed")

// Store is a durable byte-valued key-value store
type Store interface {
	// Get returns the value for key; found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
	Driver() string
}

// Open creates the store selected by cfg.Driver
func Open(cfg config.StorageConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		store = NewMemory()
	case config.DriverSQLite:
		store, err = OpenSQLite(cfg.SQLitePath)
	case config.DriverRedis:
		store, err = OpenRedis(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case config.DriverFile:
		store, err = OpenFile(cfg.Dir)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Storage opened", zap.String("driver", store.Driver()))
	return store, nil
}

// instrumented counts backend failures per operation
type instrumented struct {
	Store
	metrics *monitoring.Metrics
}

// Instrument wraps store so that backend errors are counted
func Instrument(store Store, metrics *monitoring.Metrics) Store {
	if metrics == nil {
		return store
	}
	return &instrumented{Store: store, metrics: metrics}
}

func (s *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := s.Store.Get(ctx, key)
	if err != nil {
		s.metrics.RecordStorageError(s.Driver(), "get")
	}
	return v, ok, err
}

func (s *instrumented) Set(ctx context.Context, key string, value []byte) error {
	err := s.Store.Set(ctx, key, value)
	if err != nil {
		s.metrics.RecordStorageError(s.Driver(), "set")
	}
	return err
}

func (s *instrumented) Delete(ctx context.Context, key string) error {
	err := s.Store.Delete(ctx, key)
	if err != nil {
		s.metrics.RecordStorageError(s.Driver(), "delete")
	}
	return err
}
