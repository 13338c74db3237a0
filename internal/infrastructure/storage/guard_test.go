package storage

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/molx/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/molx/internal/infrastructure/resilience"
)

func TestGuardPassesThrough(t *testing.T) {
	store := Guard(NewMemory(), NewBreaker("memory", nil, nil))
	testContract(t, store)
}

func TestGuardOpensAfterRepeatedFailures(t *testing.T) {
	metrics := monitoring.NewMetrics()
	breaker := NewBreaker("memory", nil, metrics)
	store := Guard(failingStore{NewMemory()}, breaker)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := store.Set(ctx, "molx_session", []byte(`{}`))
		require.Error(t, err)
		assert.False(t, resilience.Rejected(err))
	}
	assert.Equal(t, resilience.StateOpen, breaker.State())

	_, _, err := store.Get(ctx, "molx_session")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.ErrorIs(t, store.Delete(ctx, "molx_session"), resilience.ErrCircuitOpen)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.BreakerOpen.WithLabelValues("storage-memory")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.BreakerTransitions.WithLabelValues("storage-memory", "open")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.BreakerRejections.WithLabelValues("storage-memory")))
	assert.Equal(t, uint64(2), breaker.Stats().Rejected)
}

func TestGuardIgnoresCanceledContext(t *testing.T) {
	breaker := NewBreaker("memory", nil, nil)
	store := Guard(cancelingStore{NewMemory()}, breaker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, store.Set(ctx, "k", nil), context.Canceled)
	}
	assert.Equal(t, resilience.StateClosed, breaker.State())
}

func TestBreakerLookup(t *testing.T) {
	mem := NewMemory()
	_, ok := Breaker(mem)
	assert.False(t, ok)

	breaker := NewBreaker("memory", nil, nil)
	store := Instrument(Guard(mem, breaker), monitoring.NewMetrics())
	found, ok := Breaker(store)
	require.True(t, ok)
	assert.Same(t, breaker, found)

	assert.Same(t, mem, Guard(mem, nil))
}

type cancelingStore struct{ *Memory }

func (cancelingStore) Set(ctx context.Context, _ string, _ []byte) error {
	return ctx.Err()
}
