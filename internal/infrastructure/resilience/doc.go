/*
Package resilience provides a circuit breaker for remote dependencies.

The molx backend uses it in front of network-backed session storage
(Redis): after Threshold consecutive failures, Save and Reset fail fast
with ErrCircuitOpen instead of each waiting for a dial timeout, and
restore falls back to a fresh load. After Cooldown a single trial call
is let through; its outcome closes or reopens the breaker.

# Usage

	breaker := resilience.New("storage-redis", resilience.Settings{
		Threshold: 3,
		Cooldown:  10 * time.Second,
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
	})

	err := breaker.Do(func() error {
		return client.Set(ctx, key, value, 0).Err()
	})

# States

	Closed --[Threshold failures]-> Open --[Cooldown]-> Half-Open --[trial ok]-> Closed
	                                                        |
	                                                 [trial failed]
	                                                        v
	                                                      Open
*/
package resilience
