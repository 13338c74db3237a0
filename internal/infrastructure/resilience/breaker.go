package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrCircuitOpen is returned without calling the dependency while the breaker is open
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrProbeInFlight is returned while the single half-open trial call is running
	ErrProbeInFlight = errors.New("circuit breaker probe in flight")

	errPanicked = errors.New("call panicked")
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON health output
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Settings configures a breaker
type Settings struct {
	// Threshold is the number of consecutive failures that opens the breaker
	Threshold int
	// Cooldown is how long the breaker stays open before one trial call is let through
	Cooldown time.Duration
	// IsFailure classifies a returned error. Nil counts every non-nil error.
	IsFailure func(err error) bool
	// OnStateChange runs after every transition, outside the lock
	OnStateChange func(name string, from, to State)
	// OnReject runs for every call refused without reaching the dependency
	OnReject func(name string)
}

// Stats is a point-in-time view of a breaker for health output
type Stats struct {
	State               State      `json:"state"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	Trips               uint64     `json:"trips"`
	Rejected            uint64     `json:"rejected"`
	OpenedAt            *time.Time `json:"opened_at,omitempty"`
}

// Breaker stops calling a failing dependency for a cooldown period, then
// lets a single trial call decide whether to close again.
type Breaker struct {
	name     string
	settings Settings
	now      func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
	trips    uint64
	rejected uint64
}

// New creates a closed breaker
func New(name string, settings Settings) *Breaker {
	if settings.Threshold <= 0 {
		settings.Threshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	if settings.IsFailure == nil {
		settings.IsFailure = func(err error) bool { return err != nil }
	}
	return &Breaker{name: name, settings: settings, now: time.Now}
}

// Name returns the breaker name
func (b *Breaker) Name() string {
	return b.name
}

// State returns the state a call made now would see
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current()
}

// Stats returns the current counters
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := Stats{
		State:               b.current(),
		ConsecutiveFailures: b.failures,
		Trips:               b.trips,
		Rejected:            b.rejected,
	}
	if b.state != StateClosed {
		opened := b.openedAt
		st.OpenedAt = &opened
	}
	return st
}

// Do calls fn unless the breaker refuses it, and records the outcome.
// Refusals return ErrCircuitOpen or ErrProbeInFlight.
func (b *Breaker) Do(fn func() error) (err error) {
	probe, err := b.admit()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			b.record(probe, errPanicked)
			panic(r)
		}
	}()

	err = fn()
	b.record(probe, err)
	return err
}

// Rejected reports whether err came from the breaker refusing a call
func Rejected(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrProbeInFlight)
}

// current resolves an expired open period to half-open; callers hold mu
func (b *Breaker) current() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.settings.Cooldown {
		return StateHalfOpen
	}
	return b.state
}

func (b *Breaker) admit() (probe bool, err error) {
	b.mu.Lock()
	switch b.current() {
	case StateClosed:
		b.mu.Unlock()
		return false, nil
	case StateHalfOpen:
		if !b.probing {
			from := b.state
			b.state = StateHalfOpen
			b.probing = true
			b.mu.Unlock()
			b.changed(from, StateHalfOpen)
			return true, nil
		}
		err = ErrProbeInFlight
	default:
		err = ErrCircuitOpen
	}
	b.rejected++
	b.mu.Unlock()

	if b.settings.OnReject != nil {
		b.settings.OnReject(b.name)
	}
	return false, err
}

func (b *Breaker) record(probe bool, err error) {
	failed := err != nil && b.settings.IsFailure(err)

	b.mu.Lock()
	from := b.state
	if probe {
		b.probing = false
	}
	switch {
	case !failed && probe:
		b.state = StateClosed
		b.failures = 0
	case !failed:
		b.failures = 0
	case probe:
		b.trip()
	case b.state == StateClosed:
		b.failures++
		if b.failures >= b.settings.Threshold {
			b.trip()
		}
	}
	to := b.state
	b.mu.Unlock()

	b.changed(from, to)
}

// trip opens the breaker; callers hold mu
func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.trips++
}

func (b *Breaker) changed(from, to State) {
	if from != to && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
