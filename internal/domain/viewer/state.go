package viewer

import "fmt"

// State is the lifecycle state of a handle
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateRestoring
	StateLoading
	StateReady
	StateDisposed
)

var stateNames = [...]string{
	StateUninitialized: "uninitialized",
	StateInitializing:  "initializing",
	StateRestoring:     "restoring",
	StateLoading:       "loading",
	StateReady:         "ready",
	StateDisposed:      "disposed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText renders the state name in JSON
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
