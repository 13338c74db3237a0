// Package viewer owns the lifecycle of the embedded viewer engine.
//
// A Manager holds at most one live Handle, bound to one accepted file and
// one view instance. Opening the same file in the same view returns the
// live handle; any change to either disposes it and initializes a new one.
//
// Lifecycle:
//
//	Uninitialized -> Initializing -> Restoring | Loading -> Ready -> Disposed
//
// Initializing creates the engine. If a persisted session exists it is
// applied (Restoring); otherwise the raw file is loaded, parsed and given
// the default preset (Loading). A snapshot the engine reports as
// ErrSnapshotInvalid counts as no session and Loading runs instead. Ready
// subscribes to engine change events, which drive the handle's tracker.
// Disposal is idempotent and releases the subscription and engine from any
// state.
//
// Every engine call is followed by a check that the handle was not disposed
// meanwhile; late results are discarded and ErrDisposed returned.
package viewer
