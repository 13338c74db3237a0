// Package tracker derives the viewer's save/reset availability from engine
// change events.
//
// The transition rule is the pure function Next: an event whose object kind
// is Canvas3D, Structure or Representation marks the view dirty. Nothing
// marks it clean again except MarkRestored; a new viewer handle gets a new
// Tracker that starts clean.
//
// ResetEnabled mirrors whether a persisted session exists. It is only changed
// through MarkRestored, MarkSaved and MarkCleared.
package tracker
