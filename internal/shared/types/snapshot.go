package types

// Snapshot is the serialized view state of a viewer engine.
// Its content is opaque outside the engine that produced it.
type Snapshot []byte

// Len returns the encoded size in bytes
func (s Snapshot) Len() int { return len(s) }

// Clone returns an independent copy
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}
