// Package scene is an in-process viewer engine.
//
// It keeps the engine's state tree as a JSON document: the raw data cell,
// the parsed trajectory summary, the structure preset, its representations
// and the canvas. Snapshots are that document serialized with sonic, and
// include the raw text so a restored session needs no file.
//
// Format handling is limited to sniffing: ATOM/HETATM records are counted
// and mmCIF input must carry a data_ block header.
//
// Change events are delivered synchronously to the subscribers registered
// at the time of the change. The first subscriber after a preset is applied
// receives the initial frame's Canvas3D event.
package scene
