// Package server wires the molx backend together.
//
// NewServer builds, in order: logger, metrics, tracer, session storage,
// session manager, scene engine factory, viewer manager, file intake,
// stream hub, application manager and the gin router with its middleware.
// Run serves until its context is canceled; Close releases the viewer
// engine and storage.
package server
