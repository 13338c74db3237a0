// Package main is the entry point for the molx backend server.
//
// molx lets a user upload a .pdb or .cif structure file, inspect it in a
// viewer, save the view and get it back after a page reload.
//
// Architecture:
//
//	Browser (viewer UI) → HTTP API / WebSocket → app manager
//	                                           → viewer lifecycle → scene engine
//	                                           → session store (sqlite|redis|file|memory)
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -storage sqlite -sqlite ./data/molx.db
//
//	# Development mode (colored logs, in-memory session)
//	./server -dev -storage memory -log-level debug
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
