// Package session persists the viewer snapshot across reloads.
//
// The store holds a singleton: one record under a well-known key
// (molx_session by default). Saving overwrites it, clearing deletes it.
// There is no versioning and no merge.
//
// Restore treats a missing, unreadable or malformed record as "no session".
// Malformed content is logged and counted, never returned to the caller.
//
// Example Usage:
//
//	manager := session.NewManager(store, session.WithLogger(log))
//	snap, err := manager.Save(ctx, engine)
//	snap, ok := manager.Restore(ctx)
//	err = manager.Clear(ctx)
package session
