// Package ws pushes viewer state to browser clients over WebSocket.
//
// The Hub implements app.Broadcaster: flag changes, viewer status and
// user notifications are fanned out to every connected client. Each client
// has a buffered send queue drained by its own write goroutine; a client
// whose queue fills up is dropped.
//
// Message Types (Client → Server):
//   - ping: keep-alive, answered with pong
//   - event: engine change observed by the client ({"kind", "ref"})
//   - state: request a fresh application state
//
// Message Types (Server → Client):
//   - system: welcome with the client id
//   - state: full application state (sent on connect)
//   - flags: save/reset flags of the current viewer
//   - status: viewer lifecycle status
//   - notification: toast or blocking alert
//   - error: request could not be handled
//
// Example Usage:
//
//	hub := ws.NewHub(logger).WithMetrics(metrics)
//	appManager.WithBroadcaster(hub)
//	hub.Bind(appManager)
//	router.GET("/stream", hub.HandleConnection)
package ws
