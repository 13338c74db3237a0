// Package types provides shared data structures for the molx backend.
//
// Core Types:
//   - Notification: user-facing toast or alert
//   - WSMessage: WebSocket envelope pushed to viewer clients
//   - WSClientMessage: frame sent by a viewer client over the stream
//
// Request Types:
//   - OpenViewerRequest: open the viewer for the accepted file
//   - ChangeEventRequest: client-observed engine change forwarded to the engine
package types
