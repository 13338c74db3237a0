package types

// OpenViewerRequest opens the viewer view for the accepted file
type OpenViewerRequest struct {
	ViewID string `json:"view_id,omitempty"`
}

// ChangeEventRequest forwards a change observed by the client into the engine
type ChangeEventRequest struct {
	Kind string `json:"kind"`
	Ref  string `json:"ref,omitempty"`
}

// WSMessage is the envelope pushed to stream subscribers
type WSMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// WSClientMessage is a frame sent by a stream subscriber
type WSClientMessage struct {
	Type string `json:"type"`
	Kind string `json:"kind,omitempty"`
	Ref  string `json:"ref,omitempty"`
}

// Stream message types
const (
	WSTypeSystem       = "system"
	WSTypeFlags        = "flags"
	WSTypeNotification = "notification"
	WSTypeStatus       = "status"
	WSTypeState        = "state"
	WSTypePong         = "pong"
	WSTypeError        = "error"

	// Client → server
	WSTypePing  = "ping"
	WSTypeEvent = "event"
)
