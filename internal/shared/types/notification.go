package types

// Level is the severity of a user notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Notification is a message surfaced to the user
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	// Blocking notifications are shown as alerts rather than toasts.
	Blocking bool `json:"blocking,omitempty"`
}

// User-facing messages
const (
	MsgSaved        = "View saved successfully."
	MsgSavedHint    = "Re-upload the same file to verify that your changes are preserved after a refresh."
	MsgReset        = "View reset successfully."
	MsgInvalidFile  = "Please upload a .pdb or .cif file."
	MsgFileTooLarge = "File is too large."
)

// Success builds a success toast
func Success(msg string) Notification {
	return Notification{Level: LevelSuccess, Message: msg}
}

// Info builds an informational toast
func Info(msg string) Notification {
	return Notification{Level: LevelInfo, Message: msg}
}

// Alert builds a blocking warning
func Alert(msg string) Notification {
	return Notification{Level: LevelWarning, Message: msg, Blocking: true}
}
