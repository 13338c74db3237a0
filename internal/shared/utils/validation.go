package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// String length limits
const (
	MaxIDLength       = 128
	MaxFileNameLength = 255
	MaxKindLength     = 64
)

// Regular expressions for validation
var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// KindPattern allows identifier-like engine object kinds (Canvas3D, Structure, ...)
	KindPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]*$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateFileName validates an uploaded file name
func ValidateFileName(name string) error {
	if err := ValidateString(name, "file name", 1, MaxFileNameLength, true); err != nil {
		return err
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("file name must not contain path separators")
	}
	return nil
}

// ValidateKind validates an engine object kind reported by a client.
// An empty kind is allowed: it models a change event without an object.
func ValidateKind(kind string) error {
	if err := ValidateString(kind, "kind", 1, MaxKindLength, false); err != nil {
		return err
	}
	if kind != "" && !KindPattern.MatchString(kind) {
		return fmt.Errorf("kind contains invalid characters")
	}
	return nil
}
