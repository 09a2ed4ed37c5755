package http

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length limits
const (
	MaxIDLength   = 128
	MaxNameLength = 256
)

// SafeIDPattern allows alphanumeric, hyphens, underscores
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateID checks a path identifier
func ValidateID(id, fieldName string) error {
	if id == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("%s must be at most %d characters", fieldName, MaxIDLength)
	}
	if !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateTypeName checks a navigation type name taken from the path
func ValidateTypeName(name string) error {
	return ValidateID(name, "type")
}

// ValidateName checks an optional display name
func ValidateName(name, fieldName string) error {
	if !utf8.ValidString(name) {
		return fmt.Errorf("%s must be valid UTF-8", fieldName)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%s must be at most %d characters", fieldName, MaxNameLength)
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return fmt.Errorf("%s must not contain control characters", fieldName)
	}
	return nil
}
