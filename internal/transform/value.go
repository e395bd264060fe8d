package transform

import "fmt"

// ValidationError reports a malformed job payload. It is surfaced to the
// submitter at job-creation time and never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ExpectMapping asserts that an arbitrary JSON value is an object.
func ExpectMapping(v any, what string) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, NewValidationError("%s must be a mapping, got %T", what, v)
	}
	return m, nil
}

// ExpectString asserts that an arbitrary JSON value is a non-empty string.
func ExpectString(v any, what string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", NewValidationError("%s must be a string, got %T", what, v)
	}
	if s == "" {
		return "", NewValidationError("%s must not be empty", what)
	}
	return s, nil
}

// OptionalString returns m[key] when it is a non-empty string, otherwise "".
func OptionalString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
