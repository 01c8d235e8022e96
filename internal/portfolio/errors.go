package portfolio

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned, wrapped in a *ConfigError, when a
// Config fails validation. No trial is run in that case.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigError names the field that failed validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidConfiguration).
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

func invalid(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
