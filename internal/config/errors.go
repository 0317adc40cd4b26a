package config

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying configuration failures. All of them are terminal:
// the broker must refuse to start rather than run on a partial configuration.
var (
	// ErrMissing indicates a required value absent from every source.
	ErrMissing = errors.New("missing configuration value")
	// ErrInvalid indicates a post-merge invariant violation.
	ErrInvalid = errors.New("invalid configuration")
	// ErrSource indicates a malformed or unreadable configuration source.
	ErrSource = errors.New("configuration source error")
)

// ConfigError carries the failing field address and a human-readable reason.
// It unwraps to one of the sentinel errors above.
type ConfigError struct {
	Field  string
	Reason string
	kind   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.kind, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", e.kind, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.kind }

func missingErr(field string) error {
	return &ConfigError{Field: field, Reason: "no value supplied by any source", kind: ErrMissing}
}

func invalidErr(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...), kind: ErrInvalid}
}

func sourceErr(source string, err error) error {
	return &ConfigError{Field: source, Reason: err.Error(), kind: ErrSource}
}
