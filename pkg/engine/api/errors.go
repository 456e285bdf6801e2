package api

import (
	"errors"
	"fmt"
)

// ConfigError reports a malformed configuration, for example a cache TTL
// that exceeds the scan max age. It is fatal at load time; the host must
// refuse to start.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Message)
}

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(format string, args ...interface{}) error {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// FetchError reports that an attestation or scan source was unreachable or
// timed out. It is non-fatal: the affected verification fails closed.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed: %s", e.Err.Error())
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps an error from an external source.
func NewFetchError(err error) error {
	if err == nil {
		return nil
	}
	return &FetchError{Err: err}
}

// ValidationError reports a malformed attestation or an unparseable image
// reference. Like FetchError it fails closed instead of aborting evaluation.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Err.Error())
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps a validation failure.
func NewValidationError(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}
