// Package common provides shared constants, types, and utilities
// used across the desktop shell.
package common

import "errors"

// Sentinel errors for shell operations.
// These can be checked with errors.Is() for proper error handling.
var (
	// Surface errors.
	ErrSurfaceGone    = errors.New("surface is closing or destroyed")
	ErrSurfaceStalled = errors.New("surface stopped reading its channel")
	ErrSurfaceLoad    = errors.New("failed to load surface content")
	ErrUnknownSurface = errors.New("unknown surface name")

	// Channel errors.
	ErrUnknownChannel = errors.New("unknown channel")
	ErrInvalidMessage = errors.New("invalid channel message")
	ErrChannelClosed  = errors.New("channel closed")
	ErrRequestFailed  = errors.New("request failed")

	// Theme errors.
	ErrInvalidThemeMode = errors.New("invalid theme mode")
	ErrThemeUnavailable = errors.New("system theme source unavailable")

	// Configuration errors.
	ErrConfigLoad = errors.New("failed to load configuration")
	ErrConfigSave = errors.New("failed to save configuration")

	// Process errors.
	ErrAlreadyRunning = errors.New("another shell instance is running")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
