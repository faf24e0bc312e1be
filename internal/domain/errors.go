package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationInvalid is returned when host or port are missing
	ErrConfigurationInvalid = errors.New("invalid configuration")
	// ErrBinaryNotFound is returned when the now-playing helper is not installed
	ErrBinaryNotFound = errors.New("media-control not found")
	// ErrExecutorUnavailable is returned for media commands when the helper was never resolved
	ErrExecutorUnavailable = errors.New("executor unavailable: media-control not found")
	// ErrNotConnected is returned by broker operations issued while offline
	ErrNotConnected = errors.New("not connected")
	// ErrMaxRetries marks the terminal broker state after the retry bound is exceeded
	ErrMaxRetries = errors.New("max retries")
	// ErrMalformedPayload marks undecodable helper lines or command payloads
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrInvalidVolume is returned for volume_set without a numeric value
	ErrInvalidVolume = errors.New("invalid volume level")
)

// HelperInstallHint is shown once when the helper binary is missing
const HelperInstallHint = "brew tap ungive/media-control && brew install media-control"

// CommandError wraps a failure to execute a player command
type CommandError struct {
	Command PlayerCommand
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
