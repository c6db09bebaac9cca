package domain

import "errors"

// Sentinel errors for session operations.
var (
	// ErrNotFound means no session exists under the requested name.
	ErrNotFound = errors.New("session not found")
	// ErrNotConnected means the session exists but is not authenticated.
	ErrNotConnected = errors.New("session not connected")
	// ErrNumberNotRegistered means the recipient is unknown to the
	// remote network.
	ErrNumberNotRegistered = errors.New("number not registered")
	// ErrInvalidTransition means a lifecycle event arrived that the
	// state machine does not permit from the current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)
