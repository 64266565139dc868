package model

import "errors"

var (
	// ErrSessionNotFound is returned when a session id is not registered.
	ErrSessionNotFound = errors.New("session not found")

	// ErrDuplicateID is returned when registering a session whose id is
	// already in use. With collision-resistant id generation this should
	// never occur in practice.
	ErrDuplicateID = errors.New("duplicate session id")

	// ErrCaptureAgentUnavailable is returned when no capture agent is
	// connected within the configured wait bound.
	ErrCaptureAgentUnavailable = errors.New("no capture agent available")

	// ErrFrameNotFound is returned when the frame cache has no entry for
	// the requested display and kind.
	ErrFrameNotFound = errors.New("frame not found")

	// ErrInvalidCredentials is returned when an admin login fails.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned when a user is not in the user store.
	ErrUserNotFound = errors.New("user not found")
)
