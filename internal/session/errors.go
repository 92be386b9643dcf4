package session

import "errors"

// Domain errors for the session package.
var (
	// ErrInvalidMessage is returned when an ingress message has no device ID.
	ErrInvalidMessage = errors.New("session: invalid message")

	// ErrNotConnected is returned when a command send is attempted while
	// the transport link is down.
	ErrNotConnected = errors.New("session: transport not connected")
)
