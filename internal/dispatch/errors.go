package dispatch

import "errors"

// Domain errors for the dispatch package.
var (
	// ErrNotFound is returned when a command ID is unknown.
	ErrNotFound = errors.New("dispatch: command not found")

	// ErrInvalidCommand is returned when a dispatch request is malformed.
	ErrInvalidCommand = errors.New("dispatch: invalid command")

	// ErrSendFailed is returned when the transport rejected the command.
	ErrSendFailed = errors.New("dispatch: send failed")

	// ErrCancelled is returned when the caller's context was cancelled
	// before the command was sent.
	ErrCancelled = errors.New("dispatch: cancelled")
)
