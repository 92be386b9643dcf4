package identity

import "errors"

// Domain errors for the identity package.
var (
	// ErrInvalidIdentity is returned when a manual identity value is
	// empty or the reserved placeholder.
	ErrInvalidIdentity = errors.New("identity: invalid identity value")

	// ErrInvalidSettings is returned when a settings update is malformed.
	ErrInvalidSettings = errors.New("identity: invalid settings")
)
