package sensor

import "errors"

// Domain errors for the sensor package.
var (
	// ErrNotFound is returned when no reading exists for a composite key.
	ErrNotFound = errors.New("sensor: not found")

	// ErrInvalidArgument is returned when a device ID or channel is empty.
	ErrInvalidArgument = errors.New("sensor: invalid argument")
)
