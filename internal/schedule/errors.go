package schedule

import "errors"

// Domain errors for the schedule package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, schedule.ErrOutOfRange) {
//	    // handle out-of-range time component
//	}
var (
	// ErrInvalidFormat is returned when a time string is not two numeric
	// groups separated by a colon.
	ErrInvalidFormat = errors.New("schedule: invalid time format")

	// ErrOutOfRange is returned when hours are outside 00-23 or minutes
	// outside 00-59.
	ErrOutOfRange = errors.New("schedule: time component out of range")

	// ErrEmptyWindow is returned when a window's start equals its end.
	ErrEmptyWindow = errors.New("schedule: window start equals end")
)
