package hub

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotInitialized is returned by operations that need a completed
// InitializeSystem first.
var ErrNotInitialized = errors.New("hub: not initialised")

// ErrNotConfigured is returned by writes that need a store the hub was
// built without.
var ErrNotConfigured = errors.New("hub: store not configured")

// PartialFailureError reports a multi-target operation that succeeded
// for some devices and not others. FailedDevices names exactly the
// devices that were not reached; every device not listed was confirmed.
type PartialFailureError struct {
	FailedDevices []string
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("hub: partial failure, %d device(s) not reached: %s",
		len(e.FailedDevices), strings.Join(e.FailedDevices, ", "))
}

// InitializationError reports which container failed to reach ready
// state during InitializeSystem.
type InitializationError struct {
	Container string
	Err       error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("hub: initialising %s: %v", e.Container, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}
