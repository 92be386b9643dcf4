package actuator

import "errors"

// Domain errors for the actuator package.
var (
	// ErrNotFound is returned when no rule exists for a device/channel.
	ErrNotFound = errors.New("actuator: rule not found")

	// ErrRuleExists is returned when creating a rule for a key that
	// already has one.
	ErrRuleExists = errors.New("actuator: rule already exists")

	// ErrInvalidRule is returned when rule validation fails. Window
	// validation failures wrap this together with the schedule error.
	ErrInvalidRule = errors.New("actuator: invalid rule")
)
