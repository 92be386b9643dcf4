package device

import "time"

// Status represents a device's liveness state.
type Status string

// Valid device statuses.
const (
	// StatusOnline means the device has sent a message recently.
	StatusOnline Status = "online"

	// StatusOffline means the transport link to the fleet is down.
	StatusOffline Status = "offline"

	// StatusUnreachable means the device has been silent beyond the
	// configured window while the transport itself was up.
	StatusUnreachable Status = "unreachable"
)

// Device is a fleet controller as known to the registry.
//
// Devices are created on first message and never deleted; a vanished
// device is only ever marked unreachable. Zone is denormalised from the
// zone registry via events so reads need no cross-container call.
type Device struct {
	// ID is the unique controller identifier (e.g. "esp-1").
	ID string `json:"id"`

	// Status is the current liveness state.
	Status Status `json:"status"`

	// Zone is the denormalised zone assignment. Nil until the zone
	// registry first assigns one.
	Zone *string `json:"zone,omitempty"`

	// SafeMode reports whether the controller is in safe mode.
	SafeMode bool `json:"safe_mode"`

	// SafeModeReason is the controller-reported reason for entering safe
	// mode. Nil when SafeMode is false.
	SafeModeReason *string `json:"safe_mode_reason,omitempty"`

	// SafeModeSince is when the controller entered safe mode.
	// Nil when SafeMode is false.
	SafeModeSince *time.Time `json:"safe_mode_since,omitempty"`

	// LastSeen is the receipt time of the most recent message.
	LastSeen time.Time `json:"last_seen"`
}

// DeepCopy returns a copy of the device with no shared pointers.
// Used to keep registry state isolated from callers.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	clone := *d
	if d.Zone != nil {
		zone := *d.Zone
		clone.Zone = &zone
	}
	if d.SafeModeReason != nil {
		reason := *d.SafeModeReason
		clone.SafeModeReason = &reason
	}
	if d.SafeModeSince != nil {
		since := *d.SafeModeSince
		clone.SafeModeSince = &since
	}
	return &clone
}
