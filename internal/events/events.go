// Package events defines the event type names and payload structures shared
// by all state containers.
//
// Containers never import one another; every cross-container interaction
// travels over the event bus as one of the payloads defined here. The package
// is a leaf: it imports nothing from the rest of the module, so any container
// (and the hub) can depend on it without forming a cycle.
package events

import "time"

// Event type names. Subscribers register against these constants; publishers
// never hand-write the strings.
const (
	// TypeDeviceMessage is published by the session container for every
	// status/telemetry message received from the device transport.
	TypeDeviceMessage = "device.message"

	// TypeDeviceChanged is published by the device registry after any
	// device record mutation (liveness, safe mode, zone denormalisation).
	TypeDeviceChanged = "device.changed"

	// TypeDeviceUnreachable is published by the session container when a
	// device has been silent beyond the configured window.
	TypeDeviceUnreachable = "device.unreachable"

	// TypeSensorChanged is published by the sensor registry when a reading
	// is recorded. Every payload carries a real sample.
	TypeSensorChanged = "sensor.changed"

	// TypeSensorRegistered is published by the sensor registry when a
	// channel is declared ahead of its first reading. No sample exists
	// yet, so the payload carries no value.
	TypeSensorRegistered = "sensor.registered"

	// TypeActuatorChanged is published by the actuator registry on rule
	// create/update/enable/disable.
	TypeActuatorChanged = "actuator.changed"

	// TypeZoneChanged is published by the zone registry when a device's
	// zone assignment changes.
	TypeZoneChanged = "zone.changed"

	// TypeIdentityChanged is published by the identity resolver when the
	// authoritative kaiser ID changes.
	TypeIdentityChanged = "identity.changed"

	// TypeCommandRequest is published by the dispatch container; the
	// session container performs the transport send for it.
	TypeCommandRequest = "command.request"

	// TypeCommandResult is published by the session container with the
	// outcome of a transport send; consumed by the dispatch container.
	TypeCommandResult = "command.result"

	// TypeSessionChanged is published by the session container when
	// transport connectivity changes.
	TypeSessionChanged = "session.changed"

	// TypeConfigChanged is published by the identity container after a
	// settings update.
	TypeConfigChanged = "config.changed"

	// TypePrefsChanged is published by the preferences container.
	TypePrefsChanged = "prefs.changed"

	// TypeDashboardChanged is published by the dashboard container.
	TypeDashboardChanged = "dashboard.changed"
)

// DeviceMessage is the normalised transport ingress payload.
//
// Optional fields are pointers: a nil pointer means the field was absent from
// the wire message, which is different from a zero value.
type DeviceMessage struct {
	DeviceID       string    `json:"device_id"`
	Channel        *string   `json:"channel,omitempty"`
	Value          *float64  `json:"value,omitempty"`
	Unit           *string   `json:"unit,omitempty"`
	SafeMode       *bool     `json:"safe_mode,omitempty"`
	EnterReason    *string   `json:"enter_reason,omitempty"`
	EnterTimestamp *int64    `json:"enter_timestamp,omitempty"` // Unix milliseconds
	ReceivedAt     time.Time `json:"received_at"`
}

// DeviceChanged identifies a mutated device record.
type DeviceChanged struct {
	DeviceID string `json:"device_id"`
}

// DeviceUnreachable marks a device silent beyond the unreachable window.
type DeviceUnreachable struct {
	DeviceID string    `json:"device_id"`
	LastSeen time.Time `json:"last_seen"`
}

// SensorChanged identifies a mutated sensor composite key.
type SensorChanged struct {
	DeviceID string  `json:"device_id"`
	Channel  string  `json:"channel"`
	Value    float64 `json:"value"`
	Unit     string  `json:"unit"`
}

// SensorRegistered declares a channel and its unit before any reading.
type SensorRegistered struct {
	DeviceID string `json:"device_id"`
	Channel  string `json:"channel"`
	Unit     string `json:"unit"`
}

// ActuatorChanged identifies a mutated actuator rule.
type ActuatorChanged struct {
	DeviceID string `json:"device_id"`
	Channel  string `json:"channel"`
}

// ZoneChanged records a device's new zone assignment.
type ZoneChanged struct {
	DeviceID string `json:"device_id"`
	Zone     string `json:"zone"`
}

// IdentityChanged records a kaiser ID transition with provenance.
type IdentityChanged struct {
	OldValue   string `json:"old_value"`
	NewValue   string `json:"new_value"`
	Provenance string `json:"provenance"`
}

// CommandRequest asks the session container to send a command to a device.
type CommandRequest struct {
	CommandID string         `json:"command_id"`
	DeviceID  string         `json:"device_id"`
	Channel   string         `json:"channel,omitempty"`
	Action    string         `json:"action"`
	Params    map[string]any `json:"params,omitempty"`
}

// CommandResult reports the outcome of a transport send.
// Error is empty on success.
type CommandResult struct {
	CommandID string `json:"command_id"`
	DeviceID  string `json:"device_id"`
	Error     string `json:"error,omitempty"`
}

// SessionChanged reports transport connectivity transitions.
type SessionChanged struct {
	Connected bool `json:"connected"`
}

// ConfigChanged lists the settings keys that were updated.
type ConfigChanged struct {
	Keys []string `json:"keys"`
}

// PrefsChanged signals that the UI preferences were updated.
type PrefsChanged struct {
	Keys []string `json:"keys"`
}

// DashboardChanged signals that the dashboard layout was updated.
type DashboardChanged struct{}
