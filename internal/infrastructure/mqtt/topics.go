package mqtt

import "fmt"

// Topic prefixes for the Fleet Hub MQTT namespace.
//
// All device-facing topics use the flat scheme: fleethub/{category}/{device_id}.
// Controllers publish status and telemetry under their own device ID and
// subscribe to their command topic; the hub does the mirror image.
const (
	// TopicPrefix is the base for all Fleet Hub topics.
	TopicPrefix = "fleethub"

	// TopicPrefixSystem is the base for hub system topics (LWT, presence).
	TopicPrefixSystem = "fleethub/system"
)

// Topics provides builders for Fleet Hub MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	statusTopic := topics.DeviceStatus("esp-1")
//	// Returns: "fleethub/status/esp-1"
type Topics struct{}

// DeviceStatus returns the topic a controller publishes lifecycle and
// safe-mode status on.
//
// Example: fleethub/status/esp-1
func (Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefix, deviceID)
}

// DeviceTelemetry returns the topic a controller publishes sensor
// readings on.
//
// Example: fleethub/telemetry/esp-1
func (Topics) DeviceTelemetry(deviceID string) string {
	return fmt.Sprintf("%s/telemetry/%s", TopicPrefix, deviceID)
}

// DeviceCommand returns the topic the hub publishes commands to a
// controller on.
//
// Example: fleethub/command/esp-1
func (Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, deviceID)
}

// DeviceAck returns the topic a controller acknowledges commands on.
//
// Example: fleethub/ack/esp-1
func (Topics) DeviceAck(deviceID string) string {
	return fmt.Sprintf("%s/ack/%s", TopicPrefix, deviceID)
}

// SystemStatus returns the hub's own status topic, used for the online
// announcement and the Last Will and Testament.
//
// Example: fleethub/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Subscription Patterns
// =============================================================================

// AllDeviceStatus returns the wildcard pattern matching every controller's
// status topic.
//
// Example: fleethub/status/+
func (Topics) AllDeviceStatus() string {
	return fmt.Sprintf("%s/status/+", TopicPrefix)
}

// AllDeviceTelemetry returns the wildcard pattern matching every
// controller's telemetry topic.
//
// Example: fleethub/telemetry/+
func (Topics) AllDeviceTelemetry() string {
	return fmt.Sprintf("%s/telemetry/+", TopicPrefix)
}

// AllDeviceAcks returns the wildcard pattern matching every controller's
// acknowledgement topic.
//
// Example: fleethub/ack/+
func (Topics) AllDeviceAcks() string {
	return fmt.Sprintf("%s/ack/+", TopicPrefix)
}
