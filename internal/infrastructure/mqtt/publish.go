package mqtt

import (
	"fmt"
)

// maxPayloadSize caps outbound payloads at 1 MiB, matching the limits of
// typical brokers and the small controllers on the other end.
const maxPayloadSize = 1 << 20

// Publish sends a payload to a topic and waits for broker confirmation.
//
// Retained should be true only for state topics (device status, system
// status) where late subscribers need the last value; commands and events
// are never retained.
//
// Example:
//
//	topic := mqtt.Topics{}.DeviceCommand("esp-1")
//	err := client.Publish(topic, []byte(`{"action":"set","value":1}`), 1, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}
