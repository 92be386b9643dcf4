package session

// Transport is the device-facing messaging link the session container
// consumes. Satisfied by an adapter over the MQTT client; tests use an
// in-memory fake.
type Transport interface {
	// Publish sends a payload to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error

	// IsConnected reports the current link state.
	IsConnected() bool
}

// wireMessage is the JSON envelope controllers publish on their status
// and telemetry topics. The device ID comes from the topic, not the body.
type wireMessage struct {
	Channel        *string  `json:"channel,omitempty"`
	Value          *float64 `json:"value,omitempty"`
	Unit           *string  `json:"unit,omitempty"`
	SafeMode       *bool    `json:"safe_mode,omitempty"`
	EnterReason    *string  `json:"enter_reason,omitempty"`
	EnterTimestamp *int64   `json:"enter_timestamp,omitempty"` // Unix milliseconds
}

// wireCommand is the JSON envelope the hub publishes on a controller's
// command topic.
type wireCommand struct {
	CommandID string         `json:"command_id"`
	Channel   string         `json:"channel,omitempty"`
	Action    string         `json:"action"`
	Params    map[string]any `json:"params,omitempty"`
}
