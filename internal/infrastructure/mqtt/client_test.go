package mqtt

import (
	"errors"
	"strings"
	"testing"
)

func TestTopics_DeviceTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"status", topics.DeviceStatus("esp-1"), "fleethub/status/esp-1"},
		{"telemetry", topics.DeviceTelemetry("esp-1"), "fleethub/telemetry/esp-1"},
		{"command", topics.DeviceCommand("esp-1"), "fleethub/command/esp-1"},
		{"ack", topics.DeviceAck("esp-1"), "fleethub/ack/esp-1"},
		{"system status", topics.SystemStatus(), "fleethub/system/status"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s topic = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestTopics_WildcardPatterns(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"all status", topics.AllDeviceStatus(), "fleethub/status/+"},
		{"all telemetry", topics.AllDeviceTelemetry(), "fleethub/telemetry/+"},
		{"all acks", topics.AllDeviceAcks(), "fleethub/ack/+"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s pattern = %q, want %q", tt.name, tt.got, tt.want)
		}
		if !strings.Contains(tt.got, "+") {
			t.Errorf("%s pattern %q missing wildcard", tt.name, tt.got)
		}
	}
}

func TestPublish_ValidatesInputs(t *testing.T) {
	c := &Client{}

	if err := c.Publish("", []byte("x"), 0, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("fleethub/command/esp-1", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("qos 3: error = %v, want ErrInvalidQoS", err)
	}

	oversized := make([]byte, maxPayloadSize+1)
	if err := c.Publish("fleethub/command/esp-1", oversized, 0, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("oversized payload: error = %v, want ErrPublishFailed", err)
	}
}

func TestSubscribe_ValidatesInputs(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Subscribe("", 0, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("fleethub/status/+", 5, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("qos 5: error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Subscribe("fleethub/status/+", 0, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler: error = %v, want ErrSubscribeFailed", err)
	}
}

func TestPublish_NotConnected(t *testing.T) {
	c := &Client{}

	if err := c.Publish("fleethub/command/esp-1", []byte("x"), 0, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected publish: error = %v, want ErrNotConnected", err)
	}
}

func TestStatusPayloads(t *testing.T) {
	online := statusPayload("online", "fleethub-core", "")
	if !strings.Contains(online, `"status":"online"`) || !strings.Contains(online, `"client_id":"fleethub-core"`) {
		t.Errorf("online payload missing fields: %s", online)
	}
	if strings.Contains(online, `"reason"`) {
		t.Errorf("online payload should omit reason: %s", online)
	}

	offline := statusPayload("offline", "fleethub-core", "graceful_shutdown")
	if !strings.Contains(offline, `"status":"offline"`) || !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload missing fields: %s", offline)
	}
}
