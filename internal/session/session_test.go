package session

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/events"
)

// fakeTransport records publishes and lets tests drive subscriptions.
type fakeTransport struct {
	connected  bool
	published  []publishCall
	handlers   map[string]func(topic string, payload []byte) error
	publishErr error
}

type publishCall struct {
	topic   string
	payload []byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		connected: true,
		handlers:  make(map[string]func(string, []byte) error),
	}
}

func (f *fakeTransport) Publish(topic string, payload []byte, _ byte, _ bool) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, publishCall{topic: topic, payload: payload})
	return nil
}

func (f *fakeTransport) Subscribe(topic string, _ byte, handler func(string, []byte) error) error {
	f.handlers[topic] = handler
	return nil
}

func (f *fakeTransport) IsConnected() bool { return f.connected }

func TestSession_OnDeviceMessage(t *testing.T) {
	bus := eventbus.New()
	s := New(bus, newFakeTransport(), 1, time.Minute)

	var got []events.DeviceMessage
	bus.Subscribe(events.TypeDeviceMessage, func(ev eventbus.Event) {
		got = append(got, ev.Payload.(events.DeviceMessage))
	})

	if err := s.OnDeviceMessage(events.DeviceMessage{DeviceID: "esp-1"}); err != nil {
		t.Fatalf("OnDeviceMessage() error = %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("DeviceMessage published %d times, want 1", len(got))
	}
	if got[0].ReceivedAt.IsZero() {
		t.Error("ReceivedAt not stamped")
	}
	if s.MessageCount("esp-1") != 1 {
		t.Errorf("MessageCount = %d, want 1", s.MessageCount("esp-1"))
	}
	if _, ok := s.LastSeen("esp-1"); !ok {
		t.Error("LastSeen not recorded")
	}
}

func TestSession_OnDeviceMessageRejectsEmptyID(t *testing.T) {
	bus := eventbus.New()
	s := New(bus, newFakeTransport(), 1, time.Minute)

	var published int
	bus.Subscribe(events.TypeDeviceMessage, func(eventbus.Event) { published++ })

	if err := s.OnDeviceMessage(events.DeviceMessage{}); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("OnDeviceMessage() error = %v, want ErrInvalidMessage", err)
	}
	if published != 0 {
		t.Errorf("invalid message was published %d times", published)
	}
}

func TestSession_StartSubscribesAndParsesWireMessages(t *testing.T) {
	bus := eventbus.New()
	transport := newFakeTransport()
	s := New(bus, transport, 1, time.Minute)

	var got []events.DeviceMessage
	bus.Subscribe(events.TypeDeviceMessage, func(ev eventbus.Event) {
		got = append(got, ev.Payload.(events.DeviceMessage))
	})

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	handler, ok := transport.handlers["fleethub/telemetry/+"]
	if !ok {
		t.Fatalf("no telemetry subscription; handlers = %v", len(transport.handlers))
	}
	if _, ok := transport.handlers["fleethub/status/+"]; !ok {
		t.Fatal("no status subscription")
	}

	body := []byte(`{"channel":"temp","value":21.5,"unit":"C"}`)
	if err := handler("fleethub/telemetry/esp-1", body); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("DeviceMessage published %d times, want 1", len(got))
	}
	msg := got[0]
	if msg.DeviceID != "esp-1" {
		t.Errorf("DeviceID = %q, want esp-1 (from topic)", msg.DeviceID)
	}
	if msg.Channel == nil || *msg.Channel != "temp" || msg.Value == nil || *msg.Value != 21.5 {
		t.Errorf("payload not decoded: %+v", msg)
	}
}

func TestSession_MalformedWirePayload(t *testing.T) {
	bus := eventbus.New()
	transport := newFakeTransport()
	s := New(bus, transport, 1, time.Minute)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	handler := transport.handlers["fleethub/status/+"]
	if err := handler("fleethub/status/esp-1", []byte("not json")); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("handler error = %v, want ErrInvalidMessage", err)
	}
}

func TestSession_CommandRoundTrip(t *testing.T) {
	bus := eventbus.New()
	transport := newFakeTransport()
	s := New(bus, transport, 1, time.Minute)
	s.SetConnected(true)

	var results []events.CommandResult
	bus.Subscribe(events.TypeCommandResult, func(ev eventbus.Event) {
		results = append(results, ev.Payload.(events.CommandResult))
	})

	bus.Publish(eventbus.Event{
		Type: events.TypeCommandRequest,
		Payload: events.CommandRequest{
			CommandID: "cmd-1",
			DeviceID:  "esp-1",
			Channel:   "pump",
			Action:    "stop",
		},
	})

	if len(transport.published) != 1 {
		t.Fatalf("transport publishes = %d, want 1", len(transport.published))
	}
	call := transport.published[0]
	if call.topic != "fleethub/command/esp-1" {
		t.Errorf("topic = %q, want fleethub/command/esp-1", call.topic)
	}
	var wire wireCommand
	if err := json.Unmarshal(call.payload, &wire); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if wire.CommandID != "cmd-1" || wire.Action != "stop" || wire.Channel != "pump" {
		t.Errorf("wire command = %+v", wire)
	}

	if len(results) != 1 {
		t.Fatalf("CommandResult published %d times, want 1", len(results))
	}
	if results[0].CommandID != "cmd-1" || results[0].Error != "" {
		t.Errorf("result = %+v, want success for cmd-1", results[0])
	}
}

func TestSession_CommandFailsWhenDisconnected(t *testing.T) {
	bus := eventbus.New()
	transport := newFakeTransport()
	s := New(bus, transport, 1, time.Minute)
	s.SetConnected(false)

	var results []events.CommandResult
	bus.Subscribe(events.TypeCommandResult, func(ev eventbus.Event) {
		results = append(results, ev.Payload.(events.CommandResult))
	})

	bus.Publish(eventbus.Event{
		Type:    events.TypeCommandRequest,
		Payload: events.CommandRequest{CommandID: "cmd-1", DeviceID: "esp-1", Action: "stop"},
	})

	if len(transport.published) != 0 {
		t.Errorf("disconnected session published %d transport messages", len(transport.published))
	}
	if len(results) != 1 || results[0].Error == "" {
		t.Fatalf("results = %+v, want one failed result", results)
	}
}

func TestSession_SetConnectedPublishesOnChangeOnly(t *testing.T) {
	bus := eventbus.New()
	s := New(bus, newFakeTransport(), 1, time.Minute)

	var got []events.SessionChanged
	bus.Subscribe(events.TypeSessionChanged, func(ev eventbus.Event) {
		got = append(got, ev.Payload.(events.SessionChanged))
	})

	s.SetConnected(true)
	s.SetConnected(true)
	s.SetConnected(false)

	if len(got) != 2 {
		t.Fatalf("SessionChanged published %d times, want 2", len(got))
	}
	if !got[0].Connected || got[1].Connected {
		t.Errorf("payloads = %+v, want [true false]", got)
	}
}

func TestSession_SweepUnreachable(t *testing.T) {
	bus := eventbus.New()
	s := New(bus, newFakeTransport(), 1, time.Minute)

	var flagged []string
	bus.Subscribe(events.TypeDeviceUnreachable, func(ev eventbus.Event) {
		flagged = append(flagged, ev.Payload.(events.DeviceUnreachable).DeviceID)
	})

	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	if err := s.OnDeviceMessage(events.DeviceMessage{DeviceID: "esp-1"}); err != nil {
		t.Fatal(err)
	}

	// Within the window: nothing swept.
	s.now = func() time.Time { return base.Add(30 * time.Second) }
	if swept := s.SweepUnreachable(); len(swept) != 0 {
		t.Errorf("premature sweep flagged %v", swept)
	}

	// Beyond the window: flagged exactly once.
	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	if swept := s.SweepUnreachable(); len(swept) != 1 || swept[0] != "esp-1" {
		t.Errorf("sweep = %v, want [esp-1]", swept)
	}
	if swept := s.SweepUnreachable(); len(swept) != 0 {
		t.Errorf("repeat sweep flagged %v", swept)
	}
	if len(flagged) != 1 {
		t.Errorf("DeviceUnreachable published %d times, want 1", len(flagged))
	}

	// A new message clears the flag so a later silence is re-flagged.
	s.now = func() time.Time { return base.Add(3 * time.Minute) }
	if err := s.OnDeviceMessage(events.DeviceMessage{DeviceID: "esp-1", ReceivedAt: s.now()}); err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return base.Add(10 * time.Minute) }
	if swept := s.SweepUnreachable(); len(swept) != 1 {
		t.Errorf("re-sweep = %v, want [esp-1]", swept)
	}
}
