package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/events"
	"github.com/fleetforge/fleet-hub/internal/infrastructure/mqtt"
)

// Logger defines the logging interface used by the Session.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Session owns the connection state and per-device message bookkeeping.
//
// It is the only container touching the device transport: ingress
// messages are validated, stamped and republished as events.DeviceMessage;
// command requests from the bus are sent over the transport and answered
// with events.CommandResult within the same fan-out. Devices silent
// beyond the configured window are flagged unreachable via the sweep.
//
// All public methods are thread-safe.
type Session struct {
	transport Transport
	bus       *eventbus.Bus
	qos       byte

	mu               sync.RWMutex
	lastSeen         map[string]time.Time
	messageCount     map[string]uint64
	flagged          map[string]bool // devices already swept unreachable
	connected        bool
	unreachableAfter time.Duration

	now    func() time.Time
	logger Logger
}

// New creates a session container and attaches its command subscription
// to the bus. Call Start to attach the transport subscriptions.
func New(bus *eventbus.Bus, transport Transport, qos byte, unreachableAfter time.Duration) *Session {
	s := &Session{
		transport:        transport,
		bus:              bus,
		qos:              qos,
		lastSeen:         make(map[string]time.Time),
		messageCount:     make(map[string]uint64),
		flagged:          make(map[string]bool),
		unreachableAfter: unreachableAfter,
		now:              time.Now,
		logger:           noopLogger{},
	}

	bus.Subscribe(events.TypeCommandRequest, s.onCommandRequest)

	return s
}

// SetLogger sets the logger for the session.
func (s *Session) SetLogger(logger Logger) {
	s.logger = logger
}

// Start subscribes to the fleet's status and telemetry topics and marks
// the session connected.
func (s *Session) Start() error {
	topics := mqtt.Topics{}
	for _, pattern := range []string{topics.AllDeviceStatus(), topics.AllDeviceTelemetry()} {
		if err := s.transport.Subscribe(pattern, s.qos, s.onTransportMessage); err != nil {
			return fmt.Errorf("subscribing to %s: %w", pattern, err)
		}
	}

	s.SetConnected(s.transport.IsConnected())
	return nil
}

// onTransportMessage decodes a controller's JSON envelope and feeds it
// through the ingress path. The device ID is the last topic segment.
func (s *Session) onTransportMessage(topic string, payload []byte) error {
	var wire wireMessage
	if err := json.Unmarshal(payload, &wire); err != nil {
		return fmt.Errorf("%w: malformed payload on %s: %w", ErrInvalidMessage, topic, err)
	}

	return s.OnDeviceMessage(events.DeviceMessage{
		DeviceID:       deviceIDFromTopic(topic),
		Channel:        wire.Channel,
		Value:          wire.Value,
		Unit:           wire.Unit,
		SafeMode:       wire.SafeMode,
		EnterReason:    wire.EnterReason,
		EnterTimestamp: wire.EnterTimestamp,
	})
}

// OnDeviceMessage is the ingress for one device message. It validates the
// payload, stamps the receipt time, updates bookkeeping and republishes
// the message on the bus.
func (s *Session) OnDeviceMessage(msg events.DeviceMessage) error {
	if msg.DeviceID == "" {
		return fmt.Errorf("%w: device id is required", ErrInvalidMessage)
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = s.now()
	}

	s.mu.Lock()
	s.lastSeen[msg.DeviceID] = msg.ReceivedAt
	s.messageCount[msg.DeviceID]++
	delete(s.flagged, msg.DeviceID)
	s.mu.Unlock()

	s.bus.Publish(eventbus.Event{Type: events.TypeDeviceMessage, Payload: msg})
	return nil
}

// onCommandRequest performs the transport send for a dispatched command
// and publishes the result within the same synchronous fan-out.
func (s *Session) onCommandRequest(ev eventbus.Event) {
	req, ok := ev.Payload.(events.CommandRequest)
	if !ok {
		return
	}

	err := s.sendCommand(req)
	result := events.CommandResult{CommandID: req.CommandID, DeviceID: req.DeviceID}
	if err != nil {
		result.Error = err.Error()
		s.logger.Warn("command send failed",
			"command_id", req.CommandID,
			"device_id", req.DeviceID,
			"error", err,
		)
	}

	s.bus.Publish(eventbus.Event{Type: events.TypeCommandResult, Payload: result})
}

func (s *Session) sendCommand(req events.CommandRequest) error {
	if !s.Connected() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(wireCommand{
		CommandID: req.CommandID,
		Channel:   req.Channel,
		Action:    req.Action,
		Params:    req.Params,
	})
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}

	topic := mqtt.Topics{}.DeviceCommand(req.DeviceID)
	if err := s.transport.Publish(topic, payload, s.qos, false); err != nil {
		return fmt.Errorf("sending command: %w", err)
	}
	return nil
}

// SetConnected records a transport connectivity transition, publishing
// events.SessionChanged only on change. Wired to the transport's
// connect/disconnect callbacks.
func (s *Session) SetConnected(connected bool) {
	s.mu.Lock()
	changed := s.connected != connected
	s.connected = connected
	s.mu.Unlock()

	if !changed {
		return
	}
	if connected {
		s.logger.Info("transport connected")
	} else {
		s.logger.Warn("transport disconnected")
	}
	s.bus.Publish(eventbus.Event{
		Type:    events.TypeSessionChanged,
		Payload: events.SessionChanged{Connected: connected},
	})
}

// Connected reports the current transport link state.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// LastSeen returns the receipt time of a device's most recent message.
func (s *Session) LastSeen(deviceID string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.lastSeen[deviceID]
	return t, ok
}

// MessageCount returns the number of messages received from a device.
func (s *Session) MessageCount(deviceID string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messageCount[deviceID]
}

// SweepUnreachable flags every device silent beyond the configured
// window, publishing events.DeviceUnreachable once per device until it
// speaks again. Returns the IDs flagged by this sweep.
func (s *Session) SweepUnreachable() []string {
	if s.unreachableAfter <= 0 {
		return nil
	}
	cutoff := s.now().Add(-s.unreachableAfter)

	s.mu.Lock()
	var swept []string
	var seen []time.Time
	for id, last := range s.lastSeen {
		if last.Before(cutoff) && !s.flagged[id] {
			s.flagged[id] = true
			swept = append(swept, id)
			seen = append(seen, last)
		}
	}
	s.mu.Unlock()

	for i, id := range swept {
		s.bus.Publish(eventbus.Event{
			Type:    events.TypeDeviceUnreachable,
			Payload: events.DeviceUnreachable{DeviceID: id, LastSeen: seen[i]},
		})
	}
	return swept
}

// RunSweeper runs the unreachable sweep on a fixed interval until the
// context is cancelled. Intended to be started as a goroutine from main.
func (s *Session) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepUnreachable()
		}
	}
}

// deviceIDFromTopic extracts the device ID from a fleethub topic
// (always the last segment).
func deviceIDFromTopic(topic string) string {
	idx := strings.LastIndexByte(topic, '/')
	if idx < 0 {
		return topic
	}
	return topic[idx+1:]
}
