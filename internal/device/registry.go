package device

import (
	"sync"
	"time"

	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/events"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry owns the fleet's device records.
//
// Devices are created on first message, mutated only through event
// subscriptions (liveness, safe mode, zone denormalisation), and never
// deleted. Every mutation publishes events.DeviceChanged.
//
// All public methods are thread-safe. Reads return deep copies; callers
// can safely modify them.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Device
	pending map[string]string // zone assignments awaiting device discovery
	bus     *eventbus.Bus
	logger  Logger
}

// NewRegistry creates a device registry and attaches its event
// subscriptions to the bus.
func NewRegistry(bus *eventbus.Bus) *Registry {
	r := &Registry{
		devices: make(map[string]*Device),
		pending: make(map[string]string),
		bus:     bus,
		logger:  noopLogger{},
	}

	bus.Subscribe(events.TypeDeviceMessage, r.onDeviceMessage)
	bus.Subscribe(events.TypeZoneChanged, r.onZoneChanged)
	bus.Subscribe(events.TypeDeviceUnreachable, r.onDeviceUnreachable)
	bus.Subscribe(events.TypeSessionChanged, r.onSessionChanged)

	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Get retrieves a device by ID.
// Returns ErrNotFound if the device does not exist.
func (r *Registry) Get(id string) (*Device, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.DeepCopy(), nil
}

// List retrieves all known devices.
func (r *Registry) List() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, *d.DeepCopy())
	}
	return devices
}

// Count returns the number of known devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// onDeviceMessage applies liveness and safe-mode state from a transport
// message, creating the device on first sight.
func (r *Registry) onDeviceMessage(ev eventbus.Event) {
	msg, ok := ev.Payload.(events.DeviceMessage)
	if !ok || msg.DeviceID == "" {
		return
	}

	r.mu.Lock()
	d, exists := r.devices[msg.DeviceID]
	if !exists {
		d = &Device{ID: msg.DeviceID}
		if zone, ok := r.pending[msg.DeviceID]; ok {
			d.Zone = &zone
			delete(r.pending, msg.DeviceID)
		}
		r.devices[msg.DeviceID] = d
		r.logger.Info("device discovered", "device_id", msg.DeviceID)
	}

	d.Status = StatusOnline
	d.LastSeen = msg.ReceivedAt

	if msg.SafeMode != nil {
		d.SafeMode = *msg.SafeMode
		if *msg.SafeMode {
			d.SafeModeReason = msg.EnterReason
			if msg.EnterTimestamp != nil {
				since := time.UnixMilli(*msg.EnterTimestamp).UTC()
				d.SafeModeSince = &since
			}
			r.logger.Warn("device entered safe mode",
				"device_id", msg.DeviceID,
				"reason", stringOrEmpty(msg.EnterReason),
			)
		} else {
			d.SafeModeReason = nil
			d.SafeModeSince = nil
		}
	}
	r.mu.Unlock()

	r.publishChanged(msg.DeviceID)
}

// onZoneChanged denormalises the zone assignment onto the device record.
// An assignment for a device the registry has not seen yet is held and
// applied when the device first appears.
func (r *Registry) onZoneChanged(ev eventbus.Event) {
	payload, ok := ev.Payload.(events.ZoneChanged)
	if !ok || payload.DeviceID == "" {
		return
	}

	r.mu.Lock()
	d, exists := r.devices[payload.DeviceID]
	if exists {
		zone := payload.Zone
		d.Zone = &zone
	} else {
		r.pending[payload.DeviceID] = payload.Zone
	}
	r.mu.Unlock()

	if exists {
		r.publishChanged(payload.DeviceID)
	}
}

// onDeviceUnreachable marks a silent device unreachable.
func (r *Registry) onDeviceUnreachable(ev eventbus.Event) {
	payload, ok := ev.Payload.(events.DeviceUnreachable)
	if !ok {
		return
	}

	r.mu.Lock()
	d, exists := r.devices[payload.DeviceID]
	changed := exists && d.Status != StatusUnreachable
	if changed {
		d.Status = StatusUnreachable
	}
	r.mu.Unlock()

	if changed {
		r.logger.Warn("device unreachable", "device_id", payload.DeviceID)
		r.publishChanged(payload.DeviceID)
	}
}

// onSessionChanged marks the whole fleet offline when the transport link
// drops. Devices come back online individually as messages arrive.
func (r *Registry) onSessionChanged(ev eventbus.Event) {
	payload, ok := ev.Payload.(events.SessionChanged)
	if !ok || payload.Connected {
		return
	}

	r.mu.Lock()
	var affected []string
	for id, d := range r.devices {
		if d.Status == StatusOnline {
			d.Status = StatusOffline
			affected = append(affected, id)
		}
	}
	r.mu.Unlock()

	for _, id := range affected {
		r.publishChanged(id)
	}
}

func (r *Registry) publishChanged(id string) {
	r.bus.Publish(eventbus.Event{
		Type:    events.TypeDeviceChanged,
		Payload: events.DeviceChanged{DeviceID: id},
	})
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
