package sensor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/events"
)

// DefaultHistorySize is the rolling history depth per composite key.
// 288 samples covers 24 hours at a 5-minute reporting interval.
const DefaultHistorySize = 288

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// channelState holds the latest reading and bounded history for one key.
type channelState struct {
	latest  Reading
	history []Reading // oldest first, capped at historySize
	unit    string    // declared unit; readings may override
}

// Registry owns sensor readings keyed by device ID + channel.
//
// Telemetry arrives via events.DeviceMessage; each numeric sample
// supersedes the latest reading for its key and is appended to a bounded
// rolling history. Every recorded reading publishes events.SensorChanged.
//
// All public methods are thread-safe.
type Registry struct {
	mu          sync.RWMutex
	channels    map[string]*channelState // key: deviceID + "/" + channel
	byDevice    map[string][]string      // deviceID -> sorted channel names
	historySize int
	bus         *eventbus.Bus
	logger      Logger
}

// NewRegistry creates a sensor registry with the given history depth
// (DefaultHistorySize if zero or negative) and attaches its telemetry
// subscription to the bus.
func NewRegistry(bus *eventbus.Bus, historySize int) *Registry {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	r := &Registry{
		channels:    make(map[string]*channelState),
		byDevice:    make(map[string][]string),
		historySize: historySize,
		bus:         bus,
		logger:      noopLogger{},
	}

	bus.Subscribe(events.TypeDeviceMessage, r.onDeviceMessage)

	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Register declares a sensor channel and its unit ahead of the first
// reading. Registration is optional; unknown channels are created on
// first sample with the unit the sample carries.
//
// Publishes events.SensorRegistered, not SensorChanged: no reading
// exists yet, so consumers of the telemetry stream see nothing.
func (r *Registry) Register(deviceID, channel, unit string) error {
	if deviceID == "" || channel == "" {
		return fmt.Errorf("%w: device id and channel are required", ErrInvalidArgument)
	}

	key := compositeKey(deviceID, channel)

	r.mu.Lock()
	state, exists := r.channels[key]
	if !exists {
		state = &channelState{}
		r.channels[key] = state
		r.addChannelLocked(deviceID, channel)
	}
	state.unit = unit
	r.mu.Unlock()

	r.bus.Publish(eventbus.Event{
		Type: events.TypeSensorRegistered,
		Payload: events.SensorRegistered{
			DeviceID: deviceID,
			Channel:  channel,
			Unit:     unit,
		},
	})
	return nil
}

// Latest returns the most recent reading for a composite key.
// Returns ErrNotFound if no reading has been recorded.
func (r *Registry) Latest(deviceID, channel string) (Reading, error) {
	if deviceID == "" || channel == "" {
		return Reading{}, fmt.Errorf("%w: device id and channel are required", ErrInvalidArgument)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.channels[compositeKey(deviceID, channel)]
	if !ok || len(state.history) == 0 {
		return Reading{}, fmt.Errorf("%w: %s/%s", ErrNotFound, deviceID, channel)
	}
	return state.latest, nil
}

// History returns the rolling history for a composite key, oldest first.
// The returned slice is a copy.
func (r *Registry) History(deviceID, channel string) ([]Reading, error) {
	if deviceID == "" || channel == "" {
		return nil, fmt.Errorf("%w: device id and channel are required", ErrInvalidArgument)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.channels[compositeKey(deviceID, channel)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, deviceID, channel)
	}

	out := make([]Reading, len(state.history))
	copy(out, state.history)
	return out, nil
}

// Channels returns the known channel names for a device, sorted.
func (r *Registry) Channels(deviceID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.byDevice[deviceID]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Aggregate summarises every channel of a device over its rolling
// history. Returns ErrNotFound if the device has no channels.
func (r *Registry) Aggregate(deviceID string) (map[string]ChannelStats, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("%w: device id is required", ErrInvalidArgument)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.byDevice[deviceID]
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no sensors for device %s", ErrNotFound, deviceID)
	}

	out := make(map[string]ChannelStats, len(names))
	for _, channel := range names {
		state := r.channels[compositeKey(deviceID, channel)]
		if state == nil || len(state.history) == 0 {
			continue
		}

		stats := ChannelStats{
			Latest:  state.latest.Value,
			Min:     state.history[0].Value,
			Max:     state.history[0].Value,
			Samples: len(state.history),
			Unit:    state.latest.Unit,
		}
		for _, sample := range state.history[1:] {
			if sample.Value < stats.Min {
				stats.Min = sample.Value
			}
			if sample.Value > stats.Max {
				stats.Max = sample.Value
			}
		}
		out[channel] = stats
	}
	return out, nil
}

// onDeviceMessage records numeric telemetry samples. Messages without a
// channel and value are status-only and ignored here.
func (r *Registry) onDeviceMessage(ev eventbus.Event) {
	msg, ok := ev.Payload.(events.DeviceMessage)
	if !ok || msg.DeviceID == "" || msg.Channel == nil || msg.Value == nil {
		return
	}

	reading := Reading{
		DeviceID:  msg.DeviceID,
		Channel:   *msg.Channel,
		Value:     *msg.Value,
		Timestamp: msg.ReceivedAt,
	}
	if msg.Unit != nil {
		reading.Unit = *msg.Unit
	}

	key := compositeKey(reading.DeviceID, reading.Channel)

	r.mu.Lock()
	state, exists := r.channels[key]
	if !exists {
		state = &channelState{}
		r.channels[key] = state
		r.addChannelLocked(reading.DeviceID, reading.Channel)
	}
	if reading.Unit == "" {
		reading.Unit = state.unit
	}

	state.latest = reading
	state.history = append(state.history, reading)
	if len(state.history) > r.historySize {
		state.history = state.history[len(state.history)-r.historySize:]
	}
	r.mu.Unlock()

	r.publishChanged(reading.DeviceID, reading.Channel, reading.Value, reading.Unit)
}

// addChannelLocked inserts a channel name keeping the per-device list
// sorted. Caller holds the write lock.
func (r *Registry) addChannelLocked(deviceID, channel string) {
	names := append(r.byDevice[deviceID], channel)
	sort.Strings(names)
	r.byDevice[deviceID] = names
}

func (r *Registry) publishChanged(deviceID, channel string, value float64, unit string) {
	r.bus.Publish(eventbus.Event{
		Type: events.TypeSensorChanged,
		Payload: events.SensorChanged{
			DeviceID: deviceID,
			Channel:  channel,
			Value:    value,
			Unit:     unit,
		},
	})
}

func compositeKey(deviceID, channel string) string {
	return deviceID + "/" + channel
}
