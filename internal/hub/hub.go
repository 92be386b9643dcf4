package hub

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/fleetforge/fleet-hub/internal/actuator"
	"github.com/fleetforge/fleet-hub/internal/dashboard"
	"github.com/fleetforge/fleet-hub/internal/device"
	"github.com/fleetforge/fleet-hub/internal/dispatch"
	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/events"
	"github.com/fleetforge/fleet-hub/internal/identity"
	"github.com/fleetforge/fleet-hub/internal/prefs"
	"github.com/fleetforge/fleet-hub/internal/sensor"
	"github.com/fleetforge/fleet-hub/internal/session"
	"github.com/fleetforge/fleet-hub/internal/zone"
)

// Logger defines the logging interface used by the Hub.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Deps are the containers the hub composes. All fields are required
// except Settings, Dashboard and Prefs, which may be nil when no
// persistence is configured: reads of a nil store return defaults and
// writes fail with ErrNotConfigured.
type Deps struct {
	Bus       *eventbus.Bus
	Session   *session.Session
	Identity  *identity.Resolver
	Settings  *identity.SettingsStore
	Devices   *device.Registry
	Sensors   *sensor.Registry
	Actuators *actuator.Registry
	Zones     *zone.Registry
	Dispatch  *dispatch.Dispatcher
	Dashboard *dashboard.Store
	Prefs     *prefs.Store
}

// Hub is the facade over all state containers: the only surface the API
// layer talks to.
//
// Derived reads are served through a TTL cache; the hub subscribes to
// every container's changed events and invalidates the affected keys in
// the same synchronous turn, so a read issued after a write never sees
// the pre-write value. Writes are routed to the owning container and
// fail with that container's error.
type Hub struct {
	deps   Deps
	cache  *cache
	logger Logger

	initialized atomic.Bool
}

// New creates a hub over the given containers with the given cache TTL
// (DefaultCacheTTL if zero or negative) and attaches the cache
// invalidation subscriptions.
func New(deps Deps, cacheTTL time.Duration) *Hub {
	h := &Hub{
		deps:   deps,
		cache:  newCache(cacheTTL),
		logger: noopLogger{},
	}

	bus := deps.Bus
	bus.Subscribe(events.TypeDeviceChanged, h.onDeviceChanged)
	bus.Subscribe(events.TypeSensorChanged, h.onSensorChanged)
	bus.Subscribe(events.TypeSensorRegistered, h.onSensorRegistered)
	bus.Subscribe(events.TypeActuatorChanged, h.onActuatorChanged)
	bus.Subscribe(events.TypeZoneChanged, h.onZoneChanged)

	return h
}

// SetLogger sets the logger for the hub.
func (h *Hub) SetLogger(logger Logger) {
	h.logger = logger
}

// =============================================================================
// Cache invalidation
// =============================================================================

func (h *Hub) onDeviceChanged(ev eventbus.Event) {
	if p, ok := ev.Payload.(events.DeviceChanged); ok {
		h.cache.invalidate(deviceKey(p.DeviceID))
	}
}

func (h *Hub) onSensorChanged(ev eventbus.Event) {
	if p, ok := ev.Payload.(events.SensorChanged); ok {
		h.cache.invalidate(sensorKey(p.DeviceID, p.Channel), aggregateKey(p.DeviceID))
	}
}

func (h *Hub) onSensorRegistered(ev eventbus.Event) {
	if p, ok := ev.Payload.(events.SensorRegistered); ok {
		// Registration can change the declared unit, which aggregates carry.
		h.cache.invalidate(sensorKey(p.DeviceID, p.Channel), aggregateKey(p.DeviceID))
	}
}

func (h *Hub) onActuatorChanged(ev eventbus.Event) {
	if p, ok := ev.Payload.(events.ActuatorChanged); ok {
		h.cache.invalidate(actuatorKey(p.DeviceID, p.Channel))
	}
}

func (h *Hub) onZoneChanged(ev eventbus.Event) {
	if p, ok := ev.Payload.(events.ZoneChanged); ok {
		// The device record denormalises the zone, so both keys go.
		h.cache.invalidate(zoneKey(p.DeviceID), deviceKey(p.DeviceID))
	}
}

// =============================================================================
// Derived reads (cache-backed)
// =============================================================================

// GetDeviceStatus returns a device's full record.
func (h *Hub) GetDeviceStatus(id string) (*device.Device, error) {
	key := deviceKey(id)
	if cached, ok := h.cache.get(key); ok {
		return cached.(*device.Device).DeepCopy(), nil
	}

	d, err := h.deps.Devices.Get(id)
	if err != nil {
		return nil, err
	}
	h.cache.put(key, d.DeepCopy())
	return d, nil
}

// GetSensorValue returns the latest reading for a device channel.
func (h *Hub) GetSensorValue(id, channel string) (sensor.Reading, error) {
	key := sensorKey(id, channel)
	if cached, ok := h.cache.get(key); ok {
		return cached.(sensor.Reading), nil
	}

	reading, err := h.deps.Sensors.Latest(id, channel)
	if err != nil {
		return sensor.Reading{}, err
	}
	h.cache.put(key, reading)
	return reading, nil
}

// GetActuatorState reports whether a channel's schedule makes it active
// right now.
func (h *Hub) GetActuatorState(id, channel string) (bool, error) {
	key := actuatorKey(id, channel)
	if cached, ok := h.cache.get(key); ok {
		return cached.(bool), nil
	}

	active, err := h.deps.Actuators.ActiveAt(id, channel, time.Now())
	if err != nil {
		return false, err
	}
	h.cache.put(key, active)
	return active, nil
}

// GetZoneForDevice resolves a device's zone (never fails; unassigned
// devices resolve to the default zone).
func (h *Hub) GetZoneForDevice(id string) string {
	key := zoneKey(id)
	if cached, ok := h.cache.get(key); ok {
		return cached.(string)
	}

	z := h.deps.Zones.ZoneFor(id)
	h.cache.put(key, z)
	return z
}

// GetSensorAggregation summarises every channel of a device over its
// rolling history window.
func (h *Hub) GetSensorAggregation(id string) (map[string]sensor.ChannelStats, error) {
	key := aggregateKey(id)
	if cached, ok := h.cache.get(key); ok {
		return cached.(map[string]sensor.ChannelStats), nil
	}

	stats, err := h.deps.Sensors.Aggregate(id)
	if err != nil {
		return nil, err
	}
	h.cache.put(key, stats)
	return stats, nil
}

// ListDevices returns every known device (uncached; the registry read
// is already cheap).
func (h *Hub) ListDevices() []device.Device {
	return h.deps.Devices.List()
}

// =============================================================================
// Writes (routed to the owning container)
// =============================================================================

// UpdateConfig applies a sparse settings update via the identity
// container.
func (h *Hub) UpdateConfig(ctx context.Context, partial identity.SettingsPartial) (identity.Settings, error) {
	if h.deps.Settings == nil {
		return identity.Settings{}, ErrNotConfigured
	}
	return h.deps.Settings.Update(ctx, partial)
}

// SetZoneForDevice assigns a device to a zone. Cache keys for the
// device and its zone are invalidated by the zone-changed event inside
// the same call.
func (h *Hub) SetZoneForDevice(id, zoneName string) error {
	return h.deps.Zones.SetZone(id, zoneName)
}

// RegisterSensor declares a sensor channel and unit for a device.
func (h *Hub) RegisterSensor(deviceID, channel, unit string) error {
	return h.deps.Sensors.Register(deviceID, channel, unit)
}

// RestartDevice dispatches a restart command to a known device.
func (h *Hub) RestartDevice(ctx context.Context, id string) (*dispatch.Command, error) {
	if _, err := h.deps.Devices.Get(id); err != nil {
		return nil, err
	}
	return h.deps.Dispatch.Dispatch(ctx, id, "", "restart", nil)
}

// EmergencyStopAll sends a stop to every actuator channel in the fleet.
//
// Unreachable devices cannot receive the stop; the operation still
// stops everything it can reach and then reports a PartialFailureError
// naming exactly the devices that were not reached. With a fully
// reachable fleet it returns nil.
func (h *Hub) EmergencyStopAll(ctx context.Context) error {
	devices := h.deps.Devices.List()
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })

	var failed []string
	for _, d := range devices {
		if d.Status != device.StatusOnline {
			failed = append(failed, d.ID)
			continue
		}

		if err := h.stopDeviceChannels(ctx, d.ID); err != nil {
			h.logger.Error("emergency stop failed", "device_id", d.ID, "error", err)
			failed = append(failed, d.ID)
		}
	}

	if len(failed) > 0 {
		return &PartialFailureError{FailedDevices: failed}
	}
	return nil
}

// stopDeviceChannels dispatches a stop for each scheduled channel of a
// device, or a single device-wide stop when none are scheduled.
func (h *Hub) stopDeviceChannels(ctx context.Context, deviceID string) error {
	channels := h.deps.Actuators.Channels(deviceID)
	if len(channels) == 0 {
		_, err := h.deps.Dispatch.Dispatch(ctx, deviceID, "", "emergency_stop", nil)
		return err
	}

	for _, channel := range channels {
		if _, err := h.deps.Dispatch.Dispatch(ctx, deviceID, channel, "emergency_stop", nil); err != nil {
			return fmt.Errorf("channel %s: %w", channel, err)
		}
	}
	return nil
}

// =============================================================================
// Lifecycle
// =============================================================================

// InitializeSystem brings every container to ready state in dependency
// order: session and identity first, persisted stores next. Any failure
// yields an InitializationError naming the container and leaves the
// system un-initialised.
func (h *Hub) InitializeSystem(ctx context.Context) error {
	steps := []struct {
		container string
		run       func(context.Context) error
	}{
		{"session", func(context.Context) error { return h.deps.Session.Start() }},
		{"identity", h.initIdentity},
		{"settings", h.initSettings},
		{"dashboard", h.initDashboard},
		{"prefs", h.initPrefs},
	}

	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			h.logger.Error("initialisation failed", "container", step.container, "error", err)
			return &InitializationError{Container: step.container, Err: err}
		}
		h.logger.Info("container ready", "container", step.container)
	}

	h.initialized.Store(true)
	return nil
}

func (h *Hub) initIdentity(ctx context.Context) error {
	if err := h.deps.Identity.Migrate(ctx); err != nil {
		return err
	}
	_, err := h.deps.Identity.Resolve(ctx)
	return err
}

func (h *Hub) initSettings(ctx context.Context) error {
	if h.deps.Settings == nil {
		return nil
	}
	return h.deps.Settings.Load(ctx)
}

func (h *Hub) initDashboard(ctx context.Context) error {
	if h.deps.Dashboard == nil {
		return nil
	}
	return h.deps.Dashboard.Load(ctx)
}

func (h *Hub) initPrefs(ctx context.Context) error {
	if h.deps.Prefs == nil {
		return nil
	}
	return h.deps.Prefs.Load(ctx)
}

// IsInitialized reports whether InitializeSystem has completed.
func (h *Hub) IsInitialized() bool {
	return h.initialized.Load()
}

// Identity returns the current identity record.
func (h *Hub) Identity() identity.Record {
	return h.deps.Identity.Current()
}

// Settings returns the current hub settings, or the zero value when no
// settings store is configured.
func (h *Hub) Settings() identity.Settings {
	if h.deps.Settings == nil {
		return identity.Settings{}
	}
	return h.deps.Settings.Get()
}

// Prefs returns the current UI preferences, or the defaults when no
// preferences store is configured.
func (h *Hub) Prefs() prefs.Preferences {
	if h.deps.Prefs == nil {
		return prefs.Default()
	}
	return h.deps.Prefs.Get()
}

// UpdatePrefs applies a sparse preferences update.
func (h *Hub) UpdatePrefs(ctx context.Context, partial prefs.Partial) (prefs.Preferences, error) {
	if h.deps.Prefs == nil {
		return prefs.Default(), ErrNotConfigured
	}
	return h.deps.Prefs.Update(ctx, partial)
}
