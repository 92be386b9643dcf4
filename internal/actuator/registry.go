package actuator

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/events"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Registry owns actuator scheduling rules keyed by device ID + channel.
//
// Mutations validate every time window before any state change; a rule
// with an invalid window is rejected outright, never stored disabled.
// Every mutation publishes events.ActuatorChanged.
//
// All public methods are thread-safe.
type Registry struct {
	mu     sync.RWMutex
	rules  map[string]*Rule // key: deviceID + "/" + channel
	bus    *eventbus.Bus
	logger Logger
}

// NewRegistry creates an actuator rule registry.
func NewRegistry(bus *eventbus.Bus) *Registry {
	return &Registry{
		rules:  make(map[string]*Rule),
		bus:    bus,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Create stores a new rule. Returns ErrRuleExists if the key already has
// one, or ErrInvalidRule (wrapping the schedule error) if any window is
// invalid. No state changes on failure.
func (r *Registry) Create(rule Rule) error {
	if err := validateRule(rule); err != nil {
		return err
	}

	key := compositeKey(rule.DeviceID, rule.Channel)

	r.mu.Lock()
	if _, exists := r.rules[key]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRuleExists, key)
	}
	r.rules[key] = rule.DeepCopy()
	r.mu.Unlock()

	r.logger.Info("actuator rule created", "device_id", rule.DeviceID, "channel", rule.Channel)
	r.publishChanged(rule.DeviceID, rule.Channel)
	return nil
}

// Update replaces an existing rule. Returns ErrNotFound if no rule
// exists for the key; validation failures leave the old rule untouched.
func (r *Registry) Update(rule Rule) error {
	if err := validateRule(rule); err != nil {
		return err
	}

	key := compositeKey(rule.DeviceID, rule.Channel)

	r.mu.Lock()
	if _, exists := r.rules[key]; !exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	r.rules[key] = rule.DeepCopy()
	r.mu.Unlock()

	r.publishChanged(rule.DeviceID, rule.Channel)
	return nil
}

// SetEnabled flips a rule's enabled flag.
func (r *Registry) SetEnabled(deviceID, channel string, enabled bool) error {
	key := compositeKey(deviceID, channel)

	r.mu.Lock()
	rule, exists := r.rules[key]
	changed := exists && rule.Enabled != enabled
	if changed {
		rule.Enabled = enabled
	}
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if changed {
		r.publishChanged(deviceID, channel)
	}
	return nil
}

// Delete removes a rule. Returns ErrNotFound if no rule exists.
func (r *Registry) Delete(deviceID, channel string) error {
	key := compositeKey(deviceID, channel)

	r.mu.Lock()
	_, exists := r.rules[key]
	delete(r.rules, key)
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	r.publishChanged(deviceID, channel)
	return nil
}

// Get retrieves a rule by key. The returned rule is a deep copy.
func (r *Registry) Get(deviceID, channel string) (*Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, exists := r.rules[compositeKey(deviceID, channel)]
	if !exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, deviceID, channel)
	}
	return rule.DeepCopy(), nil
}

// List retrieves all rules, ordered by key for stable output.
func (r *Registry) List() []Rule {
	r.mu.RLock()
	keys := make([]string, 0, len(r.rules))
	for key := range r.rules {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rules := make([]Rule, 0, len(keys))
	for _, key := range keys {
		rules = append(rules, *r.rules[key].DeepCopy())
	}
	r.mu.RUnlock()

	return rules
}

// Channels returns the scheduled channel names for a device, sorted.
func (r *Registry) Channels(deviceID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var channels []string
	for _, rule := range r.rules {
		if rule.DeviceID == deviceID {
			channels = append(channels, rule.Channel)
		}
	}
	sort.Strings(channels)
	return channels
}

// ActiveAt reports whether a channel's rule makes it active at t.
// A disabled rule is never active. Returns ErrNotFound for unknown keys.
func (r *Registry) ActiveAt(deviceID, channel string, t time.Time) (bool, error) {
	r.mu.RLock()
	rule, exists := r.rules[compositeKey(deviceID, channel)]
	if !exists {
		r.mu.RUnlock()
		return false, fmt.Errorf("%w: %s/%s", ErrNotFound, deviceID, channel)
	}
	snapshot := rule.DeepCopy()
	r.mu.RUnlock()

	if !snapshot.Enabled {
		return false, nil
	}

	for _, window := range snapshot.Windows {
		active, err := window.ContainsTime(t)
		if err != nil {
			// Windows were validated on write; an evaluation failure
			// is a real fault and must not pass as "inactive".
			return false, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		if active {
			return true, nil
		}
	}
	return false, nil
}

// validateRule checks identity fields and every window.
func validateRule(rule Rule) error {
	if rule.DeviceID == "" || rule.Channel == "" {
		return fmt.Errorf("%w: device id and channel are required", ErrInvalidRule)
	}
	if len(rule.Windows) == 0 {
		return fmt.Errorf("%w: at least one time window is required", ErrInvalidRule)
	}
	for i, window := range rule.Windows {
		if err := window.Validate(); err != nil {
			return fmt.Errorf("%w: window %d: %w", ErrInvalidRule, i, err)
		}
	}
	return nil
}

func (r *Registry) publishChanged(deviceID, channel string) {
	r.bus.Publish(eventbus.Event{
		Type:    events.TypeActuatorChanged,
		Payload: events.ActuatorChanged{DeviceID: deviceID, Channel: channel},
	})
}

func compositeKey(deviceID, channel string) string {
	return deviceID + "/" + channel
}
