package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/events"
)

// settingsKey is the kv key the hub settings persist under.
const settingsKey = "settings.hub"

// Settings are the small mutable knobs the identity container owns on
// behalf of the whole hub.
type Settings struct {
	SiteName         string        `json:"site_name"`
	UnreachableAfter time.Duration `json:"unreachable_after"`
}

// SettingsPartial is a sparse settings update; nil fields are unchanged.
type SettingsPartial struct {
	SiteName         *string        `json:"site_name,omitempty"`
	UnreachableAfter *time.Duration `json:"unreachable_after,omitempty"`
}

// SettingsStore owns the mutable hub settings, persisted via the kv
// store alongside the identity record.
//
// All public methods are thread-safe (settings piggyback on the
// resolver's mutex to keep identity and settings in one container).
type SettingsStore struct {
	resolver *Resolver
	settings Settings
}

// NewSettingsStore creates a settings store with the given initial
// values (typically from configuration). Call Load before first use.
func NewSettingsStore(resolver *Resolver, initial Settings) *SettingsStore {
	return &SettingsStore{resolver: resolver, settings: initial}
}

// Load reads persisted settings; a missing key keeps the initial values.
func (s *SettingsStore) Load(ctx context.Context) error {
	raw, ok, err := s.resolver.kv.Get(ctx, settingsKey)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if !ok {
		return nil
	}

	var settings Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return fmt.Errorf("decoding settings: %w", err)
	}

	s.resolver.mu.Lock()
	s.settings = settings
	s.resolver.mu.Unlock()
	return nil
}

// Get returns the current settings.
func (s *SettingsStore) Get() Settings {
	s.resolver.mu.Lock()
	defer s.resolver.mu.Unlock()
	return s.settings
}

// Update applies a sparse settings update, persists the result and
// publishes events.ConfigChanged listing the touched keys. Validation
// failures change nothing.
func (s *SettingsStore) Update(ctx context.Context, partial SettingsPartial) (Settings, error) {
	if partial.SiteName != nil && *partial.SiteName == "" {
		return s.Get(), fmt.Errorf("%w: site name cannot be empty", ErrInvalidSettings)
	}
	if partial.UnreachableAfter != nil && *partial.UnreachableAfter <= 0 {
		return s.Get(), fmt.Errorf("%w: unreachable window must be positive", ErrInvalidSettings)
	}

	s.resolver.mu.Lock()
	next := s.settings
	var keys []string
	if partial.SiteName != nil && *partial.SiteName != next.SiteName {
		next.SiteName = *partial.SiteName
		keys = append(keys, "site_name")
	}
	if partial.UnreachableAfter != nil && *partial.UnreachableAfter != next.UnreachableAfter {
		next.UnreachableAfter = *partial.UnreachableAfter
		keys = append(keys, "unreachable_after")
	}

	if len(keys) == 0 {
		s.resolver.mu.Unlock()
		return next, nil
	}

	encoded, err := json.Marshal(next)
	if err != nil {
		s.resolver.mu.Unlock()
		return s.Get(), fmt.Errorf("encoding settings: %w", err)
	}
	if err := s.resolver.kv.Set(ctx, settingsKey, string(encoded)); err != nil {
		s.resolver.mu.Unlock()
		return s.Get(), fmt.Errorf("persisting settings: %w", err)
	}
	s.settings = next
	s.resolver.mu.Unlock()

	s.resolver.bus.Publish(eventbus.Event{
		Type:    events.TypeConfigChanged,
		Payload: events.ConfigChanged{Keys: keys},
	})
	return next, nil
}
