package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/events"
)

// prefsKey is the kv key the preferences persist under.
const prefsKey = "prefs.ui"

// ErrInvalidPreference is returned when a preference value is not
// recognised.
var ErrInvalidPreference = errors.New("prefs: invalid preference")

// Valid themes and unit systems.
var (
	validThemes = map[string]bool{"light": true, "dark": true, "system": true}
	validUnits  = map[string]bool{"metric": true, "imperial": true}
)

// Preferences are the UI settings the hub stores on behalf of clients.
type Preferences struct {
	Theme  string `json:"theme"`
	Units  string `json:"units"`
	Locale string `json:"locale"`
}

// Partial is a sparse preferences update; nil fields are left unchanged.
type Partial struct {
	Theme  *string `json:"theme,omitempty"`
	Units  *string `json:"units,omitempty"`
	Locale *string `json:"locale,omitempty"`
}

// KV is the persistence collaborator contract the store consumes.
// Satisfied by database.KV.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Store owns the UI preferences, persisted as one JSON document.
//
// All public methods are thread-safe.
type Store struct {
	mu    sync.RWMutex
	prefs Preferences
	kv    KV
	bus   *eventbus.Bus
}

// Default returns the preferences used before any update is persisted.
func Default() Preferences {
	return Preferences{Theme: "system", Units: "metric", Locale: "en-GB"}
}

// NewStore creates a preferences store with defaults.
// Call Load before first use.
func NewStore(bus *eventbus.Bus, kv KV) *Store {
	return &Store{
		prefs: Default(),
		kv:    kv,
		bus:   bus,
	}
}

// Load reads persisted preferences. A missing key keeps the defaults.
func (s *Store) Load(ctx context.Context) error {
	raw, ok, err := s.kv.Get(ctx, prefsKey)
	if err != nil {
		return fmt.Errorf("loading preferences: %w", err)
	}
	if !ok {
		return nil
	}

	var prefs Preferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return fmt.Errorf("decoding preferences: %w", err)
	}

	s.mu.Lock()
	s.prefs = prefs
	s.mu.Unlock()
	return nil
}

// Get returns the current preferences.
func (s *Store) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Update applies a sparse update, persists the result and publishes
// events.PrefsChanged listing the touched keys. Validation failures
// change nothing.
func (s *Store) Update(ctx context.Context, partial Partial) (Preferences, error) {
	if partial.Theme != nil && !validThemes[*partial.Theme] {
		return s.Get(), fmt.Errorf("%w: theme %q", ErrInvalidPreference, *partial.Theme)
	}
	if partial.Units != nil && !validUnits[*partial.Units] {
		return s.Get(), fmt.Errorf("%w: units %q", ErrInvalidPreference, *partial.Units)
	}
	if partial.Locale != nil && *partial.Locale == "" {
		return s.Get(), fmt.Errorf("%w: locale cannot be empty", ErrInvalidPreference)
	}

	s.mu.Lock()
	next := s.prefs
	var keys []string
	if partial.Theme != nil && *partial.Theme != next.Theme {
		next.Theme = *partial.Theme
		keys = append(keys, "theme")
	}
	if partial.Units != nil && *partial.Units != next.Units {
		next.Units = *partial.Units
		keys = append(keys, "units")
	}
	if partial.Locale != nil && *partial.Locale != next.Locale {
		next.Locale = *partial.Locale
		keys = append(keys, "locale")
	}

	if len(keys) == 0 {
		s.mu.Unlock()
		return next, nil
	}

	encoded, err := json.Marshal(next)
	if err != nil {
		s.mu.Unlock()
		return s.Get(), fmt.Errorf("encoding preferences: %w", err)
	}
	if err := s.kv.Set(ctx, prefsKey, string(encoded)); err != nil {
		s.mu.Unlock()
		return s.Get(), fmt.Errorf("persisting preferences: %w", err)
	}
	s.prefs = next
	s.mu.Unlock()

	s.bus.Publish(eventbus.Event{
		Type:    events.TypePrefsChanged,
		Payload: events.PrefsChanged{Keys: keys},
	})
	return next, nil
}
