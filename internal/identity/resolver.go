package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/events"
)

// DefaultKaiserID is the placeholder used when no source provides an
// identity. It is never treated as an authoritative value.
const DefaultKaiserID = "kaiser-unassigned"

// Reserved persistence keys. The legacy key is read-only: it is imported
// once at startup and never deleted, so older installations can roll back.
const (
	keyCurrent = "identity.current"
	keyLegacy  = "identity.legacy"
)

// Provenance names the source that produced the current identity value.
type Provenance string

// Provenance values, strongest first.
const (
	ProvenanceOverride  Provenance = "hierarchical-override"
	ProvenanceManual    Provenance = "explicit-manual"
	ProvenancePersisted Provenance = "persisted-fallback"
	ProvenanceDefault   Provenance = "default"
)

// Record is the authoritative identity value and where it came from.
type Record struct {
	Value      string     `json:"value"`
	Provenance Provenance `json:"provenance"`
}

// Logger defines the logging interface used by the Resolver.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// KV is the persistence collaborator contract the resolver consumes.
// Satisfied by database.KV.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Resolver derives the authoritative kaiser identity from its candidate
// sources through a strict priority chain:
//
//  1. hierarchical override (supplied by coordinator configuration)
//  2. manually-set value (flag set, value not the placeholder)
//  3. persisted value under identity.current (not the placeholder)
//  4. the default placeholder
//
// The resolver is the only writer of identity state. On every resolution
// whose outcome differs from the cached record it persists the value,
// updates provenance and publishes events.IdentityChanged; re-resolving
// with unchanged sources publishes nothing.
//
// All public methods are thread-safe.
type Resolver struct {
	mu        sync.Mutex
	override  string
	manual    string
	manualSet bool
	record    Record

	kv     KV
	bus    *eventbus.Bus
	logger Logger
}

// NewResolver creates a resolver. The override comes from coordinator
// configuration and may be empty. Call Migrate then Resolve at startup.
func NewResolver(bus *eventbus.Bus, kv KV, override string) *Resolver {
	return &Resolver{
		override: override,
		record:   Record{Value: DefaultKaiserID, Provenance: ProvenanceDefault},
		kv:       kv,
		bus:      bus,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the resolver.
func (r *Resolver) SetLogger(logger Logger) {
	r.logger = logger
}

// Migrate imports a legacy-format identity once. If identity.legacy
// holds a usable value that differs from identity.current, the value is
// written through the current key; the legacy key itself is never
// deleted and remains a read-only fallback.
func (r *Resolver) Migrate(ctx context.Context) error {
	legacy, ok, err := r.kv.Get(ctx, keyLegacy)
	if err != nil {
		return fmt.Errorf("reading legacy identity: %w", err)
	}
	if !ok || legacy == "" || legacy == DefaultKaiserID {
		return nil
	}

	current, _, err := r.kv.Get(ctx, keyCurrent)
	if err != nil {
		return fmt.Errorf("reading current identity: %w", err)
	}
	if legacy == current {
		return nil
	}

	if err := r.kv.Set(ctx, keyCurrent, legacy); err != nil {
		return fmt.Errorf("migrating legacy identity: %w", err)
	}
	r.logger.Info("migrated legacy identity", "value", legacy)
	return nil
}

// Resolve derives the authoritative identity from the current sources.
// If the outcome differs from the cached record it is persisted and an
// identity-changed event is published; otherwise nothing is republished.
func (r *Resolver) Resolve(ctx context.Context) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	resolved, err := r.deriveLocked(ctx)
	if err != nil {
		return r.record, err
	}

	if resolved == r.record {
		return r.record, nil
	}

	if err := r.kv.Set(ctx, keyCurrent, resolved.Value); err != nil {
		return r.record, fmt.Errorf("persisting identity: %w", err)
	}

	old := r.record
	r.record = resolved
	r.logger.Info("identity changed",
		"old", old.Value,
		"new", resolved.Value,
		"provenance", string(resolved.Provenance),
	)
	r.bus.Publish(eventbus.Event{
		Type: events.TypeIdentityChanged,
		Payload: events.IdentityChanged{
			OldValue:   old.Value,
			NewValue:   resolved.Value,
			Provenance: string(resolved.Provenance),
		},
	})
	return resolved, nil
}

// deriveLocked walks the priority chain. Caller holds the lock.
func (r *Resolver) deriveLocked(ctx context.Context) (Record, error) {
	if r.override != "" {
		return Record{Value: r.override, Provenance: ProvenanceOverride}, nil
	}
	if r.manualSet && r.manual != "" && r.manual != DefaultKaiserID {
		return Record{Value: r.manual, Provenance: ProvenanceManual}, nil
	}

	persisted, ok, err := r.kv.Get(ctx, keyCurrent)
	if err != nil {
		return Record{}, fmt.Errorf("reading persisted identity: %w", err)
	}
	if ok && persisted != "" && persisted != DefaultKaiserID {
		return Record{Value: persisted, Provenance: ProvenancePersisted}, nil
	}

	return Record{Value: DefaultKaiserID, Provenance: ProvenanceDefault}, nil
}

// Current returns the cached record without re-resolving.
func (r *Resolver) Current() Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record
}

// SetManual records a manually chosen identity and re-resolves.
// The placeholder is not an acceptable manual value.
func (r *Resolver) SetManual(ctx context.Context, value string) (Record, error) {
	if value == "" || value == DefaultKaiserID {
		return r.Current(), fmt.Errorf("%w: %q", ErrInvalidIdentity, value)
	}

	r.mu.Lock()
	r.manual = value
	r.manualSet = true
	r.mu.Unlock()

	return r.Resolve(ctx)
}

// ClearManual drops the manually chosen identity and re-resolves,
// falling through to the persisted value or the default.
func (r *Resolver) ClearManual(ctx context.Context) (Record, error) {
	r.mu.Lock()
	r.manual = ""
	r.manualSet = false
	r.mu.Unlock()

	return r.Resolve(ctx)
}

// SetOverride replaces the hierarchical override (empty clears it) and
// re-resolves.
func (r *Resolver) SetOverride(ctx context.Context, value string) (Record, error) {
	r.mu.Lock()
	r.override = value
	r.mu.Unlock()

	return r.Resolve(ctx)
}
