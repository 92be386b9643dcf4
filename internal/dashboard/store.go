package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/events"
)

// layoutKey is the kv key the dashboard layout persists under.
const layoutKey = "dashboard.layout"

// Domain errors for the dashboard package.
var (
	// ErrNotFound is returned when a tile ID is unknown.
	ErrNotFound = errors.New("dashboard: tile not found")

	// ErrTileExists is returned when adding a tile with an ID that
	// already exists.
	ErrTileExists = errors.New("dashboard: tile already exists")

	// ErrInvalidTile is returned when tile validation fails.
	ErrInvalidTile = errors.New("dashboard: invalid tile")
)

// Tile is one dashboard cell: what it shows and where it sits.
type Tile struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`   // e.g. "sensor", "actuator", "zone"
	Ref  string `json:"ref"`    // entity reference, e.g. "esp-1/temp"
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	W    int    `json:"w"`
	H    int    `json:"h"`
}

// KV is the persistence collaborator contract the store consumes.
// Satisfied by database.KV.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Store owns the dashboard layout, persisted as one JSON document.
//
// All public methods are thread-safe. Every successful mutation persists
// the full layout and publishes events.DashboardChanged.
type Store struct {
	mu    sync.RWMutex
	tiles map[string]*Tile
	kv    KV
	bus   *eventbus.Bus
}

// NewStore creates a dashboard store. Call Load before first use.
func NewStore(bus *eventbus.Bus, kv KV) *Store {
	return &Store{
		tiles: make(map[string]*Tile),
		kv:    kv,
		bus:   bus,
	}
}

// Load reads the persisted layout. A missing key yields an empty layout.
func (s *Store) Load(ctx context.Context) error {
	raw, ok, err := s.kv.Get(ctx, layoutKey)
	if err != nil {
		return fmt.Errorf("loading dashboard layout: %w", err)
	}
	if !ok {
		return nil
	}

	var tiles []Tile
	if err := json.Unmarshal([]byte(raw), &tiles); err != nil {
		return fmt.Errorf("decoding dashboard layout: %w", err)
	}

	s.mu.Lock()
	s.tiles = make(map[string]*Tile, len(tiles))
	for i := range tiles {
		t := tiles[i]
		s.tiles[t.ID] = &t
	}
	s.mu.Unlock()
	return nil
}

// AddTile stores a new tile.
func (s *Store) AddTile(ctx context.Context, tile Tile) error {
	if err := validateTile(tile); err != nil {
		return err
	}

	s.mu.Lock()
	if _, exists := s.tiles[tile.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTileExists, tile.ID)
	}
	s.tiles[tile.ID] = &tile
	s.mu.Unlock()

	return s.persistAndPublish(ctx)
}

// UpdateTile replaces an existing tile.
func (s *Store) UpdateTile(ctx context.Context, tile Tile) error {
	if err := validateTile(tile); err != nil {
		return err
	}

	s.mu.Lock()
	if _, exists := s.tiles[tile.ID]; !exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, tile.ID)
	}
	s.tiles[tile.ID] = &tile
	s.mu.Unlock()

	return s.persistAndPublish(ctx)
}

// RemoveTile deletes a tile.
func (s *Store) RemoveTile(ctx context.Context, id string) error {
	s.mu.Lock()
	_, exists := s.tiles[id]
	delete(s.tiles, id)
	s.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.persistAndPublish(ctx)
}

// Tiles returns the layout ordered by row, then column, then ID.
func (s *Store) Tiles() []Tile {
	s.mu.RLock()
	out := make([]Tile, 0, len(s.tiles))
	for _, t := range s.tiles {
		out = append(out, *t)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		if out[i].Col != out[j].Col {
			return out[i].Col < out[j].Col
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) persistAndPublish(ctx context.Context) error {
	encoded, err := json.Marshal(s.Tiles())
	if err != nil {
		return fmt.Errorf("encoding dashboard layout: %w", err)
	}
	if err := s.kv.Set(ctx, layoutKey, string(encoded)); err != nil {
		return fmt.Errorf("persisting dashboard layout: %w", err)
	}

	s.bus.Publish(eventbus.Event{
		Type:    events.TypeDashboardChanged,
		Payload: events.DashboardChanged{},
	})
	return nil
}

func validateTile(tile Tile) error {
	if tile.ID == "" || tile.Kind == "" {
		return fmt.Errorf("%w: id and kind are required", ErrInvalidTile)
	}
	if tile.W <= 0 || tile.H <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", ErrInvalidTile)
	}
	if tile.Row < 0 || tile.Col < 0 {
		return fmt.Errorf("%w: position must be non-negative", ErrInvalidTile)
	}
	return nil
}
