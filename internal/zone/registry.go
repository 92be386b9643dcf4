package zone

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/events"
)

// DefaultZone is the fallback assignment for devices without one.
const DefaultZone = "unassigned"

// Domain errors for the zone package.
var (
	// ErrInvalidArgument is returned when a device ID or zone name is empty.
	ErrInvalidArgument = errors.New("zone: invalid argument")
)

// Registry owns the device-to-zone mapping and the set of known zones.
//
// Every device resolves to exactly one zone: explicitly assigned or the
// default. Assigning a device to a previously unknown zone registers the
// zone name. Every assignment publishes events.ZoneChanged.
//
// All public methods are thread-safe.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]string   // deviceID -> zone
	known map[string]struct{} // known zone names
	bus   *eventbus.Bus
}

// NewRegistry creates a zone registry with only the default zone known.
func NewRegistry(bus *eventbus.Bus) *Registry {
	return &Registry{
		byID:  make(map[string]string),
		known: map[string]struct{}{DefaultZone: {}},
		bus:   bus,
	}
}

// ZoneFor resolves a device's zone. Always succeeds: devices without an
// explicit assignment resolve to DefaultZone.
func (r *Registry) ZoneFor(deviceID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if zone, ok := r.byID[deviceID]; ok {
		return zone
	}
	return DefaultZone
}

// SetZone assigns a device to a zone, registering the zone name if it is
// new. Publishes events.ZoneChanged only when the assignment changes.
func (r *Registry) SetZone(deviceID, zone string) error {
	if deviceID == "" {
		return fmt.Errorf("%w: device id is required", ErrInvalidArgument)
	}
	if zone == "" {
		return fmt.Errorf("%w: zone name is required", ErrInvalidArgument)
	}

	r.mu.Lock()
	previous, had := r.byID[deviceID]
	changed := !had || previous != zone
	r.byID[deviceID] = zone
	r.known[zone] = struct{}{}
	r.mu.Unlock()

	if changed {
		r.bus.Publish(eventbus.Event{
			Type:    events.TypeZoneChanged,
			Payload: events.ZoneChanged{DeviceID: deviceID, Zone: zone},
		})
	}
	return nil
}

// Zones returns all known zone names, sorted.
func (r *Registry) Zones() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	zones := make([]string, 0, len(r.known))
	for zone := range r.known {
		zones = append(zones, zone)
	}
	sort.Strings(zones)
	return zones
}

// DevicesInZone returns the device IDs explicitly assigned to a zone,
// sorted.
func (r *Registry) DevicesInZone(zone string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var devices []string
	for id, z := range r.byID {
		if z == zone {
			devices = append(devices, id)
		}
	}
	sort.Strings(devices)
	return devices
}
