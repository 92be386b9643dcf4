package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/events"
)

// DefaultCapacity is the ring depth when none is configured.
const DefaultCapacity = 500

// Entry is one logged bus event.
type Entry struct {
	Time      time.Time `json:"time"`
	EventType string    `json:"event_type"`
	Summary   string    `json:"summary"`
}

// Log keeps a bounded ring of every event crossing the bus.
//
// It subscribes with SubscribeAll so it observes the full event stream
// without naming any container. All public methods are thread-safe.
type Log struct {
	mu       sync.RWMutex
	entries  []Entry // ring storage
	start    int     // index of oldest entry
	count    int
	capacity int

	now func() time.Time
}

// NewLog creates an event log with the given capacity (DefaultCapacity
// if zero or negative) and attaches it to the bus.
func NewLog(bus *eventbus.Bus, capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l := &Log{
		entries:  make([]Entry, capacity),
		capacity: capacity,
		now:      time.Now,
	}

	bus.SubscribeAll(l.onEvent)

	return l
}

// Recent returns up to n entries, newest first.
func (l *Log) Recent(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > l.count {
		n = l.count
	}
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		idx := (l.start + l.count - 1 - i) % l.capacity
		out = append(out, l.entries[idx])
	}
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

func (l *Log) onEvent(ev eventbus.Event) {
	entry := Entry{
		Time:      l.now(),
		EventType: ev.Type,
		Summary:   summarise(ev),
	}

	l.mu.Lock()
	idx := (l.start + l.count) % l.capacity
	l.entries[idx] = entry
	if l.count < l.capacity {
		l.count++
	} else {
		l.start = (l.start + 1) % l.capacity
	}
	l.mu.Unlock()
}

// summarise renders a compact one-line description per payload type.
func summarise(ev eventbus.Event) string {
	switch p := ev.Payload.(type) {
	case events.DeviceMessage:
		if p.Channel != nil && p.Value != nil {
			return fmt.Sprintf("%s %s=%v", p.DeviceID, *p.Channel, *p.Value)
		}
		return fmt.Sprintf("%s status message", p.DeviceID)
	case events.DeviceChanged:
		return fmt.Sprintf("%s changed", p.DeviceID)
	case events.DeviceUnreachable:
		return fmt.Sprintf("%s unreachable since %s", p.DeviceID, p.LastSeen.Format(time.RFC3339))
	case events.SensorChanged:
		return fmt.Sprintf("%s/%s = %v%s", p.DeviceID, p.Channel, p.Value, p.Unit)
	case events.SensorRegistered:
		return fmt.Sprintf("%s/%s registered (%s)", p.DeviceID, p.Channel, p.Unit)
	case events.ActuatorChanged:
		return fmt.Sprintf("%s/%s rule changed", p.DeviceID, p.Channel)
	case events.ZoneChanged:
		return fmt.Sprintf("%s moved to %s", p.DeviceID, p.Zone)
	case events.IdentityChanged:
		return fmt.Sprintf("kaiser %s -> %s (%s)", p.OldValue, p.NewValue, p.Provenance)
	case events.CommandRequest:
		return fmt.Sprintf("command %s: %s %s", p.CommandID, p.DeviceID, p.Action)
	case events.CommandResult:
		if p.Error != "" {
			return fmt.Sprintf("command %s failed: %s", p.CommandID, p.Error)
		}
		return fmt.Sprintf("command %s sent", p.CommandID)
	case events.SessionChanged:
		if p.Connected {
			return "transport connected"
		}
		return "transport disconnected"
	case events.ConfigChanged:
		return fmt.Sprintf("settings updated: %v", p.Keys)
	case events.PrefsChanged:
		return fmt.Sprintf("preferences updated: %v", p.Keys)
	case events.DashboardChanged:
		return "dashboard layout updated"
	default:
		return ev.Type
	}
}
