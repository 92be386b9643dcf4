package actuator

import (
	"github.com/fleetforge/fleet-hub/internal/schedule"
)

// Rule schedules an actuator channel.
//
// The channel is considered active at any instant falling inside one of
// its time windows, provided the rule is enabled. Windows may wrap
// midnight (start after end).
type Rule struct {
	DeviceID string                `json:"device_id"`
	Channel  string                `json:"channel"`
	Windows  []schedule.TimeWindow `json:"windows"`
	Enabled  bool                  `json:"enabled"`
}

// DeepCopy returns a copy of the rule with its own windows slice.
func (r *Rule) DeepCopy() *Rule {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Windows = make([]schedule.TimeWindow, len(r.Windows))
	copy(clone.Windows, r.Windows)
	return &clone
}
