package sensor

import "time"

// Reading is a single sensor sample.
//
// DeviceID plus Channel form the composite key; the registry keeps the
// latest reading per key plus a bounded rolling history for aggregation.
type Reading struct {
	DeviceID  string    `json:"device_id"`
	Channel   string    `json:"channel"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ChannelStats summarises one channel's rolling history.
type ChannelStats struct {
	Latest  float64 `json:"latest"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Samples int     `json:"samples"`
	Unit    string  `json:"unit,omitempty"`
}
