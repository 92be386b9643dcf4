package influxdb

import (
	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/events"
)

// MetricWriter is the subset of Client the exporter needs.
// Satisfied by *Client; tests substitute a recorder.
type MetricWriter interface {
	WriteSensorReading(deviceID, channel string, value float64, unit string)
	WriteDeviceStatus(deviceID, status string, safeMode bool)
}

// Exporter mirrors sensor readings and device status transitions from the
// event bus into InfluxDB.
//
// It is a pure subscriber: nothing else in the system depends on it, and
// removing it (or running with InfluxDB disabled) changes no behaviour.
type Exporter struct {
	writer MetricWriter
	subs   []*eventbus.Subscription
	bus    *eventbus.Bus
}

// NewExporter subscribes the writer to sensor and device events.
// Call Close to detach.
func NewExporter(bus *eventbus.Bus, writer MetricWriter) *Exporter {
	e := &Exporter{writer: writer, bus: bus}

	e.subs = append(e.subs,
		bus.Subscribe(events.TypeSensorChanged, e.onSensorChanged),
		bus.Subscribe(events.TypeDeviceMessage, e.onDeviceMessage),
	)
	return e
}

// Close detaches the exporter from the bus. Safe to call more than once.
func (e *Exporter) Close() {
	for _, sub := range e.subs {
		e.bus.Unsubscribe(sub)
	}
	e.subs = nil
}

func (e *Exporter) onSensorChanged(ev eventbus.Event) {
	payload, ok := ev.Payload.(events.SensorChanged)
	if !ok {
		return
	}
	e.writer.WriteSensorReading(payload.DeviceID, payload.Channel, payload.Value, payload.Unit)
}

func (e *Exporter) onDeviceMessage(ev eventbus.Event) {
	payload, ok := ev.Payload.(events.DeviceMessage)
	if !ok {
		return
	}
	// Only status transitions carry safe-mode information; telemetry-only
	// messages are exported via the sensor path.
	if payload.SafeMode == nil {
		return
	}
	e.writer.WriteDeviceStatus(payload.DeviceID, "online", *payload.SafeMode)
}
