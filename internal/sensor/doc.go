// Package sensor owns the fleet's sensor readings.
//
// Each device channel keeps exactly one latest reading plus a bounded
// rolling history used for aggregation; samples beyond the history depth
// fall off the front. Input arrives solely through the event bus.
package sensor
