// Package session owns the transport-facing connection state.
//
// It is the fleet's front door: every message from a controller enters
// the system through OnDeviceMessage and every command leaves through the
// command-request subscription. Other containers see only the events it
// publishes; none of them know the transport exists.
package session
