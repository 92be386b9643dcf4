// Package device owns the fleet's device registry.
//
// A device record is created the first time a message arrives for its ID
// and is never deleted; a device that stops talking is marked unreachable.
// The registry takes all its input from the event bus (transport messages,
// zone assignments, unreachable sweeps, transport connectivity) and
// publishes a changed event after every mutation, so no other container
// ever calls it directly.
package device
