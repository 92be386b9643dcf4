// Package eventbus provides the in-process publish/subscribe channel that
// decouples the state containers from one another.
//
// Delivery is synchronous and at-most-once per registered handler: Publish
// fans out to a snapshot of the current subscribers, in registration order,
// before returning. Handlers registered during a fan-out are not invoked for
// that same publish. A panicking handler is recovered and logged; remaining
// handlers still run.
//
// The bus carries no persistence and makes no ordering promise across
// different event types.
package eventbus
