// Package hub composes the state containers behind a single facade.
//
// External callers (the REST API, the websocket relay) talk only to the
// hub: derived reads are served through a TTL cache whose entries are
// invalidated synchronously by the containers' changed events, and
// writes are routed to the container that owns the state. Multi-target
// operations report partial failure explicitly rather than swallowing
// it.
package hub
