// Package history keeps a bounded in-memory log of bus events.
//
// It is a passive observer: it subscribes to everything, summarises each
// event to one line, and retains the newest entries in a fixed-size ring.
package history
