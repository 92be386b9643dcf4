// Package dashboard owns the dashboard layout.
//
// The layout is a flat set of tiles persisted as a single JSON document
// in the key-value store. Tiles are validated before any state change;
// every successful mutation rewrites the document and publishes a
// changed event.
package dashboard
