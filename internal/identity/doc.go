// Package identity owns the kaiser identity and the hub settings.
//
// The Resolver is the single writer of identity state: every candidate
// source (hierarchical override, manual choice, persisted value, default
// placeholder) flows through one priority chain with one persistence
// path, replacing the ad-hoc readers that tend to grow around values
// like this. A deprecated storage key is migrated once at startup and
// kept as a read-only fallback.
package identity
