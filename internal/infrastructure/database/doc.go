// Package database provides SQLite connectivity and the durable key-value
// store used as the persistence collaborator by the state containers.
//
// The DB wrapper manages the connection lifecycle (WAL mode, busy timeout,
// single-writer pool) and the KV type exposes the Get/Set contract consumed
// by the identity resolver, preferences, and dashboard containers.
//
// SQLite was chosen for the same reasons as the rest of the stack: a single
// file, no external service, and decades of format stability.
package database
