// Package storage persists opaque blobs keyed by string.
//
// Session snapshots are the only client. Two backends are provided: a bbolt
// file for the server and an in-memory map for tests and ephemeral runs.
// WithBreaker wraps either one in a circuit breaker.
package storage
