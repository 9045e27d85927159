// Package storage provides the durable session-record backends used by the
// sessiongate store: an in-memory map for tests and demos, a bbolt file for
// single-process deployments, and Redis for shared deployments.
//
// All backends persist exactly one record under a fixed key and speak the
// same JSON wire shape. A record that fails to decode is reported as
// [ErrCorruptRecord]; the store treats that as "no session" and purges the
// entry rather than retrying.
//
// # Architecture boundaries
//
// This package owns persistence and the wire codec only. It never decides
// what a missing or corrupt record means — that policy belongs to the
// sessiongate store.
package storage
