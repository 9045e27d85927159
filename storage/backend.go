package storage

import (
	"context"
	"errors"
)

// DefaultKey is the storage slot the RepeatHarmony client has always used
// for its session record. Backends accept any key; this is the default.
const DefaultKey = "repeatharmony_user"

// ErrNoRecord is returned by Load when no session record exists under the
// backend's key.
var ErrNoRecord = errors.New("no session record")

// ErrCorruptRecord is returned by Load when a record exists but does not
// decode as a valid session record.
var ErrCorruptRecord = errors.New("corrupt session record")

// ErrStorageUnavailable wraps backend I/O failures (file errors, Redis
// connectivity) so callers can distinguish them from absent or corrupt data.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Backend persists the single session record.
//
// Load returns [ErrNoRecord] when the slot is empty, [ErrCorruptRecord] when
// the stored bytes do not decode, and an error wrapping
// [ErrStorageUnavailable] when the backend itself cannot be reached.
// Delete is idempotent: deleting an empty slot is a no-op.
//
// Key reports the slot name the backend was constructed with, so callers can
// verify their configuration names the same slot.
type Backend interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	Delete(ctx context.Context) error
	Key() string
	Close() error
}
