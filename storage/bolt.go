package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"
)

var bucketSession = []byte("session")

// Bolt is a bbolt-backed backend. It is the single-process analog of the
// browser's durable key-value slot: one file, one bucket, one key.
type Bolt struct {
	db  *bolt.DB
	key []byte
	mu  sync.RWMutex
}

// NewBolt opens (or creates) the database file at path and ensures the
// session bucket exists.
func NewBolt(path, key string) (*Bolt, error) {
	if key == "" {
		key = DefaultKey
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorageUnavailable, path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketSession)
		return createErr
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create session bucket: %v", ErrStorageUnavailable, err)
	}

	return &Bolt{
		db:  db,
		key: []byte(key),
	}, nil
}

// Load implements Backend.Load.
func (b *Bolt) Load(_ context.Context) (*Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		stored := tx.Bucket(bucketSession).Get(b.key)
		if stored == nil {
			return ErrNoRecord
		}
		data = append([]byte(nil), stored...)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return DecodeRecord(data)
}

// Save implements Backend.Save.
func (b *Bolt) Save(_ context.Context, rec *Record) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSession).Put(b.key, data)
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Delete implements Backend.Delete.
func (b *Bolt) Delete(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSession).Delete(b.key)
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Key implements Backend.Key.
func (b *Bolt) Key() string {
	return string(b.key)
}

// Close implements Backend.Close and closes the underlying database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}
