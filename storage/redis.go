package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a go-redis backed backend for deployments where the session slot
// must survive the process.
//
// The client is owned by the caller; Close does not close it.
type Redis struct {
	client redis.UniversalClient
	key    string
}

// NewRedis creates a Redis backend. An empty key falls back to [DefaultKey].
func NewRedis(client redis.UniversalClient, key string) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{
		client: client,
		key:    key,
	}
}

// Load implements Backend.Load.
//
//	Performance: 1 Redis GET.
func (r *Redis) Load(ctx context.Context) (*Record, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return DecodeRecord(data)
}

// Save implements Backend.Save. Records carry no TTL: the slot lives until
// logout purges it.
func (r *Redis) Save(ctx context.Context, rec *Record) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Delete implements Backend.Delete.
func (r *Redis) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Key implements Backend.Key.
func (r *Redis) Key() string {
	return r.key
}

// Close implements Backend.Close. The Redis client belongs to the caller.
func (r *Redis) Close() error {
	return nil
}
