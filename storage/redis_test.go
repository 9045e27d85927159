package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, ""), mr, client
}

func TestRedisLifecycle(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestRedis(t)

	_, err := r.Load(ctx)
	assert.ErrorIs(t, err, ErrNoRecord)

	require.NoError(t, r.Save(ctx, sampleRecord()))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecord().ID, got.ID)

	require.NoError(t, r.Delete(ctx))

	_, err = r.Load(ctx)
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestRedisCorruptSlot(t *testing.T) {
	ctx := context.Background()
	r, mr, _ := newTestRedis(t)

	require.NoError(t, mr.Set(DefaultKey, "}{ not json"))

	_, err := r.Load(ctx)
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestRedisServerDownIsUnavailable(t *testing.T) {
	ctx := context.Background()
	r, mr, _ := newTestRedis(t)

	mr.Close()

	_, err := r.Load(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	err = r.Save(ctx, sampleRecord())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestRedisCloseLeavesClientOpen(t *testing.T) {
	ctx := context.Background()
	r, _, client := newTestRedis(t)

	require.NoError(t, r.Close())
	require.NoError(t, client.Ping(ctx).Err())
}
