package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("")

	_, err := m.Load(ctx)
	assert.ErrorIs(t, err, ErrNoRecord)

	require.NoError(t, m.Save(ctx, sampleRecord()))

	got, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", got.Email)

	require.NoError(t, m.Delete(ctx))

	_, err = m.Load(ctx)
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestMemorySeededGarbageIsCorrupt(t *testing.T) {
	m := NewMemory("")
	m.Seed([]byte("{truncated"))

	_, err := m.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestMemoryDeleteIsIdempotent(t *testing.T) {
	m := NewMemory("custom_key")

	require.NoError(t, m.Delete(context.Background()))
	require.NoError(t, m.Delete(context.Background()))
}

func TestMemoryKeyReportsSlot(t *testing.T) {
	assert.Equal(t, DefaultKey, NewMemory("").Key())
	assert.Equal(t, "custom_key", NewMemory("custom_key").Key())
}

func TestMemoryRawMirrorsWireForm(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("")

	_, ok := m.Raw()
	assert.False(t, ok)

	require.NoError(t, m.Save(ctx, sampleRecord()))

	raw, ok := m.Raw()
	require.True(t, ok)

	rec, err := DecodeRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, sampleRecord().ID, rec.ID)
}
