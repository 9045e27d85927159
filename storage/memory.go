package storage

import (
	"context"
	"sync"
)

// Memory is an in-process backend. Useful for tests and single-run demos
// where persistence across restarts is not needed.
type Memory struct {
	mu   sync.RWMutex
	key  string
	data map[string][]byte
}

// NewMemory creates an in-memory backend. An empty key falls back to
// [DefaultKey].
func NewMemory(key string) *Memory {
	if key == "" {
		key = DefaultKey
	}
	return &Memory{
		key:  key,
		data: make(map[string][]byte),
	}
}

// Load implements Backend.Load.
func (m *Memory) Load(_ context.Context) (*Record, error) {
	m.mu.RLock()
	data, ok := m.data[m.key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNoRecord
	}
	return DecodeRecord(data)
}

// Save implements Backend.Save.
func (m *Memory) Save(_ context.Context, rec *Record) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.data[m.key] = data
	m.mu.Unlock()
	return nil
}

// Delete implements Backend.Delete.
func (m *Memory) Delete(_ context.Context) error {
	m.mu.Lock()
	delete(m.data, m.key)
	m.mu.Unlock()
	return nil
}

// Key implements Backend.Key.
func (m *Memory) Key() string {
	return m.key
}

// Close implements Backend.Close.
func (m *Memory) Close() error {
	return nil
}

// Seed stores raw bytes under the backend's key, bypassing the codec. Tests
// use it to simulate tampered or legacy slots.
func (m *Memory) Seed(data []byte) {
	m.mu.Lock()
	m.data[m.key] = append([]byte(nil), data...)
	m.mu.Unlock()
}

// Raw returns the stored bytes and whether the slot is occupied.
func (m *Memory) Raw() ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[m.key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}
