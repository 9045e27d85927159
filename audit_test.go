package sessiongate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/repeatharmony/sessiongate/storage"
)

func TestAuditEventsReachChannelSink(t *testing.T) {
	sink := NewChannelSink(16)

	cfg := defaultConfig()
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 16}

	store, err := New().
		WithConfig(cfg).
		WithStorage(storage.NewMemory("")).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("build store: %v", err)
	}

	ctx := context.Background()
	store.Initialize(ctx)
	if _, err := store.Login(ctx, "user@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	store.Logout()

	// Close drains the dispatcher so every emitted event has been
	// delivered.
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	seen := map[string]bool{}
	for {
		select {
		case event := <-sink.Events():
			seen[event.EventType] = true
		case <-time.After(100 * time.Millisecond):
			for _, want := range []string{EventRestoreEmpty, EventLoginSuccess, EventLogout} {
				if !seen[want] {
					t.Fatalf("missing audit event %q, saw %v", want, seen)
				}
			}
			return
		}
	}
}

func TestJSONWriterSinkWritesOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{EventType: EventLoginSuccess, Success: true})
	sink.Emit(context.Background(), AuditEvent{EventType: EventLogout, Success: true})

	scanner := bufio.NewScanner(&buf)
	var lines int
	for scanner.Scan() {
		lines++
		var event AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		if event.EventType == "" {
			t.Fatalf("line %d lost its event type", lines)
		}
	}
	if lines != 2 {
		t.Fatalf("expected 2 lines, got %d", lines)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := blockingSink{release: block}

	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event occupies the worker, second fills the buffer, third drops.
	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: EventLogout})
	}

	deadline := time.After(time.Second)
	for d.Dropped() == 0 {
		select {
		case <-deadline:
			close(block)
			d.Close()
			t.Fatal("expected at least one dropped event")
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(block)
	d.Close()
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(context.Context, AuditEvent) {
	<-s.release
}
