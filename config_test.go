package sessiongate

import (
	"strings"
	"testing"
	"time"

	"github.com/repeatharmony/sessiongate/storage"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate, got %v", err)
	}
	if cfg.Session.StorageKey != storage.DefaultKey {
		t.Fatalf("default storage key = %q", cfg.Session.StorageKey)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "empty storage key",
			mutate:  func(c *Config) { c.Session.StorageKey = "" },
			wantSub: "StorageKey",
		},
		{
			name:    "negative latency",
			mutate:  func(c *Config) { c.Session.LoginLatency = -time.Second },
			wantSub: "LoginLatency",
		},
		{
			name: "verification digits out of range",
			mutate: func(c *Config) {
				c.Verification.Enabled = true
				c.Verification.CodeDigits = 2
			},
			wantSub: "CodeDigits",
		},
		{
			name: "verification ttl missing",
			mutate: func(c *Config) {
				c.Verification.Enabled = true
				c.Verification.ChallengeTTL = 0
			},
			wantSub: "ChallengeTTL",
		},
		{
			name: "verification attempts missing",
			mutate: func(c *Config) {
				c.Verification.Enabled = true
				c.Verification.MaxAttempts = 0
			},
			wantSub: "MaxAttempts",
		},
		{
			name: "audit buffer missing",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantSub: "BufferSize",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestBuilderRequiresStorage(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("build without storage must fail")
	}
}

func TestBuilderBuildsOnce(t *testing.T) {
	b := New().WithStorage(storage.NewMemory(""))

	store, err := b.Build()
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	defer store.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("second build on the same builder must fail")
	}
}

func TestBuilderRejectsStorageKeyMismatch(t *testing.T) {
	// The backend writes the slot it was constructed with; a Config naming a
	// different slot must not build.
	_, err := New().WithStorage(storage.NewMemory("some_other_slot")).Build()
	if err == nil {
		t.Fatal("build must fail when config and backend name different slots")
	}
	if !strings.Contains(err.Error(), "some_other_slot") {
		t.Fatalf("error %q does not name the backend key", err)
	}

	store, err := New().WithStorage(storage.NewMemory(storage.DefaultKey)).Build()
	if err != nil {
		t.Fatalf("matching keys must build, got %v", err)
	}
	defer store.Close()
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Session.StorageKey = ""

	_, err := New().WithConfig(cfg).WithStorage(storage.NewMemory("")).Build()
	if err == nil {
		t.Fatal("build with invalid config must fail")
	}
}
