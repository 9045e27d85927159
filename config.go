package sessiongate

import (
	"errors"
	"time"

	"github.com/repeatharmony/sessiongate/storage"
)

// Config defines the sessiongate configuration surface.
//
// Config instances are intended to be set up during initialization and then
// treated as immutable.
type Config struct {
	Session      SessionConfig
	Verification VerificationConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session creation and restore behavior.
type SessionConfig struct {
	// StorageKey is the durable slot name. Defaults to storage.DefaultKey.
	// The storage backend owns the slot it writes; Build fails when this
	// does not match the backend's key.
	StorageKey string
	// LoginLatency is an artificial delay applied to each login call,
	// mirroring the product's simulated network round-trip. Zero disables
	// it; tests keep it at zero.
	LoginLatency time.Duration
	// ReuseIdentity derives a stable identifier from the email instead of
	// generating a fresh one per login. Off by default: the historical
	// behavior is an ephemeral identity per login.
	ReuseIdentity bool
}

/*
====================================
VERIFICATION CONFIG
====================================
*/

// VerificationConfig controls the email-verification challenge flow.
type VerificationConfig struct {
	Enabled      bool
	CodeDigits   int
	ChallengeTTL time.Duration
	MaxAttempts  int
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the buffered audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking the caller when the
	// buffer is saturated. Dropped counts are observable via
	// Store.AuditDropped.
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			StorageKey:   storage.DefaultKey,
			LoginLatency: 0,
		},
		Verification: VerificationConfig{
			Enabled:      false,
			CodeDigits:   6,
			ChallengeTTL: 10 * time.Minute,
			MaxAttempts:  5,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types today; the clone exists so later slice or
	// map fields cannot alias caller state.
	return cfg
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.Session.StorageKey == "" {
		return errors.New("Session StorageKey must not be empty")
	}
	if c.Session.LoginLatency < 0 {
		return errors.New("Session LoginLatency must be >= 0")
	}

	if c.Verification.Enabled {
		if c.Verification.CodeDigits < 4 || c.Verification.CodeDigits > 10 {
			return errors.New("Verification CodeDigits must be between 4 and 10")
		}
		if c.Verification.ChallengeTTL <= 0 {
			return errors.New("Verification ChallengeTTL must be > 0")
		}
		if c.Verification.MaxAttempts < 1 {
			return errors.New("Verification MaxAttempts must be >= 1")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}
