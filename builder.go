package sessiongate

import (
	"errors"
	"fmt"
	"time"

	"github.com/repeatharmony/sessiongate/storage"
)

// Builder assembles a [Store]. Construction is allocation-only until Build,
// which validates the configuration and wires the dependencies.
type Builder struct {
	config  Config
	backend storage.Backend
	sink    AuditSink
	clock   func() time.Time

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStorage sets the durable backend. Required.
func (b *Builder) WithStorage(backend storage.Backend) *Builder {
	b.backend = backend
	return b
}

// WithAuditSink sets the sink receiving audit events. Ignored unless
// Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithClock overrides the time source. Tests use it to make JoinedAt and
// challenge expiry deterministic.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// Build validates the configuration and constructs the Store. A Builder can
// build at most once. The Store reports loading until Initialize completes.
func (b *Builder) Build() (*Store, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.backend == nil {
		return nil, errors.New("storage backend required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// The backend owns the slot name; a Config naming a different slot would
	// be silently ignored, so the mismatch fails construction instead.
	if key := b.backend.Key(); key != cfg.Session.StorageKey {
		return nil, fmt.Errorf("Session StorageKey %q does not match storage backend key %q",
			cfg.Session.StorageKey, key)
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	store := &Store{
		config:  cfg,
		backend: b.backend,
		clock:   clock,
		audit:   newAuditDispatcher(cfg.Audit, b.sink),
		metrics: NewMetrics(cfg.Metrics),
		verify:  newVerificationStore(cfg.Verification, clock),
		loading: true,
		subs:    make(map[int]func(State)),
	}

	b.built = true

	return store, nil
}
