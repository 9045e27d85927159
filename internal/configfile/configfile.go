// Package configfile loads the demo server's YAML configuration and watches
// it for on-disk changes. It belongs to the server wiring, not to the
// library core: the sessiongate Config is assembled from it at startup.
package configfile

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidYAML is returned when the config file cannot be parsed.
var ErrInvalidYAML = errors.New("invalid yaml in config file")

// File is the on-disk server configuration.
type File struct {
	Listen  string      `yaml:"listen"`
	Storage StorageFile `yaml:"storage"`
	Session SessionFile `yaml:"session"`
	Token   TokenFile   `yaml:"token"`
	Log     LogFile     `yaml:"log"`
}

// StorageFile selects and configures the durable backend.
type StorageFile struct {
	// Backend is one of "bolt", "redis", "memory".
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redis_addr"`
	Key       string `yaml:"key"`
}

// SessionFile configures session behavior.
type SessionFile struct {
	LoginLatencyMS int  `yaml:"login_latency_ms"`
	ReuseIdentity  bool `yaml:"reuse_identity"`
}

// TokenFile configures API session tokens.
type TokenFile struct {
	Secret     string `yaml:"secret"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// LogFile configures server logging.
type LogFile struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *File {
	return &File{
		Listen: ":8080",
		Storage: StorageFile{
			Backend: "bolt",
			Path:    "sessiongate.db",
		},
		Session: SessionFile{
			LoginLatencyMS: 0,
		},
		Token: TokenFile{
			TTLMinutes: 60,
		},
		Log: LogFile{
			Level: "info",
		},
	}
}

// Load reads, parses, and validates the file at path. An empty path yields
// the defaults.
func Load(path string) (*File, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the loaded file for usable values.
func (f *File) Validate() error {
	if f.Listen == "" {
		return errors.New("listen address must not be empty")
	}

	switch f.Storage.Backend {
	case "bolt":
		if f.Storage.Path == "" {
			return errors.New("storage path required for bolt backend")
		}
	case "redis":
		if f.Storage.RedisAddr == "" {
			return errors.New("redis_addr required for redis backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage backend %q", f.Storage.Backend)
	}

	if f.Session.LoginLatencyMS < 0 {
		return errors.New("login_latency_ms must be >= 0")
	}
	if f.Token.TTLMinutes <= 0 {
		return errors.New("token ttl_minutes must be > 0")
	}

	return nil
}

// LoginLatency converts the millisecond file value to a duration.
func (f *File) LoginLatency() time.Duration {
	return time.Duration(f.Session.LoginLatencyMS) * time.Millisecond
}

// TokenTTL converts the minute file value to a duration.
func (f *File) TokenTTL() time.Duration {
	return time.Duration(f.Token.TTLMinutes) * time.Minute
}
