package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	sessiongate "github.com/repeatharmony/sessiongate"
	"github.com/repeatharmony/sessiongate/internal/configfile"
	"github.com/repeatharmony/sessiongate/storage"
	"github.com/repeatharmony/sessiongate/token"
)

func run(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := configfile.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	backend, cleanup, err := buildBackend(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := sessiongate.New().
		WithConfig(sessiongate.Config{
			Session: sessiongate.SessionConfig{
				StorageKey:    backend.Key(),
				LoginLatency:  cfg.LoginLatency(),
				ReuseIdentity: cfg.Session.ReuseIdentity,
			},
			Verification: sessiongate.VerificationConfig{
				Enabled:      true,
				CodeDigits:   6,
				ChallengeTTL: 10 * time.Minute,
				MaxAttempts:  5,
			},
			Audit: sessiongate.AuditConfig{
				Enabled:    true,
				BufferSize: 256,
				DropIfFull: true,
			},
			Metrics: sessiongate.MetricsConfig{Enabled: true},
		}).
		WithStorage(backend).
		WithAuditSink(zapAuditSink{logger: logger.Named("audit")}).
		Build()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	store.Initialize(ctx)
	logger.Info("session store initialized",
		zap.Bool("authenticated", store.IsAuthenticated()))

	secret := cfg.Token.Secret
	if secret == "" {
		secret = randomSecret()
		logger.Warn("no token secret configured; generated an ephemeral one")
	}
	tokens, err := token.NewManager(token.Config{
		TTL:           cfg.TokenTTL(),
		SigningMethod: token.MethodHS256,
		PrivateKey:    []byte(secret),
		Issuer:        "repeatharmony",
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           newMux(store, tokens, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if configPath != "" {
		g.Go(func() error {
			err := configfile.Watch(gctx, configPath, func() {
				// Guard flags and backend selection are start-time config.
				logger.Warn("config file changed on disk; restart to apply")
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}

func buildBackend(cfg *configfile.File) (storage.Backend, func(), error) {
	switch cfg.Storage.Backend {
	case "bolt":
		backend, err := storage.NewBolt(cfg.Storage.Path, cfg.Storage.Key)
		if err != nil {
			return nil, nil, err
		}
		return backend, func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Storage.RedisAddr})
		backend := storage.NewRedis(client, cfg.Storage.Key)
		return backend, func() { _ = client.Close() }, nil
	case "memory":
		return storage.NewMemory(cfg.Storage.Key), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func randomSecret() string {
	var buf [32]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}

// zapAuditSink forwards store audit events to the server log.
type zapAuditSink struct {
	logger *zap.Logger
}

func (s zapAuditSink) Emit(_ context.Context, event sessiongate.AuditEvent) {
	fields := []zap.Field{
		zap.String("event", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	if event.Success {
		s.logger.Info("session event", fields...)
		return
	}
	s.logger.Warn("session event", fields...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
