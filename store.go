package sessiongate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/repeatharmony/sessiongate/storage"
)

// Store is the single source of truth for "who is logged in". It owns the
// one Session, the loading flag, and the durable mirror of both.
//
// All state transitions run under one lock, so consumers never observe a
// partially-applied session change; the durable write of a login happens
// inside the same critical section as the in-memory install, which is what
// makes overlapping logins last-writer-wins instead of torn.
//
// Construct through [Builder.Build]. A freshly built Store reports loading
// until [Store.Initialize] completes.
type Store struct {
	config  Config
	backend storage.Backend
	clock   func() time.Time

	audit   *auditDispatcher
	metrics *Metrics
	verify  *verificationStore

	mu      sync.Mutex
	session *Session
	loading bool
	closed  bool

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// Initialize restores a prior session from durable storage. Missing records
// leave the store unauthenticated; malformed records are purged, never
// retried; an unreachable backend is treated as "no session". Initialize
// never fails — every outcome is swallowed into state, counted, and
// reported through the audit sink — and it always terminates with
// IsLoading() == false.
//
// Initialize is safe to call more than once; a healthy durable record
// restores to the same session every time (the read never mutates storage).
func (s *Store) Initialize(ctx context.Context) {
	if s == nil {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.loading = true
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	rec, err := s.backend.Load(ctx)

	s.mu.Lock()
	switch {
	case err == nil:
		s.session = &Session{
			UserID:      rec.ID,
			DisplayName: rec.Name,
			Email:       rec.Email,
			Initials:    rec.Initials,
			JoinedAt:    rec.JoinedAt,
		}
	case errors.Is(err, storage.ErrCorruptRecord):
		s.session = nil
		// Self-heal: a slot that cannot be parsed is purged so the next
		// boot starts clean.
		_ = s.backend.Delete(ctx)
	default:
		s.session = nil
	}
	s.loading = false
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	switch {
	case err == nil:
		s.metrics.Inc(MetricRestoreSuccess)
		s.emit(ctx, AuditEvent{
			EventType: EventRestoreSuccess,
			UserID:    rec.ID,
			Email:     rec.Email,
			Success:   true,
		})
	case errors.Is(err, storage.ErrNoRecord):
		s.metrics.Inc(MetricRestoreEmpty)
		s.emit(ctx, AuditEvent{EventType: EventRestoreEmpty, Success: true})
	case errors.Is(err, storage.ErrCorruptRecord):
		s.metrics.Inc(MetricRestoreCorrupt)
		s.emit(ctx, AuditEvent{
			EventType: EventRestoreCorrupt,
			Success:   false,
			Error:     err.Error(),
		})
	default:
		s.metrics.Inc(MetricRestoreUnavailable)
		s.emit(ctx, AuditEvent{
			EventType: EventRestoreUnavailable,
			Success:   false,
			Error:     err.Error(),
		})
	}
}

// Login creates and installs a new Session for email. The password is
// accepted for interface fidelity but not verified here — there is no
// credential authority in this layer; callers validate input shape.
//
// The store reports loading for the duration of the call. On return the
// session is active in memory; LoginResult.Persistence says whether the
// durable mirror landed. A failed durable write is not a failed login: it
// surfaces as PersistenceFailed with WriteErr wrapping
// [ErrDurableWriteFailed] so callers can warn instead of silently assuming
// durability.
//
// Two overlapping Login calls are not queued or rejected; whichever commits
// last wins both the in-memory and durable state, and the two always match.
// The loading flag is not a count of in-flight calls: when logins overlap,
// the first to commit clears it while the second is still waiting, so
// IsLoading can momentarily read false with a login still in flight. Only
// the final state is guaranteed consistent.
func (s *Store) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	return s.login(ctx, email, password, "")
}

// Signup is Login with an explicit display name, matching the product's
// signup form. The name is trimmed; when blank it falls back to the
// email-derived name.
func (s *Store) Signup(ctx context.Context, email, password, displayName string) (*LoginResult, error) {
	return s.login(ctx, email, password, displayName)
}

func (s *Store) login(ctx context.Context, email, _, displayName string) (*LoginResult, error) {
	if s == nil {
		return nil, ErrStoreClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	s.loading = true
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	if err := s.simulateLatency(ctx); err != nil {
		s.mu.Lock()
		s.loading = false
		snap = s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)

		s.metrics.Inc(MetricLoginCanceled)
		s.emit(ctx, AuditEvent{
			EventType: EventLoginCanceled,
			Email:     email,
			Success:   false,
			Error:     err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrLoginCanceled, err)
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = DisplayNameFromEmail(email)
	}

	sess := Session{
		UserID:      newUserID(email, s.config.Session.ReuseIdentity),
		DisplayName: name,
		Email:       email,
		Initials:    InitialsFromName(name),
		// Durable timestamps are second-granular; truncate up front so the
		// mirror matches memory exactly.
		JoinedAt: s.clock().UTC().Truncate(time.Second),
	}

	rec := &storage.Record{
		ID:       sess.UserID,
		Name:     sess.DisplayName,
		Email:    sess.Email,
		Initials: sess.Initials,
		JoinedAt: sess.JoinedAt,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	writeErr := s.backend.Save(ctx, rec)
	installed := sess
	s.session = &installed
	s.loading = false
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	result := &LoginResult{Session: sess, Persistence: PersistenceOK}
	if writeErr != nil {
		result.Persistence = PersistenceFailed
		result.WriteErr = fmt.Errorf("%w: %v", ErrDurableWriteFailed, writeErr)
		s.metrics.Inc(MetricPersistFailure)
		s.emit(ctx, AuditEvent{
			EventType: EventLoginWriteFailed,
			UserID:    sess.UserID,
			Email:     sess.Email,
			Success:   false,
			Error:     writeErr.Error(),
		})
	}

	s.metrics.Inc(MetricLoginSuccess)
	s.emit(ctx, AuditEvent{
		EventType: EventLoginSuccess,
		UserID:    sess.UserID,
		Email:     sess.Email,
		Success:   true,
		Metadata:  map[string]string{"persistence": result.Persistence.String()},
	})

	return result, nil
}

// Logout synchronously clears the in-memory session and purges the durable
// slot. It is idempotent: logging out with no active session is a no-op,
// not an error. Purge failures are reported to the audit sink; the
// in-memory state is cleared regardless.
func (s *Store) Logout() {
	if s == nil {
		return
	}
	ctx := context.Background()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	had := s.session != nil
	var userID, email string
	if had {
		userID, email = s.session.UserID, s.session.Email
	}
	s.session = nil
	delErr := s.backend.Delete(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	if !had && delErr == nil {
		return
	}
	if had {
		s.metrics.Inc(MetricLogout)
	}
	event := AuditEvent{
		EventType: EventLogout,
		UserID:    userID,
		Email:     email,
		Success:   delErr == nil,
	}
	if delErr != nil {
		event.Error = delErr.Error()
	}
	s.emit(ctx, event)
}

// Current returns a copy of the active session, or nil when logged out.
func (s *Store) Current() *Session {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	dup := *s.session
	return &dup
}

// IsAuthenticated reports whether a session is active. It is derived from
// the session itself and cannot be set independently.
func (s *Store) IsAuthenticated() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// IsLoading reports whether the store is restoring at boot or has a login
// in flight.
func (s *Store) IsLoading() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Subscribe registers fn to receive a State snapshot after every completed
// transition. Notification is synchronous: by the time Login, Logout, or
// Initialize returns, every subscriber has seen the new state. The returned
// func removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	if s == nil || fn == nil {
		return func() {}
	}

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Close disposes the store: the audit dispatcher drains and stops, and the
// storage backend is closed. Mutations after Close return ErrStoreClosed;
// reads keep answering from the last state.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.audit.Close()
	return s.backend.Close()
}

// MetricsSnapshot copies the store's counters.
func (s *Store) MetricsSnapshot() MetricsSnapshot {
	if s == nil || s.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return s.metrics.Snapshot()
}

// AuditDropped reports how many audit events the dispatcher has dropped.
func (s *Store) AuditDropped() uint64 {
	if s == nil {
		return 0
	}
	return s.audit.Dropped()
}

func (s *Store) snapshotLocked() State {
	snap := State{
		Authenticated: s.session != nil,
		Loading:       s.loading,
	}
	if s.session != nil {
		dup := *s.session
		snap.Session = &dup
	}
	return snap
}

func (s *Store) notify(snap State) {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) emit(ctx context.Context, event AuditEvent) {
	if s.audit == nil {
		return
	}
	event.Timestamp = s.clock()
	s.audit.Emit(ctx, event)
}

func (s *Store) simulateLatency(ctx context.Context) error {
	d := s.config.Session.LoginLatency
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
