package sessiongate

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/repeatharmony/sessiongate/internal"
)

type verificationChallenge struct {
	email     string
	codeHash  [32]byte
	expiresAt time.Time
	attempts  int
}

// verificationStore holds in-flight email verification challenges. The
// product's verification is a client-side simulation with no mail backend,
// so challenges live in process memory with a TTL; durable storage never
// sees them.
type verificationStore struct {
	cfg   VerificationConfig
	clock func() time.Time

	mu         sync.Mutex
	challenges map[string]*verificationChallenge
}

func newVerificationStore(cfg VerificationConfig, clock func() time.Time) *verificationStore {
	return &verificationStore{
		cfg:        cfg,
		clock:      clock,
		challenges: make(map[string]*verificationChallenge),
	}
}

func (v *verificationStore) begin(email string) (challengeID, code string, err error) {
	if !v.cfg.Enabled {
		return "", "", ErrVerificationDisabled
	}

	id, err := internal.NewChallengeID()
	if err != nil {
		return "", "", err
	}
	code, err = internal.NumericCode(v.cfg.CodeDigits)
	if err != nil {
		return "", "", err
	}

	now := v.clock()

	v.mu.Lock()
	v.pruneLocked(now)
	v.challenges[id.String()] = &verificationChallenge{
		email:     email,
		codeHash:  sha256.Sum256([]byte(code)),
		expiresAt: now.Add(v.cfg.ChallengeTTL),
	}
	v.mu.Unlock()

	return id.String(), code, nil
}

func (v *verificationStore) confirm(challengeID, code string) (email string, err error) {
	if !v.cfg.Enabled {
		return "", ErrVerificationDisabled
	}

	now := v.clock()
	provided := sha256.Sum256([]byte(code))

	v.mu.Lock()
	defer v.mu.Unlock()

	ch, ok := v.challenges[challengeID]
	if !ok {
		return "", ErrVerificationInvalid
	}
	if now.After(ch.expiresAt) {
		delete(v.challenges, challengeID)
		return "", ErrVerificationExpired
	}

	if subtle.ConstantTimeCompare(provided[:], ch.codeHash[:]) != 1 {
		ch.attempts++
		if ch.attempts >= v.cfg.MaxAttempts {
			delete(v.challenges, challengeID)
			return "", ErrVerificationAttempts
		}
		return "", ErrVerificationInvalid
	}

	delete(v.challenges, challengeID)
	return ch.email, nil
}

func (v *verificationStore) pruneLocked(now time.Time) {
	for id, ch := range v.challenges {
		if now.After(ch.expiresAt) {
			delete(v.challenges, id)
		}
	}
}

// BeginVerification issues an email verification challenge and returns its
// identifier together with the code the product would mail out. Requires
// Config.Verification.Enabled.
func (s *Store) BeginVerification(ctx context.Context, email string) (challengeID, code string, err error) {
	if s == nil {
		return "", "", ErrStoreClosed
	}

	challengeID, code, err = s.verify.begin(email)
	if err != nil {
		return "", "", err
	}

	s.metrics.Inc(MetricVerifyIssued)
	s.emit(ctx, AuditEvent{
		EventType: EventVerifyIssued,
		Email:     email,
		Success:   true,
	})
	return challengeID, code, nil
}

// ConfirmVerification checks a code against an outstanding challenge. A
// correct code consumes the challenge; a wrong one spends an attempt, and
// spending the last attempt consumes the challenge too.
func (s *Store) ConfirmVerification(ctx context.Context, challengeID, code string) error {
	if s == nil {
		return ErrStoreClosed
	}

	email, err := s.verify.confirm(challengeID, code)
	if err != nil {
		s.metrics.Inc(MetricVerifyFailure)
		s.emit(ctx, AuditEvent{
			EventType: EventVerifyFailure,
			Success:   false,
			Error:     err.Error(),
		})
		return err
	}

	s.metrics.Inc(MetricVerifySuccess)
	s.emit(ctx, AuditEvent{
		EventType: EventVerifySuccess,
		Email:     email,
		Success:   true,
	})
	return nil
}
