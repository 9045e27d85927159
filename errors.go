package sessiongate

import "errors"

var (
	// ErrStoreClosed is returned by mutating calls after Close.
	ErrStoreClosed = errors.New("session store closed")
	// ErrDurableWriteFailed marks a login whose session is active in memory
	// but could not be mirrored to durable storage. It is carried inside
	// LoginResult.WriteErr, never as the Login error: the login itself
	// succeeded.
	ErrDurableWriteFailed = errors.New("durable session write failed")
	// ErrLoginCanceled is returned when the caller's context expires before
	// the login installs a session.
	ErrLoginCanceled = errors.New("login canceled")
	// ErrVerificationDisabled is returned when email verification is not
	// enabled in the configuration.
	ErrVerificationDisabled = errors.New("email verification disabled")
	// ErrVerificationInvalid is returned for an unknown challenge or a wrong
	// code.
	ErrVerificationInvalid = errors.New("email verification challenge invalid")
	// ErrVerificationExpired is returned when the challenge TTL has passed.
	ErrVerificationExpired = errors.New("email verification challenge expired")
	// ErrVerificationAttempts is returned once the per-challenge attempt
	// budget is spent; the challenge is consumed.
	ErrVerificationAttempts = errors.New("email verification attempts exceeded")
)
