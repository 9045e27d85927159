package sessiongate

import "time"

// Session is the in-memory record of who is currently logged in. Exactly
// zero or one Session exists per Store at any time.
//
// Session values are created whole at login and never field-edited
// afterward; DisplayName and Initials are always derived together.
type Session struct {
	// UserID is an opaque identifier generated at login time. By default a
	// fresh identifier is generated on every login, even for the same email;
	// see SessionConfig.ReuseIdentity.
	UserID string
	// DisplayName is the human-readable name, supplied at signup or derived
	// from the email's local part.
	DisplayName string
	// Email is the credential identifier. This layer treats it as an opaque
	// key; format validation belongs to callers.
	Email string
	// Initials is derived from DisplayName: first rune of each
	// whitespace-delimited token, uppercased, at most two.
	Initials string
	// JoinedAt is set once at session creation and never mutated.
	JoinedAt time.Time
}

// PersistenceOutcome reports whether a login's durable write landed.
type PersistenceOutcome uint8

const (
	// PersistenceOK means durable storage mirrors the in-memory session.
	PersistenceOK PersistenceOutcome = iota
	// PersistenceFailed means the session is active in memory only. The
	// write error is preserved in LoginResult.WriteErr so callers can warn
	// the user instead of assuming durability.
	PersistenceFailed
)

func (p PersistenceOutcome) String() string {
	switch p {
	case PersistenceOK:
		return "ok"
	case PersistenceFailed:
		return "write-failed"
	default:
		return "unknown"
	}
}

// LoginResult is returned by Login and Signup on success.
type LoginResult struct {
	Session     Session
	Persistence PersistenceOutcome
	// WriteErr wraps ErrDurableWriteFailed when Persistence is
	// PersistenceFailed; nil otherwise.
	WriteErr error
}

// State is the snapshot delivered to subscribers after every completed
// transition. Authenticated is derived from Session and never independently
// settable.
type State struct {
	Session       *Session
	Authenticated bool
	Loading       bool
}
