package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
)

// ChallengeID is an opaque identifier for an in-flight verification
// challenge.
type ChallengeID [16]byte

// NewChallengeID returns a cryptographically random challenge identifier.
func NewChallengeID() (ChallengeID, error) {
	var id ChallengeID
	_, err := rand.Read(id[:])
	return id, err
}

func (c ChallengeID) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(c[:])
}

// ParseChallengeID decodes the string form of a challenge identifier.
func ParseChallengeID(s string) (ChallengeID, error) {
	var id ChallengeID

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(raw) != len(id) {
		return id, errors.New("invalid challenge id size")
	}

	copy(id[:], raw)
	return id, nil
}

// NumericCode returns a zero-padded random code with the given number of
// digits, drawn from crypto/rand.
func NumericCode(digits int) (string, error) {
	if digits < 1 || digits > 18 {
		return "", errors.New("invalid code digit count")
	}

	bound := big.NewInt(10)
	bound.Exp(bound, big.NewInt(int64(digits)), nil)

	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}
