package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Record is the durable session record. It mirrors the in-memory session
// exactly after any completed login or logout.
//
// Record instances are written whole and never field-edited in place.
type Record struct {
	ID       string
	Name     string
	Email    string
	Initials string
	JoinedAt time.Time
}

// recordWire is the on-disk JSON shape. JoinedAt travels as ISO-8601.
type recordWire struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Initials string `json:"initials"`
	JoinedAt string `json:"joinedAt"`
}

// EncodeRecord serializes a record to its JSON wire form. The record must be
// well formed; encoding a record that would not round-trip is an error here
// rather than a corrupt read later.
func EncodeRecord(rec *Record) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("encode: nil record")
	}
	if err := validateRecord(rec); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	data, err := json.Marshal(recordWire{
		ID:       rec.ID,
		Name:     rec.Name,
		Email:    rec.Email,
		Initials: rec.Initials,
		JoinedAt: rec.JoinedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	return data, nil
}

// DecodeRecord parses the JSON wire form. Any shape violation — invalid
// JSON, missing identity fields, oversized initials, unparseable timestamp —
// is reported as [ErrCorruptRecord] so the caller can purge the slot.
func DecodeRecord(data []byte) (*Record, error) {
	var wire recordWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}

	joined, err := time.Parse(time.RFC3339, wire.JoinedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: bad joinedAt: %v", ErrCorruptRecord, err)
	}

	rec := &Record{
		ID:       wire.ID,
		Name:     wire.Name,
		Email:    wire.Email,
		Initials: wire.Initials,
		JoinedAt: joined,
	}
	if err := validateRecord(rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}

	return rec, nil
}

func validateRecord(rec *Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("empty id")
	}
	if strings.TrimSpace(rec.Email) == "" {
		return fmt.Errorf("empty email")
	}
	if strings.TrimSpace(rec.Name) == "" {
		return fmt.Errorf("empty name")
	}
	if utf8.RuneCountInString(rec.Initials) > 2 {
		return fmt.Errorf("initials longer than 2 runes")
	}
	if rec.JoinedAt.IsZero() {
		return fmt.Errorf("zero joinedAt")
	}
	return nil
}
