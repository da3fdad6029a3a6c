package models

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LinkID is an unguessable 32-byte share-link capability, hex-serialised.
type LinkID [32]byte

// NewLinkID draws a fresh id from the process CSPRNG.
func NewLinkID() (LinkID, error) {
	var id LinkID
	if _, err := rand.Read(id[:]); err != nil {
		return LinkID{}, err
	}
	return id, nil
}

// ParseLinkID decodes a 64-character hex id.
func ParseLinkID(s string) (LinkID, error) {
	var id LinkID
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return LinkID{}, err
	}
	if len(decoded) != len(id) {
		return LinkID{}, fmt.Errorf("link id must be %d bytes, got %d", len(id), len(decoded))
	}
	copy(id[:], decoded)
	return id, nil
}

func (id LinkID) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalJSON serialises the id as hex.
func (id LinkID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON parses a hex id.
func (id *LinkID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseLinkID(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value implements driver.Valuer for the BYTEA column.
func (id LinkID) Value() (driver.Value, error) {
	return id[:], nil
}

// Scan implements sql.Scanner for the BYTEA column.
func (id *LinkID) Scan(src interface{}) error {
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into LinkID", src)
	}
	if len(raw) != len(id) {
		return fmt.Errorf("link id must be %d bytes, got %d", len(id), len(raw))
	}
	copy(id[:], raw)
	return nil
}

const dateLayout = "2006-01-02"

// DateRange is an inclusive civil date range; a nil bound is unbounded. It
// maps to a Postgres DATERANGE column.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// Contains reports whether the date part of d lies within the range.
func (r DateRange) Contains(d time.Time) bool {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	if r.Start != nil && day.Before(truncateDate(*r.Start)) {
		return false
	}
	if r.End != nil && day.After(truncateDate(*r.End)) {
		return false
	}
	return true
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Value encodes the range in the canonical half-open DATERANGE form; the
// inclusive end date becomes an exclusive bound one day later.
func (r DateRange) Value() (driver.Value, error) {
	if r.Start != nil && r.End != nil && truncateDate(*r.End).Before(truncateDate(*r.Start)) {
		return nil, fmt.Errorf("date range end %s before start %s", r.End.Format(dateLayout), r.Start.Format(dateLayout))
	}

	var b strings.Builder
	b.WriteByte('[')
	if r.Start != nil {
		b.WriteString(truncateDate(*r.Start).Format(dateLayout))
	}
	b.WriteByte(',')
	if r.End != nil {
		b.WriteString(truncateDate(*r.End).AddDate(0, 0, 1).Format(dateLayout))
	}
	b.WriteByte(')')
	return b.String(), nil
}

// Scan parses the DATERANGE text representation.
func (r *DateRange) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into DateRange", src)
	}

	if raw == "empty" {
		// degenerate range; no real date satisfies Contains
		zero := time.Time{}
		r.Start = &zero
		r.End = &zero
		return nil
	}

	if len(raw) < 3 {
		return fmt.Errorf("malformed date range %q", raw)
	}

	lowerInclusive := raw[0] == '['
	upperInclusive := raw[len(raw)-1] == ']'
	parts := strings.SplitN(raw[1:len(raw)-1], ",", 2)
	if len(parts) != 2 {
		return fmt.Errorf("malformed date range %q", raw)
	}

	r.Start, r.End = nil, nil

	if s := strings.Trim(parts[0], `"`); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return fmt.Errorf("malformed range start %q: %w", s, err)
		}
		if !lowerInclusive {
			t = t.AddDate(0, 0, 1)
		}
		r.Start = &t
	}

	if s := strings.Trim(parts[1], `"`); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return fmt.Errorf("malformed range end %q: %w", s, err)
		}
		if !upperInclusive {
			t = t.AddDate(0, 0, -1)
		}
		r.End = &t
	}

	return nil
}

// Options restrict what a share link grants.
type Options struct {
	ExpiresAt *time.Time `json:"expires_at"`
	Range     DateRange  `json:"range"`
}

// Link is a revocable read-only capability bound to its owner's session.
type Link struct {
	ID       LinkID     `json:"id"`
	Owner    uuid.UUID  `json:"-"`
	Options  Options    `json:"options"`
	LastUsed *time.Time `json:"last_used"`
}
