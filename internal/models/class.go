package models

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"lukechampine.com/blake3"
)

// System tags the upstream a school identifier originates from. The tag byte
// is part of the hash input, so values must never be reordered.
type System byte

const (
	SystemSkolplattformen System = 0
)

// SchoolHash is a 32-byte BLAKE3 digest identifying a school independently of
// upstream naming: blake3(system_tag_byte || unit_guid_bytes).
type SchoolHash [32]byte

// NewSchoolHash derives the stable school identifier.
func NewSchoolHash(system System, reference []byte) SchoolHash {
	h := blake3.New(32, nil)
	_, _ = h.Write([]byte{byte(system)})
	_, _ = h.Write(reference)

	var out SchoolHash
	copy(out[:], h.Sum(nil))
	return out
}

// MarshalJSON serialises the hash as lowercase hex.
func (s SchoolHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(s[:]))
}

// UnmarshalJSON parses a lowercase hex digest.
func (s *SchoolHash) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return err
	}
	if len(decoded) != len(s) {
		return fmt.Errorf("school hash must be %d bytes, got %d", len(s), len(decoded))
	}
	copy(s[:], decoded)
	return nil
}

// Value implements driver.Valuer for the BYTEA column.
func (s SchoolHash) Value() (driver.Value, error) {
	return s[:], nil
}

// Scan implements sql.Scanner for the BYTEA column.
func (s *SchoolHash) Scan(src interface{}) error {
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into SchoolHash", src)
	}
	if len(raw) != len(s) {
		return fmt.Errorf("school hash must be %d bytes, got %d", len(s), len(raw))
	}
	copy(s[:], raw)
	return nil
}

// Class is a school class as registered by its members.
type Class struct {
	School    SchoolHash `db:"school" json:"school"`
	Reference string     `db:"reference" json:"reference"`
	Name      string     `db:"name" json:"name"`
}
