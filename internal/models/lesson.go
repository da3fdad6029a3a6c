package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mazznoer/csscolorparser"
)

// Color wraps a parsed CSS color and serialises as a hex string.
type Color struct {
	csscolorparser.Color
}

// ParseColor parses any CSS color literal (the upstream sends "#rrggbb").
func ParseColor(s string) (Color, error) {
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return Color{}, err
	}
	return Color{c}, nil
}

// MarshalJSON emits the color as "#rrggbb" (or "#rrggbbaa" when translucent).
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.HexString())
}

// UnmarshalJSON parses a CSS color literal.
func (c *Color) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := csscolorparser.Parse(raw)
	if err != nil {
		return err
	}
	c.Color = parsed
	return nil
}

// Lesson is a single occurrence of a scheduled lesson, localised to UTC.
type Lesson struct {
	ID       uuid.UUID `json:"id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Course   *string   `json:"course"`
	Teacher  *string   `json:"teacher"`
	Location *string   `json:"location"`
	Color    *Color    `json:"color"`
}
