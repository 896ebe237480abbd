package tableapi

import (
	"fmt"
	"strings"
)

// TypeHint tells the filter builder and the decoder how to read an
// otherwise untyped field.
type TypeHint int

const (
	HintNone TypeHint = iota
	HintBoolean
	HintDate
	HintInteger
	HintListString
)

func (h TypeHint) String() string {
	switch h {
	case HintBoolean:
		return "boolean"
	case HintDate:
		return "date"
	case HintInteger:
		return "integer"
	case HintListString:
		return "list_string"
	}
	return "none"
}

// ParseTypeHint accepts the names used in configuration files.
func ParseTypeHint(s string) (TypeHint, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "boolean", "bool":
		return HintBoolean, nil
	case "date", "datetime", "timestamp":
		return HintDate, nil
	case "integer", "int":
		return HintInteger, nil
	case "list_string", "liststring", "list":
		return HintListString, nil
	}
	return HintNone, fmt.Errorf("tableapi: unknown type hint %q", s)
}

// UnmarshalText lets hints be decoded straight from YAML/TOML/JSON.
func (h *TypeHint) UnmarshalText(text []byte) error {
	v, err := ParseTypeHint(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

func (h TypeHint) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// FieldHints maps field name to hint for a single table.
type FieldHints map[string]TypeHint

// Hint returns the hint for field, HintNone when absent.
func (f FieldHints) Hint(field string) TypeHint {
	if f == nil {
		return HintNone
	}
	return f[field]
}

// TypeHints maps table name to its field hints. It is built once from
// configuration and only read afterwards.
type TypeHints map[string]FieldHints

// For returns the hints of a table (nil when none are configured).
func (t TypeHints) For(table string) FieldHints {
	if t == nil {
		return nil
	}
	return t[table]
}
