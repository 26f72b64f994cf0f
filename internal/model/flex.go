package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a loosely typed numeric field from the registry API. JSON
// numbers and strings holding a finite number decode to a valid Number;
// null, empty strings, NaN, infinities and anything unparseable decode to an
// invalid one. Decoding
// never fails so a single bad field cannot drop a whole record.
type Number struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
	} else {
		s = string(b)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns the value as a pointer, nil when invalid.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// NewNumber returns a valid Number.
func NewNumber(v float64) Number {
	return Number{Value: v, Valid: true}
}

// Text is a loosely typed scalar field: strings, numbers and booleans all
// decode to their textual form. Objects and arrays decode as invalid.
type Text struct {
	Value string
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(b []byte) error {
	*t = Text{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*t = Text{Value: s, Valid: true}
	case '{', '[':
		return nil
	default:
		*t = Text{Value: string(b), Valid: true}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// Ptr returns the text as a pointer, nil when invalid or empty.
func (t Text) Ptr() *string {
	if !t.Valid || t.Value == "" {
		return nil
	}
	v := t.Value
	return &v
}

// String returns the text, or "" when invalid.
func (t Text) String() string {
	if !t.Valid {
		return ""
	}
	return t.Value
}

// NewText returns a valid Text.
func NewText(s string) Text {
	return Text{Value: s, Valid: true}
}

// StringList decodes either a single string or an array of scalars.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(b []byte) error {
	*l = nil
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '[' {
		var items []Text
		if err := json.Unmarshal(b, &items); err != nil {
			return nil
		}
		out := make(StringList, 0, len(items))
		for _, it := range items {
			if it.Valid && it.Value != "" {
				out = append(out, it.Value)
			}
		}
		*l = out
		return nil
	}
	var single Text
	if err := json.Unmarshal(b, &single); err != nil || !single.Valid || single.Value == "" {
		return nil
	}
	*l = StringList{single.Value}
	return nil
}
