// Package facet implements the carrier and band facet filters, the base
// attribute filters and the availability calculation that drives which
// facet options are enabled.
package facet

import "sort"

// Selection is a set of facet keys where the empty set means "all".
// The zero value is an empty selection.
type Selection struct {
	keys map[string]struct{}
}

// NewSelection returns a selection holding keys.
func NewSelection(keys ...string) Selection {
	s := Selection{}
	for _, k := range keys {
		s.add(k)
	}
	return s
}

func (s *Selection) add(key string) {
	if s.keys == nil {
		s.keys = make(map[string]struct{})
	}
	s.keys[key] = struct{}{}
}

// Toggle applies a click on key. From "all" it selects only key; otherwise
// it adds or removes key. Removing the last key returns to "all".
func (s *Selection) Toggle(key string) {
	if _, ok := s.keys[key]; ok {
		delete(s.keys, key)
		return
	}
	s.add(key)
}

// Has reports whether key is explicitly selected.
func (s Selection) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Allows reports whether a record with key passes the selection.
func (s Selection) Allows(key string) bool {
	return len(s.keys) == 0 || s.Has(key)
}

// All reports whether the selection is in "all" mode.
func (s Selection) All() bool { return len(s.keys) == 0 }

// Len returns the number of explicitly selected keys.
func (s Selection) Len() int { return len(s.keys) }

// Keys returns the selected keys sorted.
func (s Selection) Keys() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s Selection) Clone() Selection {
	return NewSelection(s.Keys()...)
}
