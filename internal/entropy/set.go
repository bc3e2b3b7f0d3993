package entropy

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Fold case-folds and trims s; it is the normalization shared by set
// membership and deduplication.
func Fold(s string) string {
	return folder.String(strings.TrimSpace(s))
}

// Set is a case-insensitive membership list used for denylists and allowlists.
type Set struct {
	items map[string]struct{}
}

// NewSet builds a Set from values.
func NewSet(values ...string) Set {
	s := Set{items: make(map[string]struct{}, len(values))}
	for _, v := range values {
		s.items[Fold(v)] = struct{}{}
	}
	return s
}

// Contains reports whether value is in the set after folding.
func (s Set) Contains(value string) bool {
	if len(s.items) == 0 {
		return false
	}
	_, ok := s.items[Fold(value)]
	return ok
}

// Len returns the number of distinct entries.
func (s Set) Len() int {
	return len(s.items)
}

// Union returns a new set holding the entries of s and values.
func (s Set) Union(values ...string) Set {
	out := Set{items: make(map[string]struct{}, len(s.items)+len(values))}
	for k := range s.items {
		out.items[k] = struct{}{}
	}
	for _, v := range values {
		out.items[Fold(v)] = struct{}{}
	}
	return out
}
