package aggregator

import (
	"strings"
	"unicode/utf8"

	"github.com/aleister1102/jssecretscanner/internal/entropy"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultSimilarityThreshold is the minimum ratio at which two values of a
// category are the same finding.
const DefaultSimilarityThreshold = 0.9

// Similarity compares normalized values by edit distance:
// 1 - levenshtein(a, b) / max(len(a), len(b)).
type Similarity struct {
	dmp       *diffmatchpatch.DiffMatchPatch
	threshold float64
}

// NewSimilarity creates a comparer; a threshold <= 0 uses the default.
func NewSimilarity(threshold float64) *Similarity {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Similarity{dmp: dmp, threshold: threshold}
}

// Ratio returns the edit-distance similarity of two strings in [0, 1].
func (s *Similarity) Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	diffs := s.dmp.DiffMain(a, b, false)
	return 1 - float64(s.dmp.DiffLevenshtein(diffs))/float64(longest)
}

// Near reports whether two raw values are the same finding. Values are
// compared after case folding; queryInsensitive also compares the part
// before '?'.
func (s *Similarity) Near(a, b string, queryInsensitive bool) bool {
	na, nb := entropy.Fold(a), entropy.Fold(b)
	if na == nb {
		return true
	}
	if queryInsensitive && stripQuery(na) == stripQuery(nb) {
		return true
	}

	la, lb := utf8.RuneCountInString(na), utf8.RuneCountInString(nb)
	shortest, longest := min(la, lb), max(la, lb)
	if longest == 0 || float64(shortest)/float64(longest) < s.threshold {
		// the length gap alone exceeds the allowed edit distance
		return false
	}
	return s.Ratio(na, nb) >= s.threshold
}

func stripQuery(v string) string {
	if i := strings.IndexByte(v, '?'); i >= 0 {
		return v[:i]
	}
	return v
}
