package engine

import (
	"math"
	"unicode/utf8"

	"github.com/aleister1102/jssecretscanner/internal/entropy"
)

// QualityScore is the stage 15 signal in [0, 1]:
//
//	score = wL*L + wU*U + wE*E
//	L = min(1, len / (LengthTarget * rule min length))
//	U = min(1, unique ratio / UniqueTarget)
//	E = min(1, entropy / category expected entropy)
//
// Weights are normalized so that they sum to one.
func QualityScore(value string, minLength int, expectedEntropy float64, t Thresholds) float64 {
	w := t.Weights
	total := w.Length + w.Uniqueness + w.Entropy
	if total <= 0 {
		return 1
	}

	target := t.LengthTarget * float64(max(minLength, 1))
	l := capped(float64(utf8.RuneCountInString(value)), target)
	u := capped(entropy.UniqueRatio(value), t.UniqueTarget)
	e := capped(entropy.Shannon(value), expectedEntropy)

	return (w.Length*l + w.Uniqueness*u + w.Entropy*e) / total
}

func capped(v, target float64) float64 {
	if target <= 0 {
		return 1
	}
	return math.Min(1, v/target)
}
