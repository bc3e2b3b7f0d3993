package engine

import "github.com/aleister1102/jssecretscanner/internal/models"

// ScoreWeights weight the three terms of the final quality score.
type ScoreWeights struct {
	Length     float64 `json:"length" yaml:"length"`
	Uniqueness float64 `json:"uniqueness" yaml:"uniqueness"`
	Entropy    float64 `json:"entropy" yaml:"entropy"`
}

// Thresholds holds every tunable of the filter chain. Raising a minimum or
// lowering a maximum never accepts more matches.
type Thresholds struct {
	MaxBracketRatio    float64
	MaxWhitespaceRatio float64
	// MinEntropy overrides the per-category entropy floor when > 0.
	MinEntropy      float64
	MinUniqueRatio  float64
	MaxRunRatio     float64
	MinAscendingRun int

	ShortValueLength int
	ShortMinLength   int
	ShortMinEntropy  float64

	MinSingleSegmentPathLength int
	// ExternalMinLength is the rule minimum length applied to Matcher results.
	ExternalMinLength int

	SeverityMinLength map[models.Severity]int
	Quality           map[models.Severity]float64
	Weights           ScoreWeights
	// LengthTarget is the multiple of a rule's min length that earns the full length term.
	LengthTarget float64
	// UniqueTarget is the unique-character ratio that earns the full uniqueness term.
	UniqueTarget float64
}

// DefaultThresholds returns the stock filter configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxBracketRatio:            0.3,
		MaxWhitespaceRatio:         0.4,
		MinUniqueRatio:             0.3,
		MaxRunRatio:                0.5,
		MinAscendingRun:            5,
		ShortValueLength:           8,
		ShortMinLength:             6,
		ShortMinEntropy:            2.0,
		MinSingleSegmentPathLength: 8,
		ExternalMinLength:          8,
		SeverityMinLength: map[models.Severity]int{
			models.SeverityCritical: 8,
			models.SeverityHigh:     5,
		},
		Quality: map[models.Severity]float64{
			models.SeverityCritical: 0.85,
			models.SeverityHigh:     0.75,
			models.SeverityMedium:   0.6,
			models.SeverityLow:      0.4,
		},
		Weights: ScoreWeights{
			Length:     0.4,
			Uniqueness: 0.3,
			Entropy:    0.3,
		},
		LengthTarget: 1.25,
		UniqueTarget: 0.5,
	}
}
