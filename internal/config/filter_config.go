package config

// QualityThresholds are the stage 15 score minimums per severity.
type QualityThresholds struct {
	Critical float64 `json:"critical" yaml:"critical" validate:"gte=0,lte=1"`
	High     float64 `json:"high" yaml:"high" validate:"gte=0,lte=1"`
	Medium   float64 `json:"medium" yaml:"medium" validate:"gte=0,lte=1"`
	Low      float64 `json:"low" yaml:"low" validate:"gte=0,lte=1"`
}

// ScoreWeights weight the length, uniqueness and entropy terms of the score.
type ScoreWeights struct {
	Length     float64 `json:"length" yaml:"length" validate:"gte=0"`
	Uniqueness float64 `json:"uniqueness" yaml:"uniqueness" validate:"gte=0"`
	Entropy    float64 `json:"entropy" yaml:"entropy" validate:"gte=0"`
}

// FilterConfig tunes the filter chain and the deduplicator
type FilterConfig struct {
	MaxBracketRatio     float64           `json:"max_bracket_ratio" yaml:"max_bracket_ratio" validate:"gt=0,lte=1"`
	MaxWhitespaceRatio  float64           `json:"max_whitespace_ratio" yaml:"max_whitespace_ratio" validate:"gt=0,lte=1"`
	MinUniqueRatio      float64           `json:"min_unique_ratio" yaml:"min_unique_ratio" validate:"gte=0,lte=1"`
	MaxRunRatio         float64           `json:"max_run_ratio" yaml:"max_run_ratio" validate:"gt=0,lte=1"`
	MinAscendingRun     int               `json:"min_ascending_run" yaml:"min_ascending_run" validate:"min=3"`
	CriticalMinLength   int               `json:"critical_min_length" yaml:"critical_min_length" validate:"min=0"`
	HighMinLength       int               `json:"high_min_length" yaml:"high_min_length" validate:"min=0"`
	Quality             QualityThresholds `json:"quality" yaml:"quality"`
	Weights             ScoreWeights      `json:"weights" yaml:"weights"`
	LengthTarget        float64           `json:"length_target" yaml:"length_target" validate:"gt=0"`
	UniqueTarget        float64           `json:"unique_target" yaml:"unique_target" validate:"gt=0,lte=1"`
	SimilarityThreshold float64           `json:"similarity_threshold" yaml:"similarity_threshold" validate:"gt=0,lte=1"`
}

// NewDefaultFilterConfig creates default filter configuration
func NewDefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MaxBracketRatio:    0.3,
		MaxWhitespaceRatio: 0.4,
		MinUniqueRatio:     0.3,
		MaxRunRatio:        0.5,
		MinAscendingRun:    5,
		CriticalMinLength:  8,
		HighMinLength:      5,
		Quality: QualityThresholds{
			Critical: 0.85,
			High:     0.75,
			Medium:   0.6,
			Low:      0.4,
		},
		Weights: ScoreWeights{
			Length:     0.4,
			Uniqueness: 0.3,
			Entropy:    0.3,
		},
		LengthTarget:        1.25,
		UniqueTarget:        0.5,
		SimilarityThreshold: DefaultFilterSimilarityThreshold,
	}
}
