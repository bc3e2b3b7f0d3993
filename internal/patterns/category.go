package patterns

import "github.com/aleister1102/jssecretscanner/internal/models"

// Category groups rules with the per-category knobs the filter chain reads.
type Category struct {
	Name models.Category `json:"name" yaml:"name"`
	// Tier is the fixed severity used for summary counts.
	Tier models.Severity `json:"tier" yaml:"tier"`
	// MaxSymbolRatio bounds the share of non-alphanumeric characters.
	MaxSymbolRatio float64 `json:"max_symbol_ratio" yaml:"max_symbol_ratio"`
	// MinEntropy gates high-randomness categories; 0 disables the gate.
	MinEntropy float64 `json:"min_entropy,omitempty" yaml:"min_entropy,omitempty"`
	// ExpectedEntropy normalizes the entropy term of the quality score.
	ExpectedEntropy float64 `json:"expected_entropy" yaml:"expected_entropy"`
	// Validator names a structural check registered with the engine.
	Validator string `json:"validator,omitempty" yaml:"validator,omitempty"`
	// PathLike enables path-format validation and query-insensitive dedupe.
	PathLike bool `json:"path_like,omitempty" yaml:"path_like,omitempty"`
	// URLLike enables query-insensitive dedupe.
	URLLike bool `json:"url_like,omitempty" yaml:"url_like,omitempty"`
	// Numeric values are made of digits and skip the bare-number code check.
	Numeric  bool     `json:"numeric,omitempty" yaml:"numeric,omitempty"`
	Denylist []string `json:"denylist,omitempty" yaml:"denylist,omitempty"`
	Rules    []Rule   `json:"rules" yaml:"rules"`
}

func (c *Category) applyDefaults() {
	if !c.Tier.Valid() {
		c.Tier = models.SeverityLow
	}
	if c.MaxSymbolRatio <= 0 {
		c.MaxSymbolRatio = DefaultMaxSymbolRatio
	}
	if c.ExpectedEntropy <= 0 {
		c.ExpectedEntropy = DefaultExpectedEntropy
	}
}

func (c Category) clone() Category {
	out := c
	out.Denylist = append([]string(nil), c.Denylist...)
	out.Rules = append([]Rule(nil), c.Rules...)
	return out
}
