package patterns

import (
	"fmt"
	"regexp"

	"github.com/aleister1102/jssecretscanner/internal/models"
)

// Rule is one regex of a category. The first non-empty capture group is the
// matched value; without groups the whole match is used.
type Rule struct {
	ID            string          `json:"id" yaml:"id"`
	Description   string          `json:"description,omitempty" yaml:"description,omitempty"`
	Pattern       string          `json:"pattern" yaml:"pattern"`
	MinLength     int             `json:"min_length" yaml:"min_length"`
	Severity      models.Severity `json:"severity" yaml:"severity"`
	Exclude       []string        `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	CaseSensitive bool            `json:"case_sensitive,omitempty" yaml:"case_sensitive,omitempty"`

	compiled *regexp.Regexp
}

// Regexp returns the compiled pattern; nil before compile.
func (r *Rule) Regexp() *regexp.Regexp {
	return r.compiled
}

func (r *Rule) compile() error {
	if r.Pattern == "" {
		return fmt.Errorf("rule %q has an empty pattern", r.ID)
	}
	if sev, ok := models.ParseSeverity(string(r.Severity)); ok {
		r.Severity = sev
	} else {
		return fmt.Errorf("rule %q has unknown severity %q", r.ID, r.Severity)
	}
	if r.MinLength < 1 {
		r.MinLength = 1
	}
	pattern := r.Pattern
	if !r.CaseSensitive {
		pattern = "(?im)" + pattern
	} else {
		pattern = "(?m)" + pattern
	}
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("rule %q: %w", r.ID, err)
	}
	r.compiled = compiled
	return nil
}
