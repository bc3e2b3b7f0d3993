package engine

import (
	"unicode/utf8"

	"github.com/aleister1102/jssecretscanner/internal/entropy"
	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/aleister1102/jssecretscanner/internal/patterns"
	"github.com/rs/zerolog"
)

// ExternalRuleIndex marks a RawMatch produced by a Matcher instead of a
// catalog rule. Such matches are held to Thresholds.ExternalMinLength.
const ExternalRuleIndex = -1

type compiledCategory struct {
	patterns.Category
	denylist     entropy.Set
	ruleExcludes map[string]entropy.Set
	validator    Validator
}

// Chain runs raw matches through the ordered filter stages. It is immutable
// after construction and safe for concurrent use.
type Chain struct {
	categories  map[models.Category]*compiledCategory
	thresholds  Thresholds
	postFilters []PostFilter
	logger      zerolog.Logger
}

// NewChain prepares the filter chain for a catalog. Unknown validator names
// disable the validator stage for that category.
func NewChain(catalog *patterns.Catalog, thresholds Thresholds, logger zerolog.Logger, postFilters ...PostFilter) *Chain {
	c := &Chain{
		categories:  make(map[models.Category]*compiledCategory),
		thresholds:  thresholds,
		postFilters: postFilters,
		logger:      logger.With().Str("component", "FilterChain").Logger(),
	}
	for _, category := range catalog.Categories() {
		cc := &compiledCategory{
			Category:     category,
			denylist:     entropy.NewSet(category.Denylist...),
			ruleExcludes: make(map[string]entropy.Set),
		}
		for _, rule := range category.Rules {
			if len(rule.Exclude) > 0 {
				cc.ruleExcludes[rule.ID] = entropy.NewSet(rule.Exclude...)
			}
		}
		if category.Validator != "" {
			fn, ok := LookupValidator(category.Validator)
			if !ok {
				c.logger.Warn().
					Str("category", string(category.Name)).
					Str("validator", category.Validator).
					Msg("Unknown validator, skipping validation for category")
			}
			cc.validator = fn
		}
		c.categories[category.Name] = cc
	}
	return c
}

// Thresholds returns the chain's thresholds.
func (c *Chain) Thresholds() Thresholds {
	return c.thresholds
}

// Evaluate runs every stage in order and stops at the first rejection.
func (c *Chain) Evaluate(match models.RawMatch, origin models.Origin) models.Decision {
	decision := models.Decision{Match: match}

	category, ok := c.categories[match.Category]
	rule := c.ruleFor(category, ok, match)
	if rule == nil {
		decision.Stage = 1
		decision.Reason = "unknown category or rule"
		return decision
	}

	cand := &candidate{
		value:    match.Value,
		length:   utf8.RuneCountInString(match.Value),
		rule:     rule,
		category: category,
		t:        &c.thresholds,
	}

	for i, stage := range stages {
		if reason := stage(cand); reason != "" {
			decision.Stage = i + 1
			decision.Reason = reason
			c.logReject(decision)
			return decision
		}
	}

	for _, filter := range c.postFilters {
		if !filter.Accept(match.Value, match.Category, origin) {
			decision.Stage = StagePostFilter
			decision.Reason = "rejected by post-filter"
			c.logReject(decision)
			return decision
		}
	}

	decision.Accepted = true
	decision.Stage = models.StageAccepted
	return decision
}

func (c *Chain) ruleFor(category *compiledCategory, known bool, match models.RawMatch) *patterns.Rule {
	switch {
	case !known:
		return nil
	case match.RuleIndex == ExternalRuleIndex:
		if _, ok := c.thresholds.Quality[match.Severity]; !ok {
			return nil
		}
		return &patterns.Rule{ID: match.RuleID, MinLength: c.thresholds.ExternalMinLength, Severity: match.Severity}
	case match.RuleIndex >= 0 && match.RuleIndex < len(category.Rules):
		return &category.Rules[match.RuleIndex]
	default:
		return nil
	}
}

func (c *Chain) logReject(d models.Decision) {
	c.logger.Debug().
		Str("category", string(d.Match.Category)).
		Str("rule", d.Match.RuleID).
		Str("stage", StageName(d.Stage)).
		Str("reason", d.Reason).
		Str("resource", d.Match.Ref.URL).
		Msg("Match rejected")
}
