// Package engine applies the pattern catalog to decoded content and runs
// every raw match through the quality filter chain.
package engine

import (
	"strings"

	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/aleister1102/jssecretscanner/internal/patterns"
	"github.com/rs/zerolog"
)

const valueCutset = " \t\r\n\"'`"

// Analysis is the engine's verdict for one resource.
type Analysis struct {
	Accepted []models.Decision
	// Rejected counts rejections by stage name.
	Rejected map[string]int
}

// Engine matches and filters. It holds no per-scan state and is safe for
// concurrent use by fetch workers.
type Engine struct {
	catalog  *patterns.Catalog
	chain    *Chain
	matchers []Matcher
	logger   zerolog.Logger
}

// Matcher is an additional source of raw matches, such as an external rule
// set. Its matches carry ExternalRuleIndex and a category of the catalog.
type Matcher interface {
	Match(content models.FetchedContent) []models.RawMatch
}

// New builds an engine over catalog.
func New(catalog *patterns.Catalog, thresholds Thresholds, logger zerolog.Logger, postFilters ...PostFilter) *Engine {
	return &Engine{
		catalog: catalog,
		chain:   NewChain(catalog, thresholds, logger, postFilters...),
		logger:  logger.With().Str("component", "Engine").Logger(),
	}
}

// WithMatchers returns a copy of e that also runs matchers on every resource.
func (e *Engine) WithMatchers(matchers ...Matcher) *Engine {
	clone := *e
	clone.matchers = append(append([]Matcher(nil), e.matchers...), matchers...)
	return &clone
}

// Chain returns the engine's filter chain.
func (e *Engine) Chain() *Chain {
	return e.chain
}

// Match applies every rule of every category to every segment. Matches are
// returned in segment, category and rule order, then by position.
func (e *Engine) Match(content models.FetchedContent) []models.RawMatch {
	var matches []models.RawMatch
	for _, segment := range content.Segments {
		for _, category := range e.catalog.Categories() {
			for ruleIndex := range category.Rules {
				rule := &category.Rules[ruleIndex]
				re := rule.Regexp()
				if re == nil {
					continue
				}
				for _, loc := range re.FindAllStringSubmatchIndex(segment.Text, -1) {
					value, start := capture(segment.Text, loc)
					if value == "" {
						continue
					}
					offset := start
					if segment.Index > 0 {
						offset = segment.Offset
					}
					matches = append(matches, models.RawMatch{
						Category:  category.Name,
						Value:     value,
						Offset:    offset,
						Segment:   segment.Index,
						Ref:       content.Ref,
						RuleID:    rule.ID,
						RuleIndex: ruleIndex,
						Severity:  rule.Severity,
					})
				}
			}
		}
	}
	return matches
}

// capture returns the first non-empty group (or the whole match) trimmed of
// whitespace and quotes, with its byte offset.
func capture(text string, loc []int) (string, int) {
	start, end := loc[0], loc[1]
	for g := 2; g+1 < len(loc); g += 2 {
		if loc[g] >= 0 && loc[g+1] > loc[g] {
			start, end = loc[g], loc[g+1]
			break
		}
	}
	raw := text[start:end]
	trimmedLeft := strings.TrimLeft(raw, valueCutset)
	start += len(raw) - len(trimmedLeft)
	return strings.TrimRight(trimmedLeft, valueCutset), start
}

// Analyze matches content and evaluates every match.
func (e *Engine) Analyze(content models.FetchedContent, origin models.Origin) Analysis {
	analysis := Analysis{Rejected: make(map[string]int)}
	matches := e.Match(content)
	for _, matcher := range e.matchers {
		matches = append(matches, matcher.Match(content)...)
	}
	for _, match := range matches {
		decision := e.chain.Evaluate(match, origin)
		if decision.Accepted {
			analysis.Accepted = append(analysis.Accepted, decision)
			continue
		}
		analysis.Rejected[StageName(decision.Stage)]++
	}

	e.logger.Debug().
		Str("resource", content.Ref.URL).
		Int("segments", len(content.Segments)).
		Int("accepted", len(analysis.Accepted)).
		Msg("Resource analyzed")
	return analysis
}
