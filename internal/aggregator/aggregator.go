// Package aggregator merges accepted decisions from every resource into
// ordered, near-duplicate-free findings.
package aggregator

import (
	"sort"
	"sync"

	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/aleister1102/jssecretscanner/internal/patterns"
	"github.com/rs/zerolog"
)

// Result is the aggregated output of a scan.
type Result struct {
	Categories []models.Category
	Findings   map[models.Category][]models.Finding
	Summary    models.Summary
}

// Aggregator collects decisions concurrently and orders them only at
// Finalize, so output is independent of fetch completion order.
type Aggregator struct {
	mu         sync.Mutex
	catalog    *patterns.Catalog
	similarity *Similarity
	decisions  []models.Decision
	rejected   map[string]int
	logger     zerolog.Logger
}

// New creates an aggregator for findings of catalog.
func New(catalog *patterns.Catalog, similarityThreshold float64, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		catalog:    catalog,
		similarity: NewSimilarity(similarityThreshold),
		rejected:   make(map[string]int),
		logger:     logger.With().Str("component", "Aggregator").Logger(),
	}
}

// Add records accepted decisions. Rejected decisions are ignored.
func (a *Aggregator) Add(decisions ...models.Decision) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, d := range decisions {
		if d.Accepted {
			a.decisions = append(a.decisions, d)
		}
	}
}

// AddRejections adds per-stage rejection counts.
func (a *Aggregator) AddRejections(counts map[string]int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for stage, n := range counts {
		a.rejected[stage] += n
	}
}

// Finalize sorts decisions by (resource order, segment, offset, category,
// rule) and merges near-duplicates per category. The first-seen value is the
// representative; severity is the highest merged one and refs are unioned.
func (a *Aggregator) Finalize() Result {
	a.mu.Lock()
	decisions := append([]models.Decision(nil), a.decisions...)
	rejected := make(map[string]int, len(a.rejected))
	for k, v := range a.rejected {
		rejected[k] = v
	}
	a.mu.Unlock()

	categoryIndex := make(map[models.Category]int)
	for i, name := range a.catalog.Names() {
		categoryIndex[name] = i
	}

	sort.SliceStable(decisions, func(i, j int) bool {
		x, y := decisions[i].Match, decisions[j].Match
		switch {
		case x.Ref.Order != y.Ref.Order:
			return x.Ref.Order < y.Ref.Order
		case x.Segment != y.Segment:
			return x.Segment < y.Segment
		case x.Offset != y.Offset:
			return x.Offset < y.Offset
		case categoryIndex[x.Category] != categoryIndex[y.Category]:
			return categoryIndex[x.Category] < categoryIndex[y.Category]
		case x.RuleIndex != y.RuleIndex:
			return x.RuleIndex < y.RuleIndex
		default:
			return x.Value < y.Value
		}
	})

	findings := make(map[models.Category][]models.Finding)
	for _, d := range decisions {
		a.merge(findings, d.Match)
	}

	result := Result{Findings: findings}
	for _, name := range a.catalog.Names() {
		if len(findings[name]) > 0 {
			result.Categories = append(result.Categories, name)
		}
	}

	result.Summary = a.summarize(result, rejected)
	a.logger.Debug().
		Int("decisions", len(decisions)).
		Int("findings", result.Summary.TotalFindings).
		Msg("Findings aggregated")
	return result
}

func (a *Aggregator) merge(findings map[models.Category][]models.Finding, m models.RawMatch) {
	category, _ := a.catalog.Category(m.Category)
	queryInsensitive := category.PathLike || category.URLLike

	existing := findings[m.Category]
	for i := range existing {
		if !a.similarity.Near(existing[i].Value, m.Value, queryInsensitive) {
			continue
		}
		if m.Severity.Rank() > existing[i].Severity.Rank() {
			existing[i].Severity = m.Severity
		}
		existing[i].AddRef(m.Ref)
		return
	}

	findings[m.Category] = append(existing, models.Finding{
		Category: m.Category,
		Value:    m.Value,
		Severity: m.Severity,
		RuleID:   m.RuleID,
		Refs:     []models.ResourceRef{m.Ref},
	})
}

func (a *Aggregator) summarize(result Result, rejected map[string]int) models.Summary {
	summary := models.Summary{
		CategoriesHit: len(result.Categories),
		BySeverity: map[models.Severity]int{
			models.SeverityCritical: 0,
			models.SeverityHigh:     0,
			models.SeverityMedium:   0,
			models.SeverityLow:      0,
		},
		RejectedByStage: rejected,
	}
	for _, name := range result.Categories {
		n := len(result.Findings[name])
		summary.TotalFindings += n
		summary.BySeverity[a.catalog.Tier(name)] += n
	}
	summary.HighRiskCount = summary.BySeverity[models.SeverityCritical] + summary.BySeverity[models.SeverityHigh]
	return summary
}
