// Package secretscanner adds the gitleaks rule set as an extra source of
// secret matches. Its matches go through the same filter chain as catalog
// matches.
package secretscanner

import (
	"strings"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/aleister1102/jssecretscanner/internal/engine"
	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/rs/zerolog"
	"github.com/zricethezav/gitleaks/v8/detect"
	"github.com/zricethezav/gitleaks/v8/report"
)

const (
	// RuleIDPrefix marks rule ids that come from gitleaks.
	RuleIDPrefix = "gitleaks:"

	secretsCategory models.Category = "secrets"
	valueCutset                     = " \t\r\n\"'`"
)

// Detector runs the default gitleaks configuration over decoded segments.
// It is safe for concurrent use.
type Detector struct {
	detector *detect.Detector
	category models.Category
	severity models.Severity
	logger   zerolog.Logger
}

// NewDetector loads the default gitleaks rules. maxFileSizeMB bounds the
// content gitleaks accepts; 0 keeps its default.
func NewDetector(maxFileSizeMB int, logger zerolog.Logger) (*Detector, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, common.WrapError(err, "failed to load gitleaks rules")
	}
	if maxFileSizeMB > 0 {
		detector.MaxTargetMegaBytes = maxFileSizeMB
	}
	d := &Detector{
		detector: detector,
		category: secretsCategory,
		severity: models.SeverityCritical,
		logger:   logger.With().Str("component", "GitleaksDetector").Logger(),
	}
	d.logger.Debug().Int("rules", len(detector.Config.Rules)).Msg("Gitleaks rules loaded")
	return d, nil
}

var _ engine.Matcher = (*Detector)(nil)

// Match reports every gitleaks finding of content as a secrets match.
func (d *Detector) Match(content models.FetchedContent) []models.RawMatch {
	var matches []models.RawMatch
	for _, segment := range content.Segments {
		for _, finding := range d.detector.DetectBytes([]byte(segment.Text)) {
			value := strings.Trim(finding.Secret, valueCutset)
			if value == "" {
				continue
			}
			matches = append(matches, models.RawMatch{
				Category:  d.category,
				Value:     value,
				Offset:    offsetOf(segment, finding),
				Segment:   segment.Index,
				Ref:       content.Ref,
				RuleID:    RuleIDPrefix + strings.ToLower(finding.RuleID),
				RuleIndex: engine.ExternalRuleIndex,
				Severity:  d.severity,
			})
		}
	}
	if len(matches) > 0 {
		d.logger.Debug().Str("resource", content.Ref.URL).Int("matches", len(matches)).Msg("Gitleaks matches")
	}
	return matches
}

// offsetOf locates the secret in segment 0; side segments report the offset
// of their encoded source run.
func offsetOf(segment models.Segment, finding report.Finding) int {
	if segment.Index > 0 {
		return segment.Offset
	}
	if i := strings.Index(segment.Text, finding.Secret); i >= 0 {
		return i
	}
	return 0
}
