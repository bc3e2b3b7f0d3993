package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/models"
)

// FormatWriter renders a scan result into one file format.
type FormatWriter interface {
	Extension() string
	Render(result *models.ScanResult) ([]byte, error)
}

type jsonMetadata struct {
	Target             string            `json:"target"`
	StartedAt          time.Time         `json:"started_at"`
	FinishedAt         time.Time         `json:"finished_at"`
	ExecutionTimeMs    int64             `json:"execution_time_ms"`
	Success            bool              `json:"success"`
	ResourcesAttempted int               `json:"resources_attempted"`
	ResourcesSucceeded int               `json:"resources_succeeded"`
	Categories         []models.Category `json:"categories"`
}

type jsonFinding struct {
	Value    string          `json:"value"`
	Severity models.Severity `json:"severity"`
	RuleID   string          `json:"rule_id"`
	Sources  []string        `json:"sources"`
}

type jsonReport struct {
	Metadata  jsonMetadata                      `json:"metadata"`
	Findings  map[models.Category][]jsonFinding `json:"findings"`
	Summary   models.Summary                    `json:"summary"`
	Resources []models.ResourceOutcome          `json:"resources,omitempty"`
}

// JSONWriter writes metadata, findings keyed by category, and the summary.
type JSONWriter struct {
	IncludeResources bool
}

// Extension implements FormatWriter.
func (JSONWriter) Extension() string { return "json" }

// Render implements FormatWriter.
func (w JSONWriter) Render(result *models.ScanResult) ([]byte, error) {
	report := jsonReport{
		Metadata: jsonMetadata{
			Target:             result.Origin.String(),
			StartedAt:          result.StartedAt,
			FinishedAt:         result.FinishedAt,
			ExecutionTimeMs:    result.ExecutionTime.Milliseconds(),
			Success:            result.Success,
			ResourcesAttempted: result.ResourcesAttempted,
			ResourcesSucceeded: result.ResourcesSucceeded,
			Categories:         result.Categories,
		},
		Findings: make(map[models.Category][]jsonFinding),
		Summary:  result.Summary,
	}
	if report.Metadata.Categories == nil {
		report.Metadata.Categories = []models.Category{}
	}
	result.OrderedFindings(func(category models.Category, findings []models.Finding) {
		for _, finding := range findings {
			report.Findings[category] = append(report.Findings[category], jsonFinding{
				Value:    finding.Value,
				Severity: finding.Severity,
				RuleID:   finding.RuleID,
				Sources:  finding.RefURLs(),
			})
		}
	})
	if w.IncludeResources {
		report.Resources = result.Resources
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return append(data, '\n'), nil
}

// CSVWriter writes one row per finding.
type CSVWriter struct{}

// Extension implements FormatWriter.
func (CSVWriter) Extension() string { return "csv" }

// Render implements FormatWriter.
func (CSVWriter) Render(result *models.ScanResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"category", "severity", "value", "rule_id", "source_count", "sources"}); err != nil {
		return nil, err
	}

	var writeErr error
	result.OrderedFindings(func(category models.Category, findings []models.Finding) {
		for _, finding := range findings {
			if writeErr != nil {
				return
			}
			writeErr = w.Write([]string{
				string(category),
				string(finding.Severity),
				csvCell(finding.Value),
				csvCell(finding.RuleID),
				strconv.Itoa(len(finding.Refs)),
				csvCell(strings.Join(finding.RefURLs(), " ")),
			})
		}
	})
	if writeErr != nil {
		return nil, fmt.Errorf("failed to write CSV row: %w", writeErr)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV report: %w", err)
	}
	return buf.Bytes(), nil
}

// csvCell prefixes cells a spreadsheet would evaluate as a formula.
func csvCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

// TextWriter writes a human-readable report.
type TextWriter struct {
	IncludeResources bool
}

// Extension implements FormatWriter.
func (TextWriter) Extension() string { return "txt" }

// Render implements FormatWriter.
func (w TextWriter) Render(result *models.ScanResult) ([]byte, error) {
	var buf bytes.Buffer
	summary := result.Summary

	fmt.Fprintf(&buf, "JS Secret Scan Report\n")
	fmt.Fprintf(&buf, "Target:     %s\n", result.Origin.String())
	fmt.Fprintf(&buf, "Started:    %s\n", result.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&buf, "Duration:   %s\n", result.ExecutionTime.Round(time.Millisecond))
	fmt.Fprintf(&buf, "Resources:  %d/%d succeeded\n", result.ResourcesSucceeded, result.ResourcesAttempted)
	fmt.Fprintf(&buf, "Findings:   %d in %d categories (high risk: %d)\n",
		summary.TotalFindings, summary.CategoriesHit, summary.HighRiskCount)

	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	result.OrderedFindings(func(category models.Category, findings []models.Finding) {
		fmt.Fprintf(tw, "\n[%s] (%d)\n", category, len(findings))
		for _, finding := range findings {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", finding.Severity, finding.Value, strings.Join(finding.RefURLs(), ", "))
		}
	})
	if err := tw.Flush(); err != nil {
		return nil, err
	}

	if w.IncludeResources && len(result.Resources) > 0 {
		fmt.Fprintf(&buf, "\nResources\n")
		tw = tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
		for _, resource := range result.Resources {
			status := string(resource.Outcome.Status)
			if resource.Outcome.StatusCode != 0 && !resource.Outcome.Succeeded() {
				status = fmt.Sprintf("%s %d", status, resource.Outcome.StatusCode)
			}
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", resource.Ref.Order, resource.Ref.Source, status, resource.Ref.URL)
		}
		if err := tw.Flush(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
