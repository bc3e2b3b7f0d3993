package reporter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/nao1215/markdown"
)

const markdownValueWidth = 80

// MarkdownWriter writes a GitHub-flavored Markdown report: a summary table,
// a severity alert and one findings table per category.
type MarkdownWriter struct {
	IncludeResources bool
}

// Extension implements FormatWriter.
func (MarkdownWriter) Extension() string { return "md" }

// Render implements FormatWriter.
func (w MarkdownWriter) Render(result *models.ScanResult) ([]byte, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.H1("JS Secret Scan Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + result.Origin.String() + "`"},
			{"Started", result.StartedAt.Format(time.RFC3339)},
			{"Duration", result.ExecutionTime.Round(time.Millisecond).String()},
			{"Resources", fmt.Sprintf("%d/%d succeeded", result.ResourcesSucceeded, result.ResourcesAttempted)},
		},
	})
	md.PlainText("")

	writeSeveritySummary(md, result.Summary)
	writeFindingTables(md, result)
	if w.IncludeResources && len(result.Resources) > 0 {
		writeResourceTable(md, result.Resources)
	}

	if err := md.Build(); err != nil {
		return nil, fmt.Errorf("failed to build Markdown report: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSeveritySummary(md *markdown.Markdown, summary models.Summary) {
	md.H2("Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(models.Severities)+1)
	for _, severity := range models.Severities {
		rows = append(rows, []string{string(severity), strconv.Itoa(summary.BySeverity[severity])})
	}
	rows = append(rows, []string{"**total**", "**" + strconv.Itoa(summary.TotalFindings) + "**"})
	md.Table(markdown.TableSet{Header: []string{"Severity", "Count"}, Rows: rows})
	md.PlainText("")

	critical := summary.BySeverity[models.SeverityCritical]
	switch {
	case critical > 0:
		md.Cautionf("%d critical finding(s) expose live credentials.", critical)
	case summary.HighRiskCount > 0:
		md.Warningf("%d high severity finding(s) need review.", summary.HighRiskCount)
	case summary.TotalFindings > 0:
		md.Note("Only medium and low severity findings.")
	default:
		md.Tip("No findings.")
	}
	md.PlainText("")
}

func writeFindingTables(md *markdown.Markdown, result *models.ScanResult) {
	md.H2("Findings")
	md.PlainText("")
	if result.Summary.TotalFindings == 0 {
		md.PlainText("No findings.")
		md.PlainText("")
		return
	}

	result.OrderedFindings(func(category models.Category, findings []models.Finding) {
		md.PlainText(fmt.Sprintf("### %s (%d)", category, len(findings)))
		md.PlainText("")
		rows := make([][]string, 0, len(findings))
		for _, finding := range findings {
			rows = append(rows, []string{
				string(finding.Severity),
				markdownCode(finding.Value),
				finding.RuleID,
				markdownCell(strings.Join(finding.RefURLs(), "<br>")),
			})
		}
		md.Table(markdown.TableSet{Header: []string{"Severity", "Value", "Rule", "Sources"}, Rows: rows})
		md.PlainText("")
	})
}

func writeResourceTable(md *markdown.Markdown, resources []models.ResourceOutcome) {
	md.H2("Resources")
	md.PlainText("")
	rows := make([][]string, 0, len(resources))
	for _, resource := range resources {
		code := "-"
		if resource.Outcome.StatusCode != 0 {
			code = strconv.Itoa(resource.Outcome.StatusCode)
		}
		rows = append(rows, []string{
			strconv.Itoa(resource.Ref.Order),
			string(resource.Ref.Source),
			string(resource.Outcome.Status),
			code,
			markdownCell(resource.Ref.URL),
		})
	}
	md.Table(markdown.TableSet{Header: []string{"#", "Source", "Status", "Code", "URL"}, Rows: rows})
	md.PlainText("")
}

// markdownCode renders value as inline code, truncated to markdownValueWidth.
func markdownCode(value string) string {
	if len(value) > markdownValueWidth {
		value = value[:markdownValueWidth] + "..."
	}
	return "`" + markdownCell(strings.ReplaceAll(value, "`", "'")) + "`"
}

func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
