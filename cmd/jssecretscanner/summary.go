package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/differ"
	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	defaultSummaryTop = 5
	maxValueWidth     = 96
)

type summaryOptions struct {
	Top     int
	NoColor bool
	// Diff is printed when set.
	Diff *differ.FindingsDiff
}

type palette struct {
	title    func(a ...interface{}) string
	label    func(a ...interface{}) string
	dim      func(a ...interface{}) string
	ok       func(a ...interface{}) string
	warn     func(a ...interface{}) string
	alert    func(a ...interface{}) string
	severity map[models.Severity]func(a ...interface{}) string
}

func newPalette(noColor bool) palette {
	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if noColor {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		title: mk(color.FgWhite, color.Bold),
		label: mk(color.FgCyan),
		dim:   mk(color.Faint),
		ok:    mk(color.FgGreen),
		warn:  mk(color.FgYellow),
		alert: mk(color.FgRed, color.Bold),
		severity: map[models.Severity]func(a ...interface{}) string{
			models.SeverityCritical: mk(color.FgRed, color.Bold),
			models.SeverityHigh:     mk(color.FgRed),
			models.SeverityMedium:   mk(color.FgYellow),
			models.SeverityLow:      mk(color.FgBlue),
		},
	}
}

// isTerminal reports whether w is a terminal. Buffers and pipes get plain text.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p palette) sev(s models.Severity) string {
	if fn, ok := p.severity[s]; ok {
		return fn(string(s))
	}
	return string(s)
}

// printSummary writes the human summary of a scan to w.
func printSummary(w io.Writer, result *models.ScanResult, reportPaths []string, opts summaryOptions) {
	p := newPalette(opts.NoColor || !isTerminal(w))
	summary := result.Summary

	fmt.Fprintf(w, "%s %s\n", p.title("Scan of"), p.title(result.Origin.String()))
	fmt.Fprintf(w, "%s %d/%d fetched", p.label("Resources:"), result.ResourcesSucceeded, result.ResourcesAttempted)
	if failed := result.ResourcesAttempted - result.ResourcesSucceeded; failed > 0 {
		fmt.Fprintf(w, " %s", p.warn(fmt.Sprintf("(%d failed)", failed)))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", p.label("Duration: "), result.ExecutionTime.Round(time.Millisecond))

	if summary.TotalFindings == 0 {
		fmt.Fprintf(w, "%s %s\n", p.label("Findings: "), p.ok("none"))
	} else {
		fmt.Fprintf(w, "%s %d in %d categories", p.label("Findings: "), summary.TotalFindings, summary.CategoriesHit)
		if summary.HighRiskCount > 0 {
			fmt.Fprintf(w, ", %s", p.alert(fmt.Sprintf("%d high risk", summary.HighRiskCount)))
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", p.label("Severity: "), severityLine(p, summary.BySeverity))
	}

	if opts.Diff != nil {
		fmt.Fprintf(w, "%s %s\n", p.label("Previous: "), diffLine(p, opts.Diff))
	}

	if opts.Top > 0 {
		result.OrderedFindings(func(category models.Category, findings []models.Finding) {
			fmt.Fprintf(w, "\n%s %s\n", p.title("["+string(category)+"]"), p.dim(fmt.Sprintf("(%d)", len(findings))))
			for i, finding := range findings {
				if i == opts.Top {
					fmt.Fprintf(w, "  %s\n", p.dim(fmt.Sprintf("... %d more", len(findings)-opts.Top)))
					break
				}
				fmt.Fprintf(w, "  %-8s  %s  %s\n",
					p.sev(finding.Severity),
					truncateValue(finding.Value),
					p.dim(sourcesNote(finding.Refs)))
			}
		})
	}

	if len(reportPaths) > 0 {
		fmt.Fprintf(w, "\n%s\n", p.label("Reports:"))
		for _, path := range reportPaths {
			fmt.Fprintf(w, "  %s\n", path)
		}
	}
}

func diffLine(p palette, diff *differ.FindingsDiff) string {
	if !diff.HasBaseline() {
		return p.dim("no earlier scan archived")
	}
	line := fmt.Sprintf("%d new, %d unchanged, %d gone since %s",
		diff.Counts.New, diff.Counts.Existing, diff.Counts.Old,
		diff.PreviousScanAt.Local().Format(time.DateTime))
	if diff.Counts.New > 0 {
		return p.warn(line)
	}
	return line
}

func severityLine(p palette, counts map[models.Severity]int) string {
	var parts []string
	for _, s := range []models.Severity{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", p.sev(s), n))
		}
	}
	return strings.Join(parts, ", ")
}

func sourcesNote(refs []models.ResourceRef) string {
	switch len(refs) {
	case 0:
		return ""
	case 1:
		return refs[0].URL
	default:
		return fmt.Sprintf("%s (+%d more)", refs[0].URL, len(refs)-1)
	}
}

func truncateValue(value string) string {
	value = strings.Join(strings.Fields(value), " ")
	if r := []rune(value); len(r) > maxValueWidth {
		return string(r[:maxValueWidth-3]) + "..."
	}
	return value
}
