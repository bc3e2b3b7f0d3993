package models

import "time"

// Summary holds the aggregate counts of a scan.
type Summary struct {
	TotalFindings   int              `json:"total_findings"`
	CategoriesHit   int              `json:"categories_hit"`
	BySeverity      map[Severity]int `json:"by_severity"`
	HighRiskCount   int              `json:"high_risk_count"`
	RejectedByStage map[string]int   `json:"rejected_by_stage,omitempty"`
}

// ScanResult is the sole object handed to report writers and stores.
type ScanResult struct {
	Origin             Origin            `json:"origin"`
	StartedAt          time.Time         `json:"started_at"`
	FinishedAt         time.Time         `json:"finished_at"`
	ExecutionTime      time.Duration     `json:"execution_time"`
	Success            bool              `json:"success"`
	Resources          []ResourceOutcome `json:"resources"`
	ResourcesAttempted int               `json:"resources_attempted"`
	ResourcesSucceeded int               `json:"resources_succeeded"`
	// Categories lists the keys of Findings in catalog order.
	Categories []Category             `json:"categories"`
	Findings   map[Category][]Finding `json:"findings"`
	Summary    Summary                `json:"summary"`
}

// OrderedFindings walks findings in catalog category order.
func (r *ScanResult) OrderedFindings(fn func(category Category, findings []Finding)) {
	for _, category := range r.Categories {
		if findings := r.Findings[category]; len(findings) > 0 {
			fn(category, findings)
		}
	}
}
