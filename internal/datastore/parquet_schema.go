package datastore

import (
	"time"

	"github.com/aleister1102/jssecretscanner/internal/models"
)

// FindingRecord is the Parquet row of one archived finding.
// Timestamps are stored as UnixMilli.
type FindingRecord struct {
	Target        string   `parquet:"target,dict"`
	ScanTimestamp int64    `parquet:"scan_timestamp"`
	Category      string   `parquet:"category,dict"`
	Value         string   `parquet:"value"`
	Severity      string   `parquet:"severity,dict"`
	RuleID        string   `parquet:"rule_id,dict"`
	Sources       []string `parquet:"sources,list"`
	MinDepth      int32    `parquet:"min_depth"`
}

// ToFindingRecords flattens the findings of result in catalog order.
func ToFindingRecords(result *models.ScanResult) []FindingRecord {
	records := make([]FindingRecord, 0, result.Summary.TotalFindings)
	target := result.Origin.String()
	scanTime := result.StartedAt.UnixMilli()

	result.OrderedFindings(func(category models.Category, findings []models.Finding) {
		for _, finding := range findings {
			records = append(records, FindingRecord{
				Target:        target,
				ScanTimestamp: scanTime,
				Category:      string(category),
				Value:         finding.Value,
				Severity:      string(finding.Severity),
				RuleID:        finding.RuleID,
				Sources:       finding.RefURLs(),
				MinDepth:      minDepth(finding.Refs),
			})
		}
	})
	return records
}

func minDepth(refs []models.ResourceRef) int32 {
	if len(refs) == 0 {
		return 0
	}
	depth := refs[0].Depth
	for _, ref := range refs[1:] {
		if ref.Depth < depth {
			depth = ref.Depth
		}
	}
	return int32(depth)
}

// ScanTime returns the scan start time of the record.
func (r FindingRecord) ScanTime() time.Time {
	return time.UnixMilli(r.ScanTimestamp)
}

// ToFinding rebuilds a models.Finding. Only the source URLs of the refs survive.
func (r FindingRecord) ToFinding() models.Finding {
	refs := make([]models.ResourceRef, 0, len(r.Sources))
	for _, source := range r.Sources {
		refs = append(refs, models.ResourceRef{URL: source})
	}
	return models.Finding{
		Category: models.Category(r.Category),
		Value:    r.Value,
		Severity: models.Severity(r.Severity),
		RuleID:   r.RuleID,
		Refs:     refs,
	}
}
