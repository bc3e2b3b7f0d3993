// Package differ compares the findings of a scan with the last archived scan
// of the same origin.
package differ

import (
	"context"
	"strings"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/aleister1102/jssecretscanner/internal/datastore"
	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/rs/zerolog"
)

// Config controls how findings are matched across scans.
type Config struct {
	CaseSensitive bool
}

// DefaultConfig matches values exactly.
func DefaultConfig() Config {
	return Config{CaseSensitive: true}
}

// StatusCounts holds the number of new, existing and old findings.
type StatusCounts struct {
	New      int `json:"new"`
	Existing int `json:"existing"`
	Old      int `json:"old"`
}

// FindingsDiff is the comparison of one scan with its predecessor.
type FindingsDiff struct {
	Target string
	// PreviousArchive is "" when the origin had no earlier archive.
	PreviousArchive string
	PreviousScanAt  time.Time
	Counts          StatusCounts
	// New lists current findings absent from the previous scan, in catalog order.
	New []models.Finding
	// Old lists previous findings absent from the current scan, in archive order.
	Old []models.Finding
}

// HasBaseline reports whether an earlier scan was found.
func (d *FindingsDiff) HasBaseline() bool {
	return d.PreviousArchive != ""
}

// ArchiveSource lists and loads archived findings.
type ArchiveSource interface {
	Archives(origin models.Origin) ([]string, error)
	Load(ctx context.Context, filePath string) ([]datastore.FindingRecord, error)
}

// FindingsDiffer compares scan results with archived findings.
type FindingsDiffer struct {
	source ArchiveSource
	config Config
	logger zerolog.Logger
}

// NewFindingsDiffer creates a differ reading archives from source.
func NewFindingsDiffer(source ArchiveSource, config Config, logger zerolog.Logger) *FindingsDiffer {
	return &FindingsDiffer{
		source: source,
		config: config,
		logger: logger.With().Str("module", "FindingsDiffer").Logger(),
	}
}

// Differentiate compares result with the newest archive of the same origin
// written before result started.
func (fd *FindingsDiffer) Differentiate(ctx context.Context, result *models.ScanResult) (*FindingsDiff, error) {
	if result == nil {
		return nil, common.NewValidationError("result", nil, "current scan result cannot be nil")
	}

	previous, err := fd.previousArchive(result)
	if err != nil {
		return nil, err
	}

	diff := &FindingsDiff{Target: result.Origin.String()}
	var records []datastore.FindingRecord
	if previous != "" {
		records, err = fd.source.Load(ctx, previous)
		if err != nil {
			return nil, common.WrapError(err, "failed to load previous findings")
		}
		diff.PreviousArchive = previous
		if len(records) > 0 {
			diff.PreviousScanAt = records[0].ScanTime()
		}
	}

	fd.compare(diff, result, records)
	fd.logger.Debug().
		Str("target", diff.Target).
		Str("previous", previous).
		Int("new", diff.Counts.New).
		Int("existing", diff.Counts.Existing).
		Int("old", diff.Counts.Old).
		Msg("Findings compared")
	return diff, nil
}

func (fd *FindingsDiffer) previousArchive(result *models.ScanResult) (string, error) {
	archives, err := fd.source.Archives(result.Origin)
	if err != nil {
		return "", common.WrapError(err, "failed to list archives")
	}
	current := result.StartedAt.UnixMilli()
	previous := ""
	for _, path := range archives {
		// Archives are oldest first; the current scan's own archive is skipped.
		if datastore.ArchiveTimestamp(path) >= current {
			break
		}
		previous = path
	}
	return previous, nil
}

// compare fills the statuses of diff from current and previous findings.
func (fd *FindingsDiffer) compare(diff *FindingsDiff, result *models.ScanResult, previous []datastore.FindingRecord) {
	historical := make(map[string]struct{}, len(previous))
	for _, record := range previous {
		historical[fd.key(record.Category, record.Value)] = struct{}{}
	}

	current := make(map[string]struct{}, result.Summary.TotalFindings)
	result.OrderedFindings(func(category models.Category, findings []models.Finding) {
		for _, finding := range findings {
			key := fd.key(string(category), finding.Value)
			current[key] = struct{}{}
			if _, seen := historical[key]; seen {
				diff.Counts.Existing++
				continue
			}
			diff.Counts.New++
			diff.New = append(diff.New, finding)
		}
	})

	for _, record := range previous {
		if _, seen := current[fd.key(record.Category, record.Value)]; !seen {
			diff.Counts.Old++
			diff.Old = append(diff.Old, record.ToFinding())
		}
	}
}

func (fd *FindingsDiffer) key(category, value string) string {
	if !fd.config.CaseSensitive {
		value = strings.ToLower(value)
	}
	return category + "\x00" + value
}
