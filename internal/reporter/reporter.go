// Package reporter writes scan results to disk as JSON, CSV, text or Markdown
// reports.
package reporter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/aleister1102/jssecretscanner/internal/config"
	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/aleister1102/jssecretscanner/internal/urlhandler"
	"github.com/rs/zerolog"
)

const (
	// FilePermissions is the mode of written report files
	FilePermissions = 0644
	// TimestampLayout formats the scan start time in report file names
	TimestampLayout = "20060102_150405"
)

// Reporter renders a ScanResult in one or more formats under the configured
// output directory.
type Reporter struct {
	cfg     config.ReporterConfig
	files   *common.FileManager
	writers map[string]FormatWriter
	logger  zerolog.Logger
}

// NewReporter creates a reporter with a writer per save format.
func NewReporter(cfg config.ReporterConfig, logger zerolog.Logger) *Reporter {
	moduleLogger := logger.With().Str("module", "Reporter").Logger()
	if cfg.OutputDir == "" {
		cfg.OutputDir = config.DefaultReporterOutputDir
	}
	return &Reporter{
		cfg:   cfg,
		files: common.NewFileManager(moduleLogger),
		writers: map[string]FormatWriter{
			config.SaveFormatJSON: JSONWriter{IncludeResources: cfg.IncludeResources},
			config.SaveFormatCSV:  CSVWriter{},
			config.SaveFormatTXT:  TextWriter{IncludeResources: cfg.IncludeResources},

			config.SaveFormatMarkdown: MarkdownWriter{IncludeResources: cfg.IncludeResources},
		},
		logger: moduleLogger,
	}
}

// Formats expands a save format into the concrete formats to write. "none"
// and "" yield nothing; "all" yields json, csv and txt.
func Formats(saveFormat string) ([]string, error) {
	switch format := strings.ToLower(strings.TrimSpace(saveFormat)); format {
	case "", config.SaveFormatNone:
		return nil, nil
	case config.SaveFormatAll:
		return []string{config.SaveFormatJSON, config.SaveFormatCSV, config.SaveFormatTXT}, nil
	case config.SaveFormatJSON, config.SaveFormatCSV, config.SaveFormatTXT, config.SaveFormatMarkdown:
		return []string{format}, nil
	default:
		return nil, common.NewValidationError("save_format", saveFormat, "unsupported save format")
	}
}

// FileName is "<host>_<timestamp>.<ext>" for result.
func FileName(result *models.ScanResult, ext string) string {
	return fmt.Sprintf("%s_%s.%s",
		urlhandler.SanitizeFilename(result.Origin.Host),
		result.StartedAt.Format(TimestampLayout),
		ext)
}

// Write renders result in saveFormat and returns the written paths.
func (r *Reporter) Write(result *models.ScanResult, saveFormat string) ([]string, error) {
	if result == nil {
		return nil, common.NewValidationError("result", nil, "no scan result to report")
	}
	formats, err := Formats(saveFormat)
	if err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		return nil, nil
	}
	if result.Summary.TotalFindings == 0 && !r.cfg.GenerateEmptyReport {
		r.logger.Info().Str("origin", result.Origin.String()).Msg("No findings, skipping report generation")
		return nil, nil
	}

	var paths []string
	var errs common.ErrorCollector
	for _, format := range formats {
		writer := r.writers[format]
		data, err := writer.Render(result)
		if err != nil {
			errs.AddWithContext(err, fmt.Sprintf("failed to render %s report", format))
			continue
		}

		path := filepath.Join(r.cfg.OutputDir, FileName(result, writer.Extension()))
		opts := common.FileWriteOptions{CreateDirs: true, Permissions: FilePermissions}
		if err := r.files.WriteFile(path, data, opts); err != nil {
			errs.AddWithContext(err, fmt.Sprintf("failed to write %s report", format))
			continue
		}
		r.logger.Info().Str("format", format).Str("path", path).Msg("Report written")
		paths = append(paths, path)
	}
	return paths, errs.Error()
}
