package config

// ReporterConfig defines where and how scan reports are written
type ReporterConfig struct {
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty" validate:"omitempty,notfile"`
	// IncludeResources adds the per-resource fetch outcomes to JSON and text reports.
	IncludeResources bool `json:"include_resources" yaml:"include_resources"`
	// GenerateEmptyReport writes a report even when nothing was found.
	GenerateEmptyReport bool `json:"generate_empty_report" yaml:"generate_empty_report"`
}

// NewDefaultReporterConfig creates default reporter configuration
func NewDefaultReporterConfig() ReporterConfig {
	return ReporterConfig{
		OutputDir:           DefaultReporterOutputDir,
		IncludeResources:    true,
		GenerateEmptyReport: true,
	}
}
