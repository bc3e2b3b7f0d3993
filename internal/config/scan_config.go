package config

import "time"

// ScanConfig holds the per-scan options
type ScanConfig struct {
	MaxResources  int     `json:"max_resources" yaml:"max_resources" validate:"min=1"`
	Timeout       float64 `json:"timeout" yaml:"timeout" validate:"gt=0"` // seconds, per request
	MaxWorkers    int     `json:"max_workers" yaml:"max_workers" validate:"min=1,max=256"`
	MaxDepth      int     `json:"max_depth" yaml:"max_depth" validate:"min=1"`
	MaxFileSizeMB int     `json:"max_file_size_mb" yaml:"max_file_size_mb" validate:"min=1"`
	// SaveFormat is advisory: Scan never writes, the CLI hands the result to the reporter.
	SaveFormat         string   `json:"save_format,omitempty" yaml:"save_format,omitempty" validate:"omitempty,saveformat"`
	IncludeCategories  []string `json:"include_categories,omitempty" yaml:"include_categories,omitempty" validate:"omitempty,dive,category"`
	ExcludeDomains     []string `json:"exclude_domains,omitempty" yaml:"exclude_domains,omitempty" validate:"omitempty,dive,required"`
	AllowedDomains     []string `json:"allowed_domains,omitempty" yaml:"allowed_domains,omitempty" validate:"omitempty,dive,required"`
	ExcludeURLPatterns []string `json:"exclude_url_patterns,omitempty" yaml:"exclude_url_patterns,omitempty" validate:"omitempty,dive,regexp"`
	ExcludeThirdParty  bool     `json:"exclude_third_party" yaml:"exclude_third_party"`
	// MinEntropy overrides every entropy-gated category floor when > 0.
	MinEntropy      float64 `json:"min_entropy,omitempty" yaml:"min_entropy,omitempty" validate:"gte=0,lte=8"`
	VerifyTLS       bool    `json:"verify_tls" yaml:"verify_tls"`
	UserAgent       string  `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	MaxRetries      int     `json:"max_retries" yaml:"max_retries" validate:"min=0,max=10"`
	Base64MinLength int     `json:"base64_min_length" yaml:"base64_min_length" validate:"min=8"`
	SameSiteOnly    bool    `json:"same_site_only" yaml:"same_site_only"`
	PatternsFile    string  `json:"patterns_file,omitempty" yaml:"patterns_file,omitempty" validate:"omitempty,fileexists"`
	// Gitleaks adds the gitleaks default rule set to the secrets category.
	Gitleaks       bool `json:"gitleaks" yaml:"gitleaks"`
	SkipHTMLBodies bool `json:"skip_html_bodies" yaml:"skip_html_bodies"`
}

// NewDefaultScanConfig creates default scan configuration
func NewDefaultScanConfig() ScanConfig {
	return ScanConfig{
		MaxResources:      DefaultScanMaxResources,
		Timeout:           DefaultScanTimeoutSecs,
		MaxWorkers:        DefaultScanMaxWorkers,
		MaxDepth:          DefaultScanMaxDepth,
		MaxFileSizeMB:     DefaultScanMaxFileSizeMB,
		SaveFormat:        DefaultScanSaveFormat,
		ExcludeThirdParty: DefaultScanExcludeThirdParty,
		UserAgent:         DefaultScanUserAgent,
		MaxRetries:        DefaultScanMaxRetries,
		Base64MinLength:   DefaultScanBase64MinLength,
		SkipHTMLBodies:    DefaultScanSkipHTMLBodies,
	}
}

// RequestTimeout converts Timeout to a duration.
func (c ScanConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout * float64(time.Second))
}

// MaxFileSizeBytes converts MaxFileSizeMB to bytes.
func (c ScanConfig) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}
