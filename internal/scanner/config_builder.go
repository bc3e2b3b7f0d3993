package scanner

import (
	"fmt"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/config"
	"github.com/aleister1102/jssecretscanner/internal/decoder"
	"github.com/aleister1102/jssecretscanner/internal/discovery"
	"github.com/aleister1102/jssecretscanner/internal/engine"
	"github.com/aleister1102/jssecretscanner/internal/fetcher"
	"github.com/aleister1102/jssecretscanner/internal/httpclient"
	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/aleister1102/jssecretscanner/internal/patterns"
	"github.com/aleister1102/jssecretscanner/internal/rslimiter"
	"github.com/rs/zerolog"
)

// ConfigBuilder translates the global configuration into the settings of
// each scan component.
type ConfigBuilder struct {
	globalConfig *config.GlobalConfig
	logger       zerolog.Logger
}

// NewConfigBuilder creates a new configuration builder
func NewConfigBuilder(globalConfig *config.GlobalConfig, logger zerolog.Logger) *ConfigBuilder {
	return &ConfigBuilder{
		globalConfig: globalConfig,
		logger:       logger.With().Str("module", "ConfigBuilder").Logger(),
	}
}

// BuildHTTPClientConfig creates the shared client configuration
func (cb *ConfigBuilder) BuildHTTPClientConfig() httpclient.HTTPClientConfig {
	scanCfg := cb.globalConfig.ScanConfig
	httpCfg := cb.globalConfig.HTTPConfig

	clientCfg := httpclient.DefaultHTTPClientConfig()
	clientCfg.Timeout = scanCfg.RequestTimeout()
	clientCfg.InsecureSkipVerify = !scanCfg.VerifyTLS
	clientCfg.MaxContentSize = scanCfg.MaxFileSizeBytes()
	if scanCfg.UserAgent != "" {
		clientCfg.UserAgent = scanCfg.UserAgent
	}
	if scanCfg.MaxWorkers > clientCfg.MaxIdleConnsPerHost {
		clientCfg.MaxIdleConnsPerHost = scanCfg.MaxWorkers
	}

	clientCfg.FollowRedirects = httpCfg.FollowRedirects
	if httpCfg.MaxRedirects > 0 {
		clientCfg.MaxRedirects = httpCfg.MaxRedirects
	}
	clientCfg.Proxy = httpCfg.Proxy
	clientCfg.EnableHTTP2 = httpCfg.EnableHTTP2
	for key, value := range httpCfg.CustomHeaders {
		clientCfg.CustomHeaders[key] = value
	}

	clientCfg.Retry.MaxRetries = scanCfg.MaxRetries
	if httpCfg.RetryBaseDelayMs > 0 {
		clientCfg.Retry.BaseDelay = time.Duration(httpCfg.RetryBaseDelayMs) * time.Millisecond
	}
	if httpCfg.RetryMaxDelayMs > 0 {
		clientCfg.Retry.MaxDelay = time.Duration(httpCfg.RetryMaxDelayMs) * time.Millisecond
	}
	clientCfg.Retry.EnableJitter = httpCfg.RetryJitter
	return clientCfg
}

// BuildThresholds creates the filter chain thresholds
func (cb *ConfigBuilder) BuildThresholds() engine.Thresholds {
	filterCfg := cb.globalConfig.FilterConfig

	thresholds := engine.DefaultThresholds()
	thresholds.MaxBracketRatio = filterCfg.MaxBracketRatio
	thresholds.MaxWhitespaceRatio = filterCfg.MaxWhitespaceRatio
	thresholds.MinEntropy = cb.globalConfig.ScanConfig.MinEntropy
	thresholds.MinUniqueRatio = filterCfg.MinUniqueRatio
	thresholds.MaxRunRatio = filterCfg.MaxRunRatio
	thresholds.MinAscendingRun = filterCfg.MinAscendingRun
	thresholds.SeverityMinLength = map[models.Severity]int{
		models.SeverityCritical: filterCfg.CriticalMinLength,
		models.SeverityHigh:     filterCfg.HighMinLength,
	}
	thresholds.Quality = map[models.Severity]float64{
		models.SeverityCritical: filterCfg.Quality.Critical,
		models.SeverityHigh:     filterCfg.Quality.High,
		models.SeverityMedium:   filterCfg.Quality.Medium,
		models.SeverityLow:      filterCfg.Quality.Low,
	}
	thresholds.Weights = engine.ScoreWeights{
		Length:     filterCfg.Weights.Length,
		Uniqueness: filterCfg.Weights.Uniqueness,
		Entropy:    filterCfg.Weights.Entropy,
	}
	thresholds.LengthTarget = filterCfg.LengthTarget
	thresholds.UniqueTarget = filterCfg.UniqueTarget
	return thresholds
}

// BuildDecoderOptions creates the content decoder options
func (cb *ConfigBuilder) BuildDecoderOptions() decoder.Options {
	opts := decoder.DefaultOptions()
	opts.Base64MinLength = cb.globalConfig.ScanConfig.Base64MinLength
	return opts
}

// BuildScopeSettings creates the discovery scope
func (cb *ConfigBuilder) BuildScopeSettings() discovery.ScopeSettings {
	scanCfg := cb.globalConfig.ScanConfig
	return discovery.ScopeSettings{
		AllowedDomains:     scanCfg.AllowedDomains,
		ExcludeDomains:     scanCfg.ExcludeDomains,
		ExcludeThirdParty:  scanCfg.ExcludeThirdParty,
		ExcludeURLPatterns: scanCfg.ExcludeURLPatterns,
	}
}

// BuildPoolConfig sizes the fetch pool
func (cb *ConfigBuilder) BuildPoolConfig() fetcher.Config {
	scanCfg := cb.globalConfig.ScanConfig
	return fetcher.Config{
		Workers:  scanCfg.MaxWorkers,
		Timeout:  scanCfg.RequestTimeout(),
		MaxDepth: scanCfg.MaxDepth,

		SkipHTMLBodies: scanCfg.SkipHTMLBodies,
	}
}

// BuildLimiterConfig creates the memory guard configuration
func (cb *ConfigBuilder) BuildLimiterConfig() rslimiter.ResourceLimiterConfig {
	limiterCfg := cb.globalConfig.ResourceLimiterConfig
	return rslimiter.ResourceLimiterConfig{
		Enabled:            limiterCfg.Enabled,
		MaxMemoryMB:        limiterCfg.MaxMemoryMB,
		SystemMemThreshold: limiterCfg.SystemMemThreshold,
		SampleInterval:     time.Duration(limiterCfg.SampleIntervalSecs) * time.Second,
	}
}

// BuildCatalog layers the custom patterns file over base and restricts it to
// the included categories. Unknown included categories are an error.
func (cb *ConfigBuilder) BuildCatalog(base *patterns.Catalog) (*patterns.Catalog, error) {
	scanCfg := cb.globalConfig.ScanConfig
	catalog := base
	if scanCfg.PatternsFile != "" {
		extended, err := catalog.LoadFile(scanCfg.PatternsFile)
		if err != nil {
			return nil, err
		}
		cb.logger.Info().
			Str("patterns_file", scanCfg.PatternsFile).
			Int("rules", extended.RuleCount()).
			Msg("Custom patterns loaded")
		catalog = extended
	}

	if len(scanCfg.IncludeCategories) == 0 {
		return catalog, nil
	}
	names := make([]models.Category, 0, len(scanCfg.IncludeCategories))
	for _, name := range scanCfg.IncludeCategories {
		category := models.Category(name)
		if !catalog.Has(category) {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		names = append(names, category)
	}
	return catalog.Only(names...), nil
}
