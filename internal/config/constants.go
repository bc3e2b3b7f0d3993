package config

const (
	// Scan Defaults
	DefaultScanMaxResources      = 50
	DefaultScanTimeoutSecs       = 20
	DefaultScanMaxWorkers        = 8
	DefaultScanMaxDepth          = 3
	DefaultScanMaxFileSizeMB     = 10
	DefaultScanSaveFormat        = SaveFormatNone
	DefaultScanExcludeThirdParty = true
	DefaultScanMaxRetries        = 2
	DefaultScanBase64MinLength   = 24
	DefaultScanSkipHTMLBodies    = true
	DefaultScanUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// HTTP Defaults
	DefaultHTTPMaxRedirects   = 10
	DefaultHTTPRetryBaseDelay = 200 // milliseconds
	DefaultHTTPRetryMaxDelay  = 2000

	// Filter Defaults
	DefaultFilterSimilarityThreshold = 0.9

	// Reporter Defaults
	DefaultReporterOutputDir = "reports"

	// Storage Defaults
	DefaultStorageCompressionCodec = "zstd"

	// Resource Limiter Defaults
	DefaultLimiterMaxMemoryMB        = 1024
	DefaultLimiterSystemMemThreshold = 0.9
	DefaultLimiterSampleIntervalSecs = 1

	// AppName names the per-user config directory.
	AppName       = "jssecretscanner"
	// EnvConfigPath names the environment variable consulted by GetConfigPath.
	EnvConfigPath = "JSSECRETSCANNER_CONFIG_PATH"
)

// Save formats accepted by scan_config.save_format.
const (
	SaveFormatNone = "none"
	SaveFormatJSON = "json"
	SaveFormatCSV  = "csv"
	SaveFormatTXT  = "txt"
	SaveFormatAll  = "all"

	// SaveFormatMarkdown is not part of "all".
	SaveFormatMarkdown = "md"
)

// SaveFormats lists the accepted save formats.
var SaveFormats = []string{SaveFormatNone, SaveFormatJSON, SaveFormatCSV, SaveFormatTXT, SaveFormatMarkdown, SaveFormatAll}
