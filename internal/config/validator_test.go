package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	tempDir := t.TempDir()
	patternsFile := filepath.Join(tempDir, "patterns.yaml")
	require.NoError(t, os.WriteFile(patternsFile, []byte("categories: []\n"), 0644))
	regularFile := filepath.Join(tempDir, "not-a-dir")
	require.NoError(t, os.WriteFile(regularFile, []byte("x"), 0644))

	tests := []struct {
		name    string
		mutate  func(cfg *GlobalConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(cfg *GlobalConfig) {}},
		{name: "zero max resources", mutate: func(cfg *GlobalConfig) { cfg.ScanConfig.MaxResources = 0 }, wantErr: "scan_config.max_resources"},
		{name: "zero workers", mutate: func(cfg *GlobalConfig) { cfg.ScanConfig.MaxWorkers = 0 }, wantErr: "scan_config.max_workers"},
		{name: "zero timeout", mutate: func(cfg *GlobalConfig) { cfg.ScanConfig.Timeout = 0 }, wantErr: "scan_config.timeout"},
		{name: "negative entropy", mutate: func(cfg *GlobalConfig) { cfg.ScanConfig.MinEntropy = -1 }, wantErr: "scan_config.min_entropy"},
		{name: "save format", mutate: func(cfg *GlobalConfig) { cfg.ScanConfig.SaveFormat = "xml" }, wantErr: "saveformat"},
		{name: "save format all", mutate: func(cfg *GlobalConfig) { cfg.ScanConfig.SaveFormat = SaveFormatAll }},
		{name: "bad url pattern", mutate: func(cfg *GlobalConfig) { cfg.ScanConfig.ExcludeURLPatterns = []string{"("} }, wantErr: "regexp"},
		{name: "good url pattern", mutate: func(cfg *GlobalConfig) { cfg.ScanConfig.ExcludeURLPatterns = []string{`\.map$`} }},
		{name: "category syntax", mutate: func(cfg *GlobalConfig) { cfg.ScanConfig.IncludeCategories = []string{"Secrets!"} }, wantErr: "category"},
		{name: "unknown category", mutate: func(cfg *GlobalConfig) { cfg.ScanConfig.IncludeCategories = []string{"bitcoin_wallets"} }, wantErr: "unknown category"},
		{name: "known category", mutate: func(cfg *GlobalConfig) { cfg.ScanConfig.IncludeCategories = []string{"secrets", "emails"} }},
		{
			name: "custom category with patterns file",
			mutate: func(cfg *GlobalConfig) {
				cfg.ScanConfig.PatternsFile = patternsFile
				cfg.ScanConfig.IncludeCategories = []string{"bitcoin_wallets"}
			},
		},
		{name: "missing patterns file", mutate: func(cfg *GlobalConfig) { cfg.ScanConfig.PatternsFile = filepath.Join(tempDir, "nope.yaml") }, wantErr: "fileexists"},
		{name: "log level", mutate: func(cfg *GlobalConfig) { cfg.LogConfig.LogLevel = "verbose" }, wantErr: "log_config.log_level"},
		{name: "log format", mutate: func(cfg *GlobalConfig) { cfg.LogConfig.LogFormat = "xml" }, wantErr: "logformat"},
		{name: "output dir is a file", mutate: func(cfg *GlobalConfig) { cfg.ReporterConfig.OutputDir = regularFile }, wantErr: "notfile"},
		{name: "quality above one", mutate: func(cfg *GlobalConfig) { cfg.FilterConfig.Quality.High = 1.5 }, wantErr: "filter_config.quality.high"},
		{name: "codec", mutate: func(cfg *GlobalConfig) { cfg.StorageConfig.CompressionCodec = "lz5" }, wantErr: "compression_codec"},
		{name: "proxy", mutate: func(cfg *GlobalConfig) { cfg.HTTPConfig.Proxy = "not a url" }, wantErr: "http_config.proxy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultGlobalConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateConfig_Nil(t *testing.T) {
	var validationErr *common.ValidationError
	assert.ErrorAs(t, ValidateConfig(nil), &validationErr)
}

func TestValidateConfig_ReportsEveryField(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.ScanConfig.MaxWorkers = 0
	cfg.ScanConfig.SaveFormat = "xml"

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan_config.max_workers: min=1 (got 0)")
	assert.Contains(t, err.Error(), "scan_config.save_format: saveformat (got xml)")
}
