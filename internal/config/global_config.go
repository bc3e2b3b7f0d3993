package config

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/aleister1102/jssecretscanner/internal/logger"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// 1MB
const maxConfigFileSize = 1024 * 1024

// GlobalConfig is the on-disk configuration file, one section per concern.
type GlobalConfig struct {
	ScanConfig            ScanConfig            `json:"scan_config,omitempty" yaml:"scan_config,omitempty"`
	FilterConfig          FilterConfig          `json:"filter_config,omitempty" yaml:"filter_config,omitempty"`
	HTTPConfig            HTTPConfig            `json:"http_config,omitempty" yaml:"http_config,omitempty"`
	LogConfig             logger.FileLogConfig  `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	ReporterConfig        ReporterConfig        `json:"reporter_config,omitempty" yaml:"reporter_config,omitempty"`
	StorageConfig         StorageConfig         `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
	ResourceLimiterConfig ResourceLimiterConfig `json:"resource_limiter_config,omitempty" yaml:"resource_limiter_config,omitempty"`
}

func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		ScanConfig:            NewDefaultScanConfig(),
		FilterConfig:          NewDefaultFilterConfig(),
		HTTPConfig:            NewDefaultHTTPConfig(),
		LogConfig:             logger.NewDefaultFileLogConfig(),
		ReporterConfig:        NewDefaultReporterConfig(),
		StorageConfig:         NewDefaultStorageConfig(),
		ResourceLimiterConfig: NewDefaultResourceLimiterConfig(),
	}
}

// LoadGlobalConfig layers the first config file found by GetConfigPath over
// the defaults. An explicit path that does not exist is an error; finding no
// file anywhere is not.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	switch {
	case filePath == "" && providedPath != "":
		return nil, common.NewValidationError("config_file", providedPath, "config file does not exist")
	case filePath == "":
		return cfg, nil
	}

	data, err := readConfigFile(common.NewFileManager(logger), filePath)
	if err != nil {
		return nil, common.WrapErrorf(err, "reading config %s", filePath)
	}
	if err := decodeConfig(data, filePath, cfg); err != nil {
		return nil, err
	}

	logger.Debug().Str("path", filePath).Msg("Configuration loaded")
	return cfg, nil
}

func readConfigFile(fm *common.FileManager, path string) ([]byte, error) {
	return fm.ReadFile(path, common.FileReadOptions{MaxSize: maxConfigFileSize})
}

type configDecoder struct {
	format    string
	unmarshal func([]byte, any) error
}

var (
	yamlDecoder = configDecoder{format: "YAML", unmarshal: yaml.Unmarshal}
	jsonDecoder = configDecoder{format: "JSON", unmarshal: json.Unmarshal}
)

// decoderFor picks YAML for .yaml and .yml, JSON for anything else.
func decoderFor(path string) configDecoder {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlDecoder
	default:
		return jsonDecoder
	}
}

func decodeConfig(data []byte, path string, cfg *GlobalConfig) error {
	dec := decoderFor(path)
	if err := dec.unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal %s from %s: %w", dec.format, path, err)
	}
	return nil
}
