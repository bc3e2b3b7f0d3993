package logger

import (
	"strings"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/rs/zerolog"
)

const (
	DefaultLogFormat     = "console"
	DefaultLogLevel      = "info"
	DefaultMaxLogBackups = 3
	DefaultMaxLogSizeMB  = 100
)

// FileLogConfig is the log_config section of the configuration file.
type FileLogConfig struct {
	LogFile       string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogFormat     string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,logformat"`
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,loglevel"`
	MaxLogBackups int    `json:"max_log_backups,omitempty" yaml:"max_log_backups,omitempty" validate:"omitempty,min=0"`
	MaxLogSizeMB  int    `json:"max_log_size_mb,omitempty" yaml:"max_log_size_mb,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultFileLogConfig logs at info level to the console only.
func NewDefaultFileLogConfig() FileLogConfig {
	return FileLogConfig{
		LogFormat:     DefaultLogFormat,
		LogLevel:      DefaultLogLevel,
		MaxLogBackups: DefaultMaxLogBackups,
		MaxLogSizeMB:  DefaultMaxLogSizeMB,
	}
}

// Format selects how log events are rendered.
type Format int

const (
	FormatConsole Format = iota
	FormatJSON
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatText:
		return "text"
	default:
		return "console"
	}
}

// ParseFormat maps a configured format name to a Format. Unknown names render
// as console.
func ParseFormat(name string) Format {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatConsole
	}
}

// ParseLevel maps a configured level name to a zerolog level. Empty is info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel, common.NewValidationError("log_level", name, "unknown log level")
	}
	return level, nil
}

// options is the resolved form of FileLogConfig.
type options struct {
	level      zerolog.Level
	format     Format
	noColor    bool
	filePath   string
	maxSizeMB  int
	maxBackups int
}

func resolve(cfg FileLogConfig) (options, error) {
	level, err := ParseLevel(cfg.LogLevel)
	opts := options{
		level:      level,
		format:     ParseFormat(cfg.LogFormat),
		filePath:   cfg.LogFile,
		maxSizeMB:  cfg.MaxLogSizeMB,
		maxBackups: cfg.MaxLogBackups,
	}
	if opts.maxSizeMB <= 0 {
		opts.maxSizeMB = DefaultMaxLogSizeMB
	}
	if opts.maxBackups <= 0 {
		opts.maxBackups = DefaultMaxLogBackups
	}
	return opts, err
}
