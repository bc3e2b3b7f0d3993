// Package logger builds the application's zerolog logger from FileLogConfig.
package logger

import (
	"io"
	stdlog "log"
	"os"

	"github.com/rs/zerolog"
)

// Logger is a built zerolog logger together with its resolved level and format.
type Logger struct {
	zerolog zerolog.Logger
	level   zerolog.Level
	format  Format
	toFile  bool
}

// GetZerolog returns the underlying zerolog instance.
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zerolog
}

func (l *Logger) Level() zerolog.Level { return l.level }
func (l *Logger) Format() Format        { return l.format }
func (l *Logger) WritesFile() bool      { return l.toFile }

// LoggerBuilder assembles a Logger from the config file section and CLI
// overrides.
type LoggerBuilder struct {
	opts    options
	console io.Writer
	err     error
}

func NewLoggerBuilder() *LoggerBuilder {
	opts, _ := resolve(NewDefaultFileLogConfig())
	return &LoggerBuilder{opts: opts, console: os.Stderr}
}

// WithConfig applies cfg. An unknown level is reported by Build.
func (lb *LoggerBuilder) WithConfig(cfg FileLogConfig) *LoggerBuilder {
	lb.opts, lb.err = resolve(cfg)
	return lb
}

// WithLevel overrides the configured level, e.g. for --verbose.
func (lb *LoggerBuilder) WithLevel(level zerolog.Level) *LoggerBuilder {
	lb.opts.level = level
	return lb
}

// WithConsoleOutput redirects console output, stderr by default.
func (lb *LoggerBuilder) WithConsoleOutput(out io.Writer) *LoggerBuilder {
	lb.console = out
	return lb
}

// WithNoColor strips color codes from console output.
func (lb *LoggerBuilder) WithNoColor(noColor bool) *LoggerBuilder {
	lb.opts.noColor = noColor
	return lb
}

// Build creates the logger and routes the standard log package through it.
func (lb *LoggerBuilder) Build() (*Logger, error) {
	if lb.err != nil {
		return nil, lb.err
	}

	writers := []io.Writer{formatWriter(lb.opts.format, lb.console, lb.opts.noColor)}
	if lb.opts.filePath != "" {
		file, err := rotatingFile(lb.opts)
		if err != nil {
			return nil, err
		}
		writers = append(writers, file)
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lb.opts.level).
		With().
		Timestamp().
		Logger()

	stdlog.SetOutput(zl)
	stdlog.SetFlags(0)

	return &Logger{
		zerolog: zl,
		level:   lb.opts.level,
		format:  lb.opts.format,
		toFile:  lb.opts.filePath != "",
	}, nil
}

// New creates a zerolog logger from cfg.
func New(cfg FileLogConfig) (zerolog.Logger, error) {
	l, err := NewLoggerBuilder().WithConfig(cfg).Build()
	if err != nil {
		return zerolog.Logger{}, err
	}
	return *l.GetZerolog(), nil
}
