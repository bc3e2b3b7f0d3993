package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// formatWriter wraps out in the zerolog writer for format.
func formatWriter(format Format, out io.Writer, noColor bool) io.Writer {
	switch format {
	case FormatJSON:
		return out
	case FormatText:
		return zerolog.ConsoleWriter{
			Out:         out,
			NoColor:     true,
			TimeFormat:  time.RFC3339,
			FormatLevel: textLevel,
		}
	default:
		return zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    noColor,
			TimeFormat: time.RFC3339,
		}
	}
}

func textLevel(i interface{}) string {
	level, ok := i.(string)
	if !ok {
		return "?????"
	}
	return strings.ToUpper(fmt.Sprintf("%-5s", level))
}

// rotatingFile opens the size-rotated log file. Files never get color codes.
func rotatingFile(opts options) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(opts.filePath), 0755); err != nil {
		return nil, common.WrapError(err, "failed to create log directory")
	}
	file := &lumberjack.Logger{
		Filename:   opts.filePath,
		MaxSize:    opts.maxSizeMB,
		MaxBackups: opts.maxBackups,
		LocalTime:  true,
	}
	return formatWriter(opts.format, file, true), nil
}
