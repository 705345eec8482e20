package logging

import (
	"io"
	"os"
	"strings"

	"github.com/tayoshik/EnjoyGo/internal/config"
)

// LogFormat represents the log output format.
type LogFormat string

const (
	// FormatText is the traditional text format.
	FormatText LogFormat = "text"
	// FormatJSON is structured JSON format.
	FormatJSON LogFormat = "json"
)

// NewLoggerFromConfig creates a logger from the logging configuration. The
// returned closer is non-nil when a log file was opened and must be closed
// on shutdown; it is nil otherwise.
func NewLoggerFromConfig(cfg *config.LoggingConfig, service, version string) (ContextLogger, io.Closer) {
	format := LogFormat(strings.ToLower(cfg.Format))
	if format == "" {
		if envFormat := os.Getenv("ENJOYGO_LOG_FORMAT"); envFormat != "" {
			format = LogFormat(strings.ToLower(envFormat))
		} else {
			format = FormatJSON
		}
	}

	writers := []io.Writer{os.Stderr} // Always log to stderr
	var fileWriter *FileWriter

	if cfg.File.Enabled && cfg.File.Path != "" {
		fw, err := NewFileWriter(
			cfg.File.Path,
			cfg.File.MaxSizeMB,
			cfg.File.MaxBackups,
			cfg.File.MaxAgeDays,
			cfg.File.Compress,
		)
		if err != nil {
			// Continue without file logging rather than refusing to start.
			NewLogger(cfg.Prefix, "error").Error("Failed to create file writer: %v", err)
		} else {
			fileWriter = fw
			writers = append(writers, fw)
		}
	}

	var writer io.Writer
	if len(writers) > 1 {
		writer = NewMultiWriter(writers...)
	} else {
		writer = writers[0]
	}

	var logger ContextLogger
	switch format {
	case FormatText:
		logger = NewLoggerAdapter(NewLoggerWithWriter(writer, cfg.Prefix, cfg.Level))
	default:
		logger = NewStructuredLoggerWithWriter(writer, service, version, cfg.Level)
	}

	if fileWriter != nil {
		return logger, fileWriter
	}
	return logger, nil
}
