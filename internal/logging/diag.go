package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

const (
	EnvLogLevel  = "DOTPATH_LOG_LEVEL"
	EnvLogFormat = "DOTPATH_LOG_FORMAT"
)

const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

var diagnostics = sync.OnceValue(func() *log.Logger {
	level, err := ParseLevel(os.Getenv(EnvLogLevel))
	if err != nil {
		level = log.WarnLevel
	}
	formatter, err := parseFormatter(os.Getenv(EnvLogFormat))
	if err != nil {
		formatter = log.TextFormatter
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
	})
})

// Diagnostics returns the process-wide diagnostic logger, built on first use
// from DOTPATH_LOG_LEVEL and DOTPATH_LOG_FORMAT.
func Diagnostics() *log.Logger {
	return diagnostics()
}

// ConfigureDiagnostics changes the level and format of the diagnostic
// logger. Empty values leave the current setting alone.
func ConfigureDiagnostics(level, format string) error {
	logger := Diagnostics()
	if level != "" {
		lvl, err := ParseLevel(level)
		if err != nil {
			return err
		}
		logger.SetLevel(lvl)
	}
	if format != "" {
		formatter, err := parseFormatter(format)
		if err != nil {
			return err
		}
		logger.SetFormatter(formatter)
	}
	return nil
}

// SetDiagnosticsOutput redirects the diagnostic logger. A nil writer
// restores stderr.
func SetDiagnosticsOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	Diagnostics().SetOutput(w)
}

// ParseLevel maps a level name onto a log level. The empty string is warn.
func ParseLevel(level string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "", "warn", "warning":
		return log.WarnLevel, nil
	case "error", "fatal", "panic":
		return log.ErrorLevel, nil
	default:
		return log.WarnLevel, fmt.Errorf("unknown log level %q", level)
	}
}

func parseFormatter(format string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return log.TextFormatter, nil
	case FormatJSON:
		return log.JSONFormatter, nil
	case FormatLogfmt:
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("unknown log format %q", format)
	}
}
