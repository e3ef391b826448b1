package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var logger *slog.Logger

func init() {
	// Default to INFO level text output
	InitLogger("info", "text")
}

// ParseLevel maps a configured level name to a slog level. Unknown names
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger initializes the global logger with the specified level and
// format ("text" or "json") on stderr.
func InitLogger(level, format string) {
	logger = NewLogger(os.Stderr, level, format)
	slog.SetDefault(logger)
}

func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// GetLogger returns the global logger instance
func GetLogger() *slog.Logger {
	return logger
}
