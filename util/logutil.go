package util

import (
	"log/slog"
	"os"
	"strings"
)

// InitSlog configures slog from defaultLevel (typically the resolved
// config's log_level), overridden by the LOG_LEVEL environment variable
// when set. Supported levels: debug, info, warn, error.
func InitSlog(defaultLevel string) {
	logLevel := defaultLevel
	if envLevel, ok := os.LookupEnv("LOG_LEVEL"); ok {
		logLevel = envLevel
	}

	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	handler := slog.NewTextHandler(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))
}
