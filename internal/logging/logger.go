package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ConfigureDefaultLogger installs the default slog logger for the given level
// and optional output file.
//
// Valid levels are "none", "error", "warn", "info" and "debug". With an empty
// logFile the logger writes text to stderr, keeping stdout free for the
// terminal UI; otherwise JSON records are written to the file, which the
// caller must close.
func ConfigureDefaultLogger(logLevel, logFile string, opts slog.HandlerOptions) (*os.File, error) {
	level, ok := ParseLevel(logLevel)
	if !ok {
		return nil, fmt.Errorf("unexpected log level %q", logLevel)
	}
	opts.Level = level
	if logLevel == "none" {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, &opts)))
		return nil, nil
	}

	if logFile == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &opts)))
		return nil, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, &opts)))
	return f, nil
}

// ParseLevel maps a level name to its slog level. "none" maps above error.
func ParseLevel(name string) (slog.Level, bool) {
	switch name {
	case "none":
		return slog.LevelError + 4, true
	case "error":
		return slog.LevelError, true
	case "warn":
		return slog.LevelWarn, true
	case "info":
		return slog.LevelInfo, true
	case "debug":
		return slog.LevelDebug, true
	}
	return 0, false
}
