package observability

import (
	"io"
	"log/slog"
	"strings"
)

// NewLoggerTo builds a logger writing to w. The service binary logs to stdout
// through the shared NewLogger; this variant exists for the CLI, which keeps
// stdout for command output. An unknown level means info.
func NewLoggerTo(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if strings.EqualFold(level, "warning") {
		level = "warn"
	}
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
