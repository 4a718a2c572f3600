package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LevelCritical sits one step above slog.LevelError.
const LevelCritical = slog.LevelError + 4

// Format selects how records are rendered.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat accepts "json"/"structured" and "text"/"plain"/"console".
// An empty value selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json", "structured":
		return FormatJSON, nil
	case "text", "plain", "console":
		return FormatText, nil
	default:
		return "", fmt.Errorf("log format: unsupported value %q", s)
	}
}

// ParseLevel maps a level name onto a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical", "fatal":
		return LevelCritical
	default:
		return slog.LevelInfo
	}
}

// NewHandler builds a slog handler writing to w in the given format.
func NewHandler(w io.Writer, level slog.Leveler, format Format) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevel,
	}
	if format == FormatText {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// New creates the application's synchronous logger.
func New(level string, format Format, w io.Writer) *slog.Logger {
	return slog.New(NewHandler(w, ParseLevel(level), format))
}

func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 || a.Key != slog.LevelKey {
		return a
	}
	lvl, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	switch {
	case lvl >= LevelCritical:
		a.Value = slog.StringValue("CRITICAL")
	case lvl >= slog.LevelWarn && lvl < slog.LevelError:
		a.Value = slog.StringValue("WARNING")
	}
	return a
}
