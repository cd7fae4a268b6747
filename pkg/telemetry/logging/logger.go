// Package logging constructs the process-wide structured logger.
//
// snapkeep logs with log/slog. Log lines go to stderr so that stdout stays
// reserved for the scriptable per-path output of the commands. Each
// invocation tags its logs with a run id, making interleaved timer-driven
// runs attributable in aggregated logs.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Config contains logger construction parameters.
type Config struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string

	// Format is the output format: text or json.
	Format string

	// Writer overrides the output destination. Nil means stderr.
	Writer io.Writer
}

// New builds a logger from the configuration, tagged with a fresh run id.
func New(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q (valid: text, json)", cfg.Format)
	}

	return slog.New(handler).With("run_id", uuid.NewString()), nil
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", s)
	}
}
