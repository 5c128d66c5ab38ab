package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

type Options struct {
	AppEnv  string // dev | prod
	Level   slog.Level
	Version string
	Output  io.Writer
}

// New returns a coloured tint logger in dev and a JSON logger otherwise.
func New(opts Options, appName string) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.AppEnv == "" || opts.AppEnv == "dev" {
		h := tint.NewHandler(out, &tint.Options{
			Level:      opts.Level,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: opts.Level,
	})
	return slog.New(h).With(
		"app", appName,
		"version", opts.Version,
		"env", opts.AppEnv,
	)
}

// ParseLevel maps debug|info|warn|error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
