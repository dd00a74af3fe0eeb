package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the service logger: JSON at INFO level in prod,
// text at DEBUG level everywhere else. Every record carries the service
// name so multi-service log streams stay attributable.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == EnvProd {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler).With("service", "mindlink")
}
