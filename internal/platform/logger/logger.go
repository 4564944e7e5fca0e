// Package logger builds the structured JSON logger shared across the service.
package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger writing to stdout.
func New() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
