package verskema

import (
	"log/slog"
	"os"
)

// NewTextLogger returns a human-readable logger writing to stderr.
func NewTextLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger returns a JSON logger writing to stderr.
func NewJSONLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards all output.
func NoopLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }
