package logger

import (
	"log/slog"
	"os"
)

// New returns the JSON slog logger services receive. Level comes from the
// environment so production can stay at info while debugging runs verbose.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
