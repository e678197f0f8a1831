package logger

import (
	"log/slog"
	"os"
)

// New returns a structured stdout logger shared by all handlers and services.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
