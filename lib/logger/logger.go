package logger

import (
	"log/slog"
	"os"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// PrefixedLogger tags every record with the owning module's name so logs
// from concurrently running plugins can be told apart.
type PrefixedLogger struct {
	log *slog.Logger
}

var _ Logger = PrefixedLogger{}

func NewPrefixedLogger(prefix string) PrefixedLogger {
	return PrefixedLogger{
		log: slog.New(slog.NewTextHandler(os.Stdout, nil)).With("module", prefix),
	}
}

func (pl PrefixedLogger) Debug(msg string, args ...any) {
	pl.log.Debug(msg, args...)
}

func (pl PrefixedLogger) Info(msg string, args ...any) {
	pl.log.Info(msg, args...)
}

func (pl PrefixedLogger) Error(msg string, args ...any) {
	pl.log.Error(msg, args...)
}
