package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/user/memstab/pkg/ports"
)

// SlogLogger adapts a slog.Logger to ports.Logger. Messages are translated
// and formatted before they reach the handler; the component becomes an
// attribute.
type SlogLogger struct {
	logger *slog.Logger
}

// NewTint creates a SlogLogger backed by a tint handler on stderr.
func NewTint(level ports.LogLevel) *SlogLogger {
	fd := os.Stderr.Fd()
	return NewTintTo(level, os.Stderr, !isatty.IsTerminal(fd))
}

// NewTintTo creates a SlogLogger backed by a tint handler on w.
func NewTintTo(level ports.LogLevel, w io.Writer, noColor bool) *SlogLogger {
	return NewSlog(slog.New(tint.NewHandler(w, &tint.Options{
		Level:      slogLevel(level),
		TimeFormat: "15:04:05",
		NoColor:    noColor,
	})))
}

// NewSlog wraps an existing slog.Logger.
func NewSlog(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

// slogLevel maps a LogLevel onto slog. LevelQuiet sits above every level
// slog emits.
func slogLevel(level ports.LogLevel) slog.Level {
	switch level {
	case ports.LevelDebug:
		return slog.LevelDebug
	case ports.LevelInfo:
		return slog.LevelInfo
	case ports.LevelWarn:
		return slog.LevelWarn
	case ports.LevelError:
		return slog.LevelError
	default:
		return slog.LevelError + 4
	}
}

func (l *SlogLogger) Debug(msg string, args ...interface{}) {
	l.log(slog.LevelDebug, msg, args...)
}

func (l *SlogLogger) Info(msg string, args ...interface{}) {
	l.log(slog.LevelInfo, msg, args...)
}

func (l *SlogLogger) Warn(msg string, args ...interface{}) {
	l.log(slog.LevelWarn, msg, args...)
}

func (l *SlogLogger) Error(msg string, args ...interface{}) {
	l.log(slog.LevelError, msg, args...)
}

func (l *SlogLogger) WithComponent(component string) ports.Logger {
	return &SlogLogger{logger: l.logger.With("component", component)}
}

func (l *SlogLogger) log(level slog.Level, msg string, args ...interface{}) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, l10n.F(msg, args...))
}
