package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger builds a colourised slog logger. Unknown levels fall back to info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(level)))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	}))
}

// PrintfLogger feeds printf-style client loggers, such as resty's, into slog.
type PrintfLogger struct {
	Logger *slog.Logger
}

func (p PrintfLogger) Errorf(format string, v ...any) { p.log(slog.LevelError, format, v) }
func (p PrintfLogger) Warnf(format string, v ...any)  { p.log(slog.LevelWarn, format, v) }
func (p PrintfLogger) Debugf(format string, v ...any) { p.log(slog.LevelDebug, format, v) }

func (p PrintfLogger) log(level slog.Level, format string, v []any) {
	l := p.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Log(context.Background(), level, strings.TrimSpace(fmt.Sprintf(format, v...)))
}
