// Package testlogging implements logger that writes to testing.T log.
package testlogging

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/kopia/filejanitor/logging"
)

// Level specifies log level.
type Level = zapcore.Level

// log levels.
const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

// Context returns a context with attached logger that emits all log entries to go testing.T log output.
func Context(tb testing.TB) context.Context {
	return ContextWithLevel(tb, LevelDebug)
}

// ContextWithLevel returns a context with attached logger that emits all log entries with given log level or above.
func ContextWithLevel(tb testing.TB, level Level) context.Context {
	return logging.WithLogger(context.Background(), func(module string) logging.Logger {
		return PrintfLevel(tb.Logf, "["+module+"] ", level)
	})
}

// NewTestLogger returns logger bound to the provided testing.T.
func NewTestLogger(tb testing.TB) logging.Logger {
	return Printf(tb.Logf, "")
}
