// Package logging provides loggers for filejanitor packages.
//
// Loggers are carried in context.Context so that the same engine code can log
// to the console, a log file or a test log without knowing which one is active.
package logging

import (
	"context"

	"go.uber.org/zap"
)

// Logger is used by filejanitor to emit various logs.
type Logger = *zap.SugaredLogger

// LoggerFactory retrieves a named logger for a given module.
type LoggerFactory func(module string) Logger

// Module returns a function that returns a logger for a given module when provided with a context.
func Module(module string) func(ctx context.Context) Logger {
	return func(ctx context.Context) Logger {
		if l := ctx.Value(loggerCacheKey); l != nil {
			//nolint:forcetypeassert
			return l.(*loggerCache).getLogger(module)
		}

		return NullLogger
	}
}

// ModuleAt returns a logger for a given module at a given context.
func ModuleAt(ctx context.Context, module string) Logger {
	return Module(module)(ctx)
}
