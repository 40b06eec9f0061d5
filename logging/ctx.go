package logging

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const loggerCacheKey contextKey = "logger"

type loggerCache struct {
	createLoggerForModule LoggerFactory
	loggers               sync.Map
}

func (s *loggerCache) getLogger(module string) Logger {
	v, ok := s.loggers.Load(module)
	if !ok {
		v, _ = s.loggers.LoadOrStore(module, s.createLoggerForModule(module))
	}

	return v.(Logger) //nolint:forcetypeassert
}

// WithLogger returns a derived context with associated logger.
func WithLogger(ctx context.Context, l LoggerFactory) context.Context {
	if l == nil {
		l = getNullLogger
	}

	return context.WithValue(ctx, loggerCacheKey, &loggerCache{
		createLoggerForModule: l,
	})
}

// WithAdditionalLogger returns a context where all logging is emitted to the original logger
// and the provided one.
func WithAdditionalLogger(ctx context.Context, fact LoggerFactory) context.Context {
	lc, ok := ctx.Value(loggerCacheKey).(*loggerCache)
	if !ok {
		return WithLogger(ctx, fact)
	}

	return WithLogger(ctx, func(module string) Logger {
		return zap.New(zapcore.NewTee(
			lc.getLogger(module).Desugar().Core(),
			fact(module).Desugar().Core(),
		), zap.WithClock(Clock)).Sugar()
	})
}
