package logging_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kopia/filejanitor/logging"
)

func TestNullLoggerWhenNoneAttached(t *testing.T) {
	l := logging.Module("janitor")(context.Background())

	require.Equal(t, logging.NullLogger, l)
	l.Infof("not emitted %v", 1)
}

func TestModuleLoggersAreCached(t *testing.T) {
	var created []string

	ctx := logging.WithLogger(context.Background(), func(module string) logging.Logger {
		created = append(created, module)
		return zap.NewNop().Sugar()
	})

	a := logging.Module("a")
	b := logging.Module("b")

	a(ctx).Info("one")
	a(ctx).Info("two")
	b(ctx).Info("three")

	require.Equal(t, []string{"a", "b"}, created)
}

func TestWithAdditionalLogger(t *testing.T) {
	core1, logs1 := observer.New(zapcore.DebugLevel)
	core2, logs2 := observer.New(zapcore.DebugLevel)

	ctx := logging.WithLogger(context.Background(), func(module string) logging.Logger {
		return zap.New(core1).Named(module).Sugar()
	})
	ctx = logging.WithAdditionalLogger(ctx, func(module string) logging.Logger {
		return zap.New(core2).Named(module).Sugar()
	})

	logging.ModuleAt(ctx, "exchange").Infof("stored %v", "k1")

	require.Equal(t, 1, logs1.Len())
	require.Equal(t, 1, logs2.Len())
	require.True(t, strings.Contains(logs2.All()[0].Message, "stored k1"))
}
