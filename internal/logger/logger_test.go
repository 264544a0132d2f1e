package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies string to level conversion including unknown input.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	level, ok := ParseLogLevel("debug")
	require.True(t, ok)
	require.Equal(t, zapcore.DebugLevel, level)

	level, ok = ParseLogLevel(" WARN ")
	require.True(t, ok)
	require.Equal(t, zapcore.WarnLevel, level)

	_, ok = ParseLogLevel("whatever")
	require.False(t, ok)
}

// TestFromContextFallback ensures the global logger is used when the context is bare.
func TestFromContextFallback(t *testing.T) {
	t.Parallel()

	require.NotNil(t, FromContext(context.Background()))
}

// TestToContextRoundtrip ensures a stored logger is returned as-is.
func TestToContextRoundtrip(t *testing.T) {
	t.Parallel()

	l := zap.NewNop().Sugar()
	ctx := ToContext(context.Background(), l)
	require.Same(t, l, FromContext(ctx))
}

// TestWithName ensures naming does not lose the stored logger.
func TestWithName(t *testing.T) {
	t.Parallel()

	ctx := WithName(context.Background(), "fetch")
	require.NotNil(t, FromContext(ctx))
}
