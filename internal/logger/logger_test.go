package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zap.DebugLevel},
		{"info", zap.InfoLevel},
		{"warn", zap.WarnLevel},
		{"error", zap.ErrorLevel},
		{"", zap.InfoLevel},
		{"verbose", zap.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

// Init swaps the process-wide logger, so these tests run serially.
func TestInit_ReplacesGlobals(t *testing.T) {
	lgr, sync, err := Init("debug", "console")
	require.NoError(t, err)
	require.NotNil(t, lgr)

	assert.Same(t, lgr, zap.L())
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	sync()
	assert.NotSame(t, lgr, zap.L(), "sync restores the previous global logger")
}

func TestInit_JSONRespectsLevel(t *testing.T) {
	lgr, sync, err := Init("warn", "json")
	require.NoError(t, err)
	defer sync()

	assert.False(t, lgr.Core().Enabled(zap.InfoLevel))
	assert.True(t, lgr.Core().Enabled(zap.WarnLevel))
}
