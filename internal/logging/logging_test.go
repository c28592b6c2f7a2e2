package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitWritesToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "client.log")

	require.NoError(t, Init(Config{Level: "info", Format: "json", OutputPath: out}))
	L().Named("cache").Info("cache miss", zap.String("path", "character/1"))
	require.NoError(t, Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cache miss")
	assert.Contains(t, string(data), "character/1")
	assert.Contains(t, string(data), `"logger":"cache"`)
}

func TestSetLevel(t *testing.T) {
	out := filepath.Join(t.TempDir(), "client.log")
	require.NoError(t, Init(Config{Level: "error", Format: "console", OutputPath: out}))

	assert.False(t, L().Core().Enabled(zapcore.DebugLevel))
	SetLevel("debug")
	assert.True(t, L().Core().Enabled(zapcore.DebugLevel))

	// Unknown levels are ignored.
	SetLevel("chatty")
	assert.True(t, L().Core().Enabled(zapcore.DebugLevel))
}

func TestNamedFallsBackToGlobal(t *testing.T) {
	assert.NotNil(t, Named(nil, "connectivity"))
	assert.NotNil(t, Named(L(), "connectivity"))
}
