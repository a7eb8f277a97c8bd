package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("ValidLevel_ShouldBeHonoured", func(t *testing.T) {
		log, err := New(Config{Level: "debug", Format: "console"})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("InvalidLevel_ShouldDefaultToInfo", func(t *testing.T) {
		log, err := New(Config{Level: "loud"})
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("UnopenableOutput_ShouldFail", func(t *testing.T) {
		_, err := New(Config{Level: "info", OutputPaths: []string{"/nonexistent-dir/x/pantry.log"}})
		assert.Error(t, err)
	})
}

func TestNew_ShouldAttachServiceFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pantry.log")
	log, err := New(Config{Level: "info", Service: "pantry", Environment: "test", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.Info("pipeline completed")
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"service":"pantry"`)
	assert.Contains(t, string(raw), `"environment":"test"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}
