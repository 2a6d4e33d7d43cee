package logger

import (
	"testing"

	"adscout/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		_, err := New(config.NewDefaultLogConfig())
		require.NoError(t, err)
	})

	t.Run("json format", func(t *testing.T) {
		cfg := config.NewDefaultLogConfig()
		cfg.LogFormat = "json"
		cfg.LogLevel = "debug"
		_, err := New(cfg)
		require.NoError(t, err)
	})

	t.Run("unknown level rejected", func(t *testing.T) {
		cfg := config.NewDefaultLogConfig()
		cfg.LogLevel = "verbose"
		_, err := New(cfg)
		assert.Error(t, err)
	})

	t.Run("file logging requires positive max size", func(t *testing.T) {
		cfg := config.NewDefaultLogConfig()
		cfg.LogFile = t.TempDir() + "/adscout.log"
		cfg.MaxLogSizeMB = 0
		_, err := New(cfg)
		assert.Error(t, err)
	})
}
