package config

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Rows)
	assert.Equal(t, 10, cfg.Cols)
	assert.Equal(t, 1, cfg.Level)
	assert.Equal(t, "localhost:9000", cfg.Addr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.NoGhost)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("TETRIS_LEVEL", "3")
	t.Setenv("TETRIS_COLS", "12")
	t.Setenv("TETRIS_NO_GHOST", "true")
	t.Setenv("TETRIS_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Level)
	assert.Equal(t, 12, cfg.Cols)
	assert.True(t, cfg.NoGhost)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.EngineFlags(fs)
	cfg.CommonFlags(fs)
	require.NoError(t, fs.Parse([]string{"--level", "5", "--addr", "example:1234", "--log-level", "warn"}))

	assert.Equal(t, 5, cfg.Level)
	assert.Equal(t, 12, cfg.Cols)
	assert.Equal(t, "example:1234", cfg.Addr)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)

	engine := cfg.Engine()
	assert.Equal(t, 5, engine.Level)
	assert.Equal(t, 12, engine.Cols)
	assert.Equal(t, 20, engine.Rows)
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("TETRIS_ROWS", "many")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{name: "default board", cfg: Config{Rows: 20, Cols: 10, Level: 1}, ok: true},
		{name: "tiny board", cfg: Config{Rows: 3, Cols: 10, Level: 1}},
		{name: "narrow board", cfg: Config{Rows: 20, Cols: 2, Level: 1}},
		{name: "level zero", cfg: Config{Rows: 20, Cols: 10, Level: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("falls back to the writer", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := Config{LogLevel: slog.LevelInfo}
		logger, closer, err := cfg.Logger(&buf)
		require.NoError(t, err)
		defer closer() //nolint:errcheck

		logger.Debug("hidden")
		logger.Info("shown", slog.String("key", "value"))
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), `"key":"value"`)
	})

	t.Run("writes to the log file", func(t *testing.T) {
		cfg := Config{LogFile: filepath.Join(t.TempDir(), "tetris.log")}
		logger, closer, err := cfg.Logger(nil)
		require.NoError(t, err)
		logger.Info("hello")
		require.NoError(t, closer())
		assert.FileExists(t, cfg.LogFile)
	})
}
