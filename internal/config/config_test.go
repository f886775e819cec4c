package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KyungWonPark/mtxconv/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mtxconv.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
skip = true
compress = true
log_level = "warn"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.Config{Skip: true, Compress: true, LogLevel: "warn"}, cfg)
}

func TestLoad_KeepsDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "recursive = true\n"))
	require.NoError(t, err)
	require.True(t, cfg.Recursive)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(writeConfig(t, "skip = \n"))
	require.Error(t, err)

	_, err = config.Load(writeConfig(t, "overwrite = true\n"))
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = config.Load(writeConfig(t, "log_level = \"loud\"\n"))
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}

	for in, want := range tests {
		got, err := config.ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}
