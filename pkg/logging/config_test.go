package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.True(t, cfg.NoColor)
}

func TestNewLoggerFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "integrations.log")
	logger := NewLoggerFromConfig(&Config{Level: "warn", Format: "json", Output: path})

	logger.Info().Msg("dropped")
	logger.Warn().Str("integration", "nginx").Msg("kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"integration":"nginx"`)
	assert.Contains(t, string(data), `"message":"kept"`)
}

func TestNewLoggerFromConfigCaller(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caller.log")
	logger := NewLoggerFromConfig(&Config{Level: "debug", Format: "json", Output: path, Caller: true})
	logger.Debug().Msg("where")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"caller":`)
	assert.Contains(t, string(data), "config_test.go")
}

func TestNewLoggerFromConfigDiscard(t *testing.T) {
	logger := NewLoggerFromConfig(&Config{Level: "info", Output: "discard"})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger = NewLoggerFromConfig(nil)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestOpenOutput(t *testing.T) {
	w, err := openOutput("stdout")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, w)

	w, err = openOutput(filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	assert.Error(t, err)
	assert.Equal(t, os.Stderr, w)
}

func TestFormatWriter(t *testing.T) {
	_, console := formatWriter(&bytes.Buffer{}, &Config{Format: "console"}).(zerolog.ConsoleWriter)
	assert.True(t, console)

	path := filepath.Join(t.TempDir(), "auto.log")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Same(t, f, formatWriter(f, &Config{Format: "auto"}))
}
