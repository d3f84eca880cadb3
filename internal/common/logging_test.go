package common

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
	assert.Equal(t, zerolog.DebugLevel, parseLevel(" DEBUG "))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("verbose"))
}

func TestNewLoggerWithOutput_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("warn", &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("trade_date", "2024-01-03").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"trade_date":"2024-01-03"`)
}

func TestNewLoggerFromConfig_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nsebhav.log")
	logger := NewLoggerFromConfig(LoggingConfig{
		Level:      "info",
		Format:     "json",
		Outputs:    []string{"file"},
		FilePath:   path,
		MaxSizeMB:  1,
		MaxBackups: 1,
	})

	logger.Info().Msg("Backfill complete")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Backfill complete")
}

func TestNewLoggerFromConfig_FileWithoutPathFallsBack(t *testing.T) {
	logger := NewLoggerFromConfig(LoggingConfig{Level: "error", Outputs: []string{"file"}})
	assert.NotNil(t, logger)
}
