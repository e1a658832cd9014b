package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "test.log")

	lg, err := New(Config{Level: "debug", File: logFile})
	require.NoError(t, err)
	defer lg.Close()

	lg.Info().Str("key", "value").Msg("hello from test")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
	assert.Contains(t, string(data), `"key":"value"`)
}

func TestNew_InvalidLevelDefaultsToInfo(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	lg, err := New(Config{Level: "nonsense", File: logFile})
	require.NoError(t, err)
	defer lg.Close()

	lg.Debug().Msg("should be filtered")
	lg.Info().Msg("should be written")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should be filtered")
	assert.Contains(t, string(data), "should be written")
}

func TestNew_ConsoleOnly(t *testing.T) {
	lg, err := New(Config{Level: "info", Console: true})
	require.NoError(t, err)
	defer lg.Close()

	assert.NotNil(t, lg.Zerolog())
}

func TestWith_AddsComponent(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	lg, err := New(Config{Level: "info", File: logFile})
	require.NoError(t, err)
	defer lg.Close()

	component := lg.With("gateway")
	component.Info().Msg("component log line")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"gateway"`)
}
