package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcher_Validation(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)

	_, err := NewWatcher(WatcherConfig{OnReload: func(*Config) {}, Logger: logger})
	assert.Error(t, err)

	_, err = NewWatcher(WatcherConfig{Loader: NewLoader(""), Logger: logger})
	assert.Error(t, err)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"gateway": {"port": 9000}}`), 0o644))

	loader := NewLoader(path)
	reloaded := make(chan *Config, 1)

	w, err := NewWatcher(WatcherConfig{
		Loader:             loader,
		StabilityThreshold: 20 * time.Millisecond,
		Logger:             logger,
		OnReload: func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		},
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte(`{"gateway": {"port": 9001}}`), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 9001, cfg.Gateway.Port)
	case <-time.After(3 * time.Second):
		t.Fatal("config reload was not observed")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	reloaded := make(chan struct{}, 1)
	w, err := NewWatcher(WatcherConfig{
		Loader:             NewLoader(path),
		StabilityThreshold: 20 * time.Millisecond,
		Logger:             logger,
		OnReload: func(*Config) {
			select {
			case reloaded <- struct{}{}:
			default:
			}
		},
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644))

	select {
	case <-reloaded:
		t.Fatal("reload fired for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}
