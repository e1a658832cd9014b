package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReloadCallback is invoked with the freshly loaded config after the
// file on disk changes.
type ReloadCallback func(cfg *Config)

// Watcher monitors the config file and reloads it on change. Editors
// often replace the file via rename, so the parent directory is
// watched and events are filtered by name.
type Watcher struct {
	loader             *Loader
	watcher            *fsnotify.Watcher
	configPath         string
	stabilityThreshold time.Duration
	onReload           ReloadCallback
	logger             zerolog.Logger

	done          chan struct{}
	debounceMu    sync.Mutex
	debounceTimer *time.Timer
	stopOnce      sync.Once
}

// WatcherConfig holds watcher configuration.
type WatcherConfig struct {
	Loader             *Loader
	StabilityThreshold time.Duration
	OnReload           ReloadCallback
	Logger             zerolog.Logger
}

// NewWatcher creates a config watcher.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if cfg.OnReload == nil {
		return nil, fmt.Errorf("reload callback is required")
	}

	configPath, err := cfg.Loader.Path()
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if cfg.StabilityThreshold == 0 {
		cfg.StabilityThreshold = 200 * time.Millisecond
	}

	return &Watcher{
		loader:             cfg.Loader,
		watcher:            watcher,
		configPath:         configPath,
		stabilityThreshold: cfg.StabilityThreshold,
		onReload:           cfg.OnReload,
		logger:             cfg.Logger,
		done:               make(chan struct{}),
	}, nil
}

// Start starts watching the config file's directory.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.configPath)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	go w.eventLoop()

	w.logger.Info().Str("path", w.configPath).Msg("Config watcher started")
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
	})

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceMu.Unlock()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Config watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.stabilityThreshold, func() {
		select {
		case <-w.done:
			return
		default:
		}
		w.reload()
	})
}

func (w *Watcher) reload() {
	cfg, err := w.loader.Load()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to reload config")
		return
	}

	w.logger.Info().Str("path", w.configPath).Msg("Config reloaded")
	w.onReload(cfg)
}
