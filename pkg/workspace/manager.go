// Package workspace tracks the active workspace and owns the lifecycle
// of its memory service. The service is constructed when the workspace
// changes and handed to request handlers by reference; nothing is
// lazily initialized on first use.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sentinelops/sentineld/pkg/memory"
)

// ServiceFactory builds a memory service for a workspace path. Injected
// so the manager stays independent of provider wiring.
type ServiceFactory func(workspacePath string) (*memory.Service, error)

// ChangeListener is notified after the active workspace has switched.
type ChangeListener func(workspacePath string)

// Manager owns the active workspace and its memory service.
type Manager struct {
	factory ServiceFactory
	logger  zerolog.Logger

	mu        sync.RWMutex
	path      string
	service   *memory.Service
	listeners []ChangeListener
}

// NewManager creates a workspace manager.
func NewManager(factory ServiceFactory, logger zerolog.Logger) (*Manager, error) {
	if factory == nil {
		return nil, fmt.Errorf("service factory is required")
	}
	return &Manager{factory: factory, logger: logger}, nil
}

// Set switches the active workspace: the previous store is closed and a
// new memory service is constructed for the given path. Listeners are
// notified after the switch completes.
func (m *Manager) Set(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve workspace path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("failed to access workspace: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace path is not a directory: %s", absPath)
	}

	service, err := m.factory(absPath)
	if err != nil {
		return fmt.Errorf("failed to open workspace memory: %w", err)
	}

	m.mu.Lock()
	previous := m.service
	m.path = absPath
	m.service = service
	listeners := make([]ChangeListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	if previous != nil {
		if err := previous.Close(); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to close previous workspace store")
		}
	}

	m.logger.Info().
		Str("workspace", absPath).
		Str("workspaceId", memory.WorkspaceID(absPath)).
		Msg("Workspace changed")

	for _, l := range listeners {
		l(absPath)
	}
	return nil
}

// Path returns the active workspace path, empty when none is set.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// Service returns the active workspace's memory service, or nil when no
// workspace is set.
func (m *Manager) Service() *memory.Service {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.service
}

// OnChange registers a listener for workspace switches.
func (m *Manager) OnChange(l ChangeListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Close releases the active workspace's store, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	service := m.service
	m.service = nil
	m.path = ""
	m.mu.Unlock()

	if service != nil {
		return service.Close()
	}
	return nil
}
