// Package workspace manages the temporary directory a backfill run clones
// into.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/pipedocs/internal/logfields"
)

// Manager handles the lifecycle of one ephemeral workspace directory.
type Manager struct {
	baseDir string
	tempDir string
	keep    bool
}

// NewManager creates a workspace manager rooted at baseDir (the system temp
// directory when empty). With keep set, Cleanup leaves the directory behind
// for inspection.
func NewManager(baseDir string, keep bool) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir, keep: keep}
}

// Create creates a timestamped workspace directory.
func (m *Manager) Create() error {
	timestamp := time.Now().Format("20060102-150405")
	tempDir := filepath.Join(m.baseDir, fmt.Sprintf("pipedocs-%s", timestamp))

	if err := os.MkdirAll(tempDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	m.tempDir = tempDir
	slog.Info("Created workspace", logfields.Path(tempDir))
	return nil
}

// Path returns the workspace directory.
func (m *Manager) Path() string {
	return m.tempDir
}

// Cleanup removes the workspace directory unless it was created with keep.
func (m *Manager) Cleanup() error {
	if m.tempDir == "" {
		return nil
	}
	if m.keep {
		slog.Info("Keeping workspace for inspection", logfields.Path(m.tempDir))
		return nil
	}
	if err := os.RemoveAll(m.tempDir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.tempDir))
	m.tempDir = ""
	return nil
}
