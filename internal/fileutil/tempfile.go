// Package fileutil manages transient local artifacts. Downloaded files
// live only for the duration of one pipeline item and are removed on
// every exit path.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/libria-search/libria/internal/logger"
)

// Manager creates scoped temporary files under a base directory.
type Manager struct {
	baseDir string
}

// NewManager creates a manager rooted at baseDir. An empty baseDir uses
// the system temporary directory.
func NewManager(baseDir string) (*Manager, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &Manager{baseDir: baseDir}, nil
}

// BaseDir returns the directory temporary files are created in.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// WithTemp creates a temporary file matching pattern, passes its path to
// fn, and removes the file afterwards regardless of fn's outcome. The
// file is created closed; fn reopens it as needed.
func (m *Manager) WithTemp(pattern string, fn func(path string) error) error {
	f, err := os.CreateTemp(m.baseDir, pattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close temp file: %w", err)
	}

	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove temp file %s: %v", path, err)
		}
	}()

	return fn(path)
}

// CleanupMatching removes leftover files matching the glob pattern.
// Removal is best effort; failures are logged, not returned.
func (m *Manager) CleanupMatching(pattern string) {
	matches, err := filepath.Glob(filepath.Join(m.baseDir, pattern))
	if err != nil {
		logger.Warn("bad cleanup pattern %q: %v", pattern, err)
		return
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove %s: %v", path, err)
			continue
		}
		logger.Debug("removed leftover file %s", path)
	}
}
