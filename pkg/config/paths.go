package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// BasePath is the root directory for all persisted node state.
type BasePath string

// DefaultBasePath returns the default base path (~/.fullnode).
func DefaultBasePath() (BasePath, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return BasePath(filepath.Join(home, ".fullnode")), nil
}

// NewTemporaryBasePath creates a fresh base path under the system temp dir.
// The returned cleanup removes it.
func NewTemporaryBasePath() (BasePath, func(), error) {
	dir, err := os.MkdirTemp("", "fullnode-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temporary base path: %w", err)
	}
	return BasePath(dir), func() { _ = os.RemoveAll(dir) }, nil
}

// Path returns the base path as a string.
func (b BasePath) Path() string {
	return string(b)
}

// ConfigDir returns the per-chain directory, <base>/<chain id>.
func (b BasePath) ConfigDir(chainID string) string {
	return filepath.Join(string(b), chainID)
}

// EnsureConfigDir creates the per-chain directory if it does not exist.
func (b BasePath) EnsureConfigDir(chainID string) (string, error) {
	dir := b.ConfigDir(chainID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return dir, nil
}
