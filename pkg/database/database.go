// Package database chooses where a node's key-value store lives and opens it.
//
// Two on-disk layouts exist side by side under the chain's config directory:
// the legacy one at <dir>/db/<role> (goleveldb) and the newer one at
// <dir>/paritydb/<role> (pebble). Config only describes both locations; Open
// decides which engine to use by looking at what is already on disk.
package database

import (
	"errors"
	"path/filepath"

	"github.com/DeBrosOfficial/fullnode/pkg/config"
)

const (
	legacyDir = "db"
	parityDir = "paritydb"
)

// ErrNotFound is returned by Get when a key does not exist.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned by every operation on a closed store.
var ErrClosed = errors.New("database closed")

// Store is the minimal key-value interface the node needs.
type Store interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Close() error

	// Engine reports the backing engine.
	Engine() Engine
	// Path reports the directory the store was opened in.
	Path() string
}

// RoleDir returns the role sub-directory name. Full and authority nodes share
// the same database.
func RoleDir(role config.Role) string {
	if role == config.RoleLight {
		return "light"
	}
	return "full"
}

// Config returns the database source for a node with the given role whose
// per-chain directory is configDir. cacheSize is in MiB.
func Config(configDir string, cacheSize int, role config.Role) config.DatabaseSource {
	roleDir := RoleDir(role)
	return config.DatabaseSource{
		Kind:       config.DatabaseAuto,
		LegacyPath: filepath.Join(configDir, legacyDir, roleDir),
		ParityPath: filepath.Join(configDir, parityDir, roleDir),
		CacheSize:  cacheSize,
	}
}
