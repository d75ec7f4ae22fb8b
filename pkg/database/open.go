package database

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/fullnode/pkg/config"
)

// Engine names a storage engine.
type Engine string

const (
	EngineLevelDB Engine = "leveldb"
	EnginePebble  Engine = "pebble"
)

// Preexisting returns the engine of a database already present in path, or
// the empty string when there is none.
func Preexisting(path string) Engine {
	if _, err := os.Stat(filepath.Join(path, "CURRENT")); err != nil {
		return ""
	}
	// Only pebble writes OPTIONS files
	if matches, err := filepath.Glob(filepath.Join(path, "OPTIONS*")); err == nil && len(matches) > 0 {
		return EnginePebble
	}
	return EngineLevelDB
}

// Open opens the store described by src.
//
//	                      newer layout present   newer layout absent
//	                   +-----------------------------------------------
//	legacy absent      |  open newer           |  create pebble (newer)
//	legacy present     |  open newer           |  open legacy
func Open(src config.DatabaseSource, logger *zap.Logger) (Store, error) {
	if src.Kind != config.DatabaseAuto {
		return nil, fmt.Errorf("unsupported database kind %q", src.Kind)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		store Store
		err   error
	)
	path, engine := resolve(src)
	switch engine {
	case EnginePebble:
		logger.Info("Using pebble as the backing database", zap.String("path", path))
		store, err = openPebble(path, src.CacheSize, logger)
	case EngineLevelDB:
		logger.Info("Using leveldb as the backing database", zap.String("path", path))
		store, err = openLevelDB(path, src.CacheSize, logger)
	default:
		logger.Info("Defaulting to pebble as the backing database", zap.String("path", path))
		store, err = openPebble(path, src.CacheSize, logger)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// resolve picks the directory and engine to use. An empty engine means
// nothing exists yet.
func resolve(src config.DatabaseSource) (string, Engine) {
	if e := Preexisting(src.ParityPath); e != "" {
		return src.ParityPath, e
	}
	if e := Preexisting(src.LegacyPath); e != "" {
		return src.LegacyPath, e
	}
	return src.ParityPath, ""
}
