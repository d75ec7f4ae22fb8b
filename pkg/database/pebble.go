package database

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"
)

const (
	// minCache is the minimum cache in MiB
	minCache = 16
	// minHandles is the minimum number of open files
	minHandles = 16
)

type pebbleStore struct {
	path string
	db   *pebble.DB
	wo   *pebble.WriteOptions

	mu     sync.RWMutex
	closed bool
}

func openPebble(path string, cacheMiB int, logger *zap.Logger) (*pebbleStore, error) {
	if cacheMiB < minCache {
		cacheMiB = minCache
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", path, err)
	}

	cache := pebble.NewCache(int64(cacheMiB) * 1024 * 1024)
	defer cache.Unref()

	// Two memtables, one live and one frozen, share half the allowance
	memTableLimit := 2
	opts := &pebble.Options{
		Cache:                       cache,
		MaxOpenFiles:                minHandles * 16,
		MemTableSize:                uint64(cacheMiB * 1024 * 1024 / 2 / memTableLimit),
		MemTableStopWritesThreshold: memTableLimit,
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database at %s: %w", path, err)
	}
	logger.Debug("Allocated pebble cache", zap.Int("cache_mib", cacheMiB))

	return &pebbleStore{path: path, db: db, wo: pebble.Sync}, nil
}

func (s *pebbleStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	dat, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ret := make([]byte, len(dat))
	copy(ret, dat)
	if err := closer.Close(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *pebbleStore) Has(key []byte) (bool, error) {
	_, err := s.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *pebbleStore) Put(key, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.db.Set(key, value, s.wo)
}

func (s *pebbleStore) Delete(key []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.db.Delete(key, s.wo)
}

// Close is idempotent.
func (s *pebbleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *pebbleStore) Engine() Engine { return EnginePebble }
func (s *pebbleStore) Path() string   { return s.path }
