package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"go.uber.org/zap"
)

type levelDBStore struct {
	path string
	db   *leveldb.DB

	mu     sync.RWMutex
	closed bool
}

func openLevelDB(path string, cacheMiB int, logger *zap.Logger) (*levelDBStore, error) {
	if cacheMiB < minCache {
		cacheMiB = minCache
	}
	options := &opt.Options{
		OpenFilesCacheCapacity: minHandles * 16,
		BlockCacheCapacity:     cacheMiB / 2 * opt.MiB,
		WriteBuffer:            cacheMiB / 4 * opt.MiB, // Two of these are used internally
	}

	db, err := leveldb.OpenFile(path, options)
	if lerrors.IsCorrupted(err) {
		logger.Warn("Recovering corrupted leveldb database", zap.String("path", path))
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb database at %s: %w", path, err)
	}
	logger.Debug("Allocated leveldb cache", zap.Int("cache_mib", cacheMiB))

	return &levelDBStore{path: path, db: db}, nil
}

func (s *levelDBStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	dat, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return dat, err
}

func (s *levelDBStore) Has(key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrClosed
	}
	return s.db.Has(key, nil)
}

func (s *levelDBStore) Put(key, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.db.Put(key, value, nil)
}

func (s *levelDBStore) Delete(key []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.db.Delete(key, nil)
}

// Close is idempotent.
func (s *levelDBStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *levelDBStore) Engine() Engine { return EngineLevelDB }
func (s *levelDBStore) Path() string   { return s.path }
