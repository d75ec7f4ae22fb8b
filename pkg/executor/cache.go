package executor

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// CodeHash identifies runtime code.
type CodeHash [32]byte

func (h CodeHash) String() string {
	return fmt.Sprintf("0x%x", h[:])
}

// HashCode returns the blake2b-256 hash of code.
func HashCode(code []byte) CodeHash {
	return CodeHash(blake2b.Sum256(code))
}

// cachedModule is a compiled module with the number of calls using it.
// It is closed once it has been evicted and no call holds it.
type cachedModule struct {
	module wazero.CompiledModule

	mu      sync.Mutex
	refs    int
	evicted bool
	closed  bool
}

// acquire takes a reference. It fails once the module is closed.
func (m *cachedModule) acquire() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.refs++
	return true
}

func (m *cachedModule) release() {
	m.mu.Lock()
	m.refs--
	closeNow := m.evicted && m.refs == 0 && !m.closed
	if closeNow {
		m.closed = true
	}
	m.mu.Unlock()

	if closeNow {
		_ = m.module.Close(context.Background())
	}
}

func (m *cachedModule) evict() {
	m.mu.Lock()
	m.evicted = true
	closeNow := m.refs == 0 && !m.closed
	if closeNow {
		m.closed = true
	}
	m.mu.Unlock()

	if closeNow {
		_ = m.module.Close(context.Background())
	}
}

// ModuleCache keeps the most recently used compiled runtimes. An evicted
// module is closed when the last call holding it releases it.
type ModuleCache struct {
	modules *lru.Cache[CodeHash, *cachedModule]
	logger  *zap.Logger
}

// NewModuleCache creates a new ModuleCache holding up to capacity modules.
func NewModuleCache(capacity int, logger *zap.Logger) (*ModuleCache, error) {
	c := &ModuleCache{logger: logger}
	modules, err := lru.NewWithEvict(capacity, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("failed to create module cache: %w", err)
	}
	c.modules = modules
	return c, nil
}

func (c *ModuleCache) onEvict(hash CodeHash, entry *cachedModule) {
	entry.evict()
	c.logger.Debug("Module evicted from cache", zap.Stringer("code_hash", hash))
}

// Acquire returns the cached module for hash and a release func the caller
// must run once done with it.
func (c *ModuleCache) Acquire(hash CodeHash) (wazero.CompiledModule, func(), bool) {
	entry, ok := c.modules.Get(hash)
	if !ok || !entry.acquire() {
		return nil, nil, false
	}
	return entry.module, entry.release, true
}

// Add caches module under hash, evicting the least recently used one when
// full, and acquires it for the caller. When another caller cached the same
// code first, module is closed and the existing one is returned.
func (c *ModuleCache) Add(hash CodeHash, module wazero.CompiledModule) (wazero.CompiledModule, func()) {
	entry := &cachedModule{module: module, refs: 1}
	existing, found, _ := c.modules.PeekOrAdd(hash, entry)
	if !found {
		c.logger.Debug("Module cached",
			zap.Stringer("code_hash", hash),
			zap.Int("cache_size", c.modules.Len()),
		)
		return module, entry.release
	}

	if existing.acquire() {
		_ = module.Close(context.Background())
		return existing.module, existing.release
	}
	// The existing entry was closed in between; use module uncached.
	return module, func() { _ = module.Close(context.Background()) }
}

// Has checks if a module exists in the cache.
func (c *ModuleCache) Has(hash CodeHash) bool {
	return c.modules.Contains(hash)
}

// Len returns the number of cached modules.
func (c *ModuleCache) Len() int {
	return c.modules.Len()
}

// Purge evicts every module.
func (c *ModuleCache) Purge() {
	c.modules.Purge()
}
