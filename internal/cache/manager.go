package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Cache answers fingerprint lookups from memory, then the persistent index,
// then the mirror. It only ever returns a complete artifact list whose files
// are all present on disk.
type Cache struct {
	store  *DiskStore
	memory *MemoryIndex
	index  Index
	mirror Mirror

	// namespace separates entries produced by different engines.
	namespace string

	mu    sync.Mutex
	stats Stats
}

// Option configures a Cache.
type Option func(*Cache)

// WithMirror shares entries through m.
func WithMirror(m Mirror) Option {
	return func(c *Cache) { c.mirror = m }
}

// WithNamespace keeps entries for different engines apart.
func WithNamespace(ns string) Option {
	return func(c *Cache) { c.namespace = ns }
}

// WithMemoryEntries bounds the in-memory index.
func WithMemoryEntries(n int) Option {
	return func(c *Cache) { c.memory = NewMemoryIndex(n) }
}

// New creates a cache over store and index. index may be nil, in which case
// entries live only in memory for the life of the process.
func New(store *DiskStore, index Index, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		index:  index,
		memory: NewMemoryIndex(1024),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Artifacts returns the artifact store.
func (c *Cache) Artifacts() *DiskStore {
	return c.store
}

func (c *Cache) key(fingerprint string) string {
	if c.namespace == "" {
		return fingerprint
	}
	return c.namespace + ":" + fingerprint
}

// Lookup returns the artifact locations recorded for fingerprint.
func (c *Cache) Lookup(ctx context.Context, fingerprint string) ([]string, bool) {
	key := c.key(fingerprint)

	if names, ok, _ := c.memory.Get(ctx, key); ok {
		if locations, ok := c.resolve(names); ok {
			c.hit(LevelMemory)
			return locations, true
		}
		c.memory.Delete(ctx, key)
	}

	if c.index != nil {
		names, ok, err := c.index.Get(ctx, key)
		if err != nil {
			log.Warn("Cache index lookup failed", "fingerprint", fingerprint, "err", err)
		}
		if ok {
			if locations, ok := c.resolve(names); ok {
				c.memory.Put(ctx, key, names)
				c.hit(LevelIndex)
				return locations, true
			}
			log.Debug("Cache entry has missing artifacts", "fingerprint", fingerprint)
		}
	}

	if c.mirror != nil {
		names, err := c.mirror.Fetch(ctx, key, c.store)
		if err == nil {
			if locations, ok := c.resolve(names); ok {
				c.remember(ctx, key, names)
				c.hit(LevelMirror)
				return locations, true
			}
		} else if !errors.Is(err, ErrCacheMiss) {
			log.Warn("Cache mirror fetch failed", "fingerprint", fingerprint, "err", err)
		}
	}

	c.miss()
	return nil, false
}

// Store records a complete artifact list for fingerprint.
func (c *Cache) Store(ctx context.Context, fingerprint string, locations []string) error {
	if len(locations) == 0 {
		return errors.New("refusing to store an empty artifact list")
	}
	names := make([]string, len(locations))
	for i, loc := range locations {
		if !c.store.Exists(c.store.Path(loc)) {
			return fmt.Errorf("%w: %s", ErrArtifactMissing, loc)
		}
		names[i] = c.store.Name(loc)
	}

	key := c.key(fingerprint)
	if err := c.remember(ctx, key, names); err != nil {
		return err
	}

	if c.mirror != nil {
		if err := c.mirror.Push(ctx, key, names, c.store); err != nil {
			log.Warn("Cache mirror push failed", "fingerprint", fingerprint, "err", err)
		}
	}
	return nil
}

func (c *Cache) remember(ctx context.Context, key string, names []string) error {
	c.memory.Put(ctx, key, names)
	if c.index == nil {
		return nil
	}
	if err := c.index.Put(ctx, key, names); err != nil {
		return fmt.Errorf("failed to record cache entry: %w", err)
	}
	return nil
}

// resolve maps names to locations, failing if any artifact is gone.
func (c *Cache) resolve(names []string) ([]string, bool) {
	if len(names) == 0 {
		return nil, false
	}
	locations := make([]string, len(names))
	for i, name := range names {
		loc := c.store.Path(name)
		if !c.store.Exists(loc) {
			return nil, false
		}
		locations[i] = loc
	}
	return locations, true
}

// Clear removes every entry and artifact.
func (c *Cache) Clear(ctx context.Context) error {
	c.memory.Clear(ctx)
	if c.index != nil {
		if err := c.index.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
	}
	return c.store.Clear()
}

// Stats returns lookup counters and disk usage.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	c.mu.Lock()
	stats := c.stats
	c.mu.Unlock()

	if lookups := stats.Hits + stats.Misses; lookups > 0 {
		stats.HitRate = float64(stats.Hits) / float64(lookups)
	}

	var err error
	if c.index != nil {
		stats.Entries, err = c.index.Len(ctx)
	} else {
		stats.Entries, err = c.memory.Len(ctx)
	}
	if err != nil {
		return stats, err
	}

	stats.Artifacts, stats.DiskBytes, err = c.store.Usage()
	return stats, err
}

// Close closes the index and the store.
func (c *Cache) Close() error {
	var errs []error
	if c.index != nil {
		errs = append(errs, c.index.Close())
	}
	errs = append(errs, c.store.Close())
	return errors.Join(errs...)
}

func (c *Cache) hit(level Level) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Hits++
	c.stats.LastAccess = time.Now()
	switch level {
	case LevelMemory:
		c.stats.MemoryHits++
	case LevelIndex:
		c.stats.IndexHits++
	case LevelMirror:
		c.stats.MirrorHits++
	}
	log.Debug("Cache hit", "level", level)
}

func (c *Cache) miss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Misses++
	c.stats.LastAccess = time.Now()
}
