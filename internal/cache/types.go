package cache

import (
	"context"
	"errors"
	"time"
)

// Common errors for cache operations
var (
	// ErrArtifactMissing is returned when an artifact file is gone from disk.
	ErrArtifactMissing = errors.New("artifact missing")

	// ErrCacheMiss is returned when a fingerprint is not indexed.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheCorrupted is returned when cache data cannot be decoded.
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Level identifies where a lookup was answered.
type Level int

const (
	// LevelMemory is the in-process fingerprint index.
	LevelMemory Level = iota

	// LevelIndex is the persistent fingerprint index.
	LevelIndex

	// LevelMirror is the remote mirror.
	LevelMirror
)

// String returns the string representation of the cache level
func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelIndex:
		return "index"
	case LevelMirror:
		return "mirror"
	default:
		return "unknown"
	}
}

// Stats holds cache counters and disk usage.
type Stats struct {
	// Lookups
	Hits       int64
	MemoryHits int64
	IndexHits  int64
	MirrorHits int64
	Misses     int64
	HitRate    float64

	// Stored entries
	Entries   int64
	Artifacts int64
	DiskBytes int64

	LastAccess time.Time
}

// Entry is one fingerprint together with its ordered artifact names, as
// recorded in the persistent index.
type Entry struct {
	Fingerprint string
	Artifacts   []string
	CreatedAt   time.Time
}

// Index persists fingerprint to artifact name lists.
type Index interface {
	Get(ctx context.Context, fingerprint string) ([]string, bool, error)
	Put(ctx context.Context, fingerprint string, artifacts []string) error
	Delete(ctx context.Context, fingerprint string) error
	Len(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
	Close() error
}

// Mirror shares entries with other machines.
type Mirror interface {
	// Fetch downloads the entry for fingerprint into store and returns the
	// artifact names in order.
	Fetch(ctx context.Context, fingerprint string, store *DiskStore) ([]string, error)

	// Push uploads an entry and its artifacts.
	Push(ctx context.Context, fingerprint string, artifacts []string, store *DiskStore) error
}
