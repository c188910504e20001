package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryIndex is an in-process fingerprint index with LRU eviction. It
// fronts the persistent index; evicting an entry here never removes the
// entry or its artifacts from disk.
type MemoryIndex struct {
	capacity int // Maximum number of entries

	// LRU implementation
	items    map[string]*list.Element
	eviction *list.List

	mu sync.Mutex
}

var _ Index = (*MemoryIndex)(nil)

// memoryEntry represents an entry in the memory index
type memoryEntry struct {
	fingerprint string
	artifacts   []string
	timestamp   time.Time
	hits        int64
}

// NewMemoryIndex creates an index holding up to capacity entries. A
// capacity of zero or less means unbounded.
func NewMemoryIndex(capacity int) *MemoryIndex {
	return &MemoryIndex{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
}

// Get returns the artifact names stored for fingerprint.
func (m *MemoryIndex) Get(_ context.Context, fingerprint string) ([]string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[fingerprint]
	if !ok {
		return nil, false, nil
	}

	// Move to front (most recently used)
	m.eviction.MoveToFront(elem)
	entry := elem.Value.(*memoryEntry)
	entry.hits++

	return clone(entry.artifacts), true, nil
}

// Put records the artifact names for fingerprint.
func (m *MemoryIndex) Put(_ context.Context, fingerprint string, artifacts []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[fingerprint]; ok {
		m.eviction.MoveToFront(elem)
		entry := elem.Value.(*memoryEntry)
		entry.artifacts = clone(artifacts)
		entry.timestamp = time.Now()
		return nil
	}

	for m.capacity > 0 && m.eviction.Len() >= m.capacity {
		m.evictOldest()
	}

	elem := m.eviction.PushFront(&memoryEntry{
		fingerprint: fingerprint,
		artifacts:   clone(artifacts),
		timestamp:   time.Now(),
	})
	m.items[fingerprint] = elem
	return nil
}

// Delete removes the entry for fingerprint.
func (m *MemoryIndex) Delete(_ context.Context, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[fingerprint]; ok {
		m.removeElement(elem)
	}
	return nil
}

// Len returns the number of entries.
func (m *MemoryIndex) Len(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.items)), nil
}

// Clear removes all entries.
func (m *MemoryIndex) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]*list.Element)
	m.eviction.Init()
	return nil
}

// Close is a no-op.
func (m *MemoryIndex) Close() error {
	return nil
}

// evictOldest removes the least recently used item (must be called with lock held).
func (m *MemoryIndex) evictOldest() {
	if elem := m.eviction.Back(); elem != nil {
		m.removeElement(elem)
	}
}

// removeElement removes an element from the index (must be called with lock held).
func (m *MemoryIndex) removeElement(elem *list.Element) {
	m.eviction.Remove(elem)
	delete(m.items, elem.Value.(*memoryEntry).fingerprint)
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
