package store

import (
	"sync"

	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/cache"
)

// MemoryStore is a concurrency-safe in-memory cache of parsed dataset
// documents. It sits in front of the on-disk JSON cache so API reads don't
// re-parse a multi-megabyte file on every request. Entries are invalidated
// whenever the disk cache is rewritten.
type MemoryStore struct {
	mu sync.RWMutex

	// key: dataset family, value: last parsed document
	docs map[string]*cache.Document
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*cache.Document),
	}
}

// Get returns the cached document for a dataset, if present.
func (s *MemoryStore) Get(key string) (*cache.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[key]
	return doc, ok
}

// Put stores the parsed document for a dataset.
func (s *MemoryStore) Put(key string, doc *cache.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[key] = doc
}

// Invalidate drops the cached document for a dataset, forcing the next read
// to go back to disk.
func (s *MemoryStore) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, key)
}
