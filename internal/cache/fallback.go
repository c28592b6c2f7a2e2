package cache

import (
	"sync"

	"github.com/colthorp/rickmorty-cli-go/internal/metrics"
)

// FallbackIndex holds the raw record bytes of every resource served from
// disk while offline. It lives for the process only and keeps at most one
// entry per path: the first offline read wins.
type FallbackIndex struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewFallbackIndex creates an empty index.
func NewFallbackIndex() *FallbackIndex {
	return &FallbackIndex{entries: make(map[string][]byte)}
}

// Get returns the bytes stored for path.
func (f *FallbackIndex) Get(path string) ([]byte, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	raw, ok := f.entries[path]
	return raw, ok
}

// Insert stores raw for path unless an entry already exists.
// It reports whether the entry was added.
func (f *FallbackIndex) Insert(path string, raw []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[path]; ok {
		return false
	}
	f.entries[path] = append([]byte(nil), raw...)
	metrics.SetFallbackIndexSize(len(f.entries))
	return true
}

// Len returns the number of indexed paths.
func (f *FallbackIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// Reset drops every entry.
func (f *FallbackIndex) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[string][]byte)
	metrics.SetFallbackIndexSize(0)
}
