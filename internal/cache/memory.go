package cache

import (
	"strings"
	"sync"

	"github.com/colthorp/rickmorty-cli-go/internal/core"
)

// MemoryBackend is an in-memory cache backend for testing.
type MemoryBackend struct {
	entries map[string]*Entry
	reads   int
	mu      sync.RWMutex
}

// NewMemoryBackend creates a new in-memory cache backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]*Entry),
	}
}

// Path returns a dummy path for the given resource path.
func (b *MemoryBackend) Path(path string) string {
	return strings.TrimSuffix(path, "/") + core.CacheFileExt
}

// Read returns the cached entry for path or nil if absent.
func (b *MemoryBackend) Read(path string) (*Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.reads++
	if entry, ok := b.entries[path]; ok && entry.FormatVersion == core.CacheFormatVersion {
		// Return a copy to prevent mutation
		return copyEntry(entry), nil
	}
	return nil, nil
}

// Write persists the entry.
func (b *MemoryBackend) Write(entry *Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored := copyEntry(entry)
	stored.FormatVersion = core.CacheFormatVersion
	b.entries[entry.Path] = stored
	return nil
}

// Count returns the number of distinct direct children under dir, counting
// sub-directories once.
func (b *MemoryBackend) Count(dir string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	prefix := strings.TrimSuffix(dir, "/") + "/"
	children := make(map[string]bool)
	for path := range b.entries {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || rest == "" {
			continue
		}
		child, _, _ := strings.Cut(rest, "/")
		children[child] = true
	}
	return len(children), nil
}

// Erase removes every character and episode entry.
func (b *MemoryBackend) Erase() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for path := range b.entries {
		top, _, _ := strings.Cut(path, "/")
		if top == core.CharacterDir || top == core.EpisodeDir {
			delete(b.entries, path)
		}
	}
	return nil
}

// Reads returns how many Read calls were served (for testing).
func (b *MemoryBackend) Reads() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.reads
}

// Len returns the number of stored entries (for testing).
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Reset clears all entries (for testing).
func (b *MemoryBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[string]*Entry)
	b.reads = 0
}

// Seed adds entries directly (for testing).
func (b *MemoryBackend) Seed(entries ...*Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, entry := range entries {
		stored := copyEntry(entry)
		if stored.FormatVersion == 0 {
			stored.FormatVersion = core.CacheFormatVersion
		}
		b.entries[entry.Path] = stored
	}
}

func copyEntry(entry *Entry) *Entry {
	c := *entry
	c.Record = append([]byte(nil), entry.Record...)
	c.Image = append([]byte(nil), entry.Image...)
	return &c
}
