// Package cache provides the persistent object cache and the data-access
// facade for Rick and Morty records.
//
// # Overview
//
// Every record fetched from the API is stored in its own file under the cache
// root, at a location derived from its resource path:
//
//	<root>/character.data              count summary of the character list
//	<root>/character/<id>.data         character records
//	<root>/character/avatar/<id>.jpeg.data
//	<root>/episode/<id>.data           episode records
//
// Files are never evicted or expired. A record, once written for a path, is
// only replaced after the cache is erased.
//
// # Cache File Structure
//
// Each file is a JSON envelope:
//
//	{
//	  "format_version": 1,
//	  "path": "character/1",
//	  "kind": "character",
//	  "fetched_at": "2026-10-17T10:00:00Z",
//	  "record": {...}
//	}
//
// Image files carry "image" (base64) instead of "record". An envelope whose
// format_version differs from the current one is treated as a miss.
//
// # Online and Offline Lookups
//
// While online, the Manager consults the cache first and fetches from the
// network on a miss. While offline it consults, in order, the in-memory
// FallbackIndex, the record count estimate (count lookups only), and a single
// disk read whose result is inserted into the index. A lookup that all three
// miss fails with ErrNotFoundInMemory.
package cache

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/colthorp/rickmorty-cli-go/internal/api"
)

// ErrNotFoundInMemory is returned by offline lookups that neither the
// fallback index nor the disk cache can satisfy.
var ErrNotFoundInMemory = errors.New("record not available offline")

// ErrNotImage is returned when a fetched image payload does not decode as an image.
var ErrNotImage = errors.New("payload is not a supported image")

// Entry is the on-disk envelope of one cached resource.
type Entry struct {
	FormatVersion int             `json:"format_version"`
	Path          string          `json:"path"`
	Kind          api.Kind        `json:"kind,omitempty"`
	FetchedAt     time.Time       `json:"fetched_at"`
	Record        json.RawMessage `json:"record,omitempty"`
	Image         []byte          `json:"image,omitempty"`
}

// Backend is the interface for cache storage backends.
// The default implementation is FilesystemBackend which stores JSON files on disk.
type Backend interface {
	// Read returns the cached entry for path, or nil if absent.
	// Entries written with another format version are reported as absent.
	Read(path string) (*Entry, error)

	// Write persists the entry atomically using temp file + rename.
	Write(entry *Entry) error

	// Count returns the number of direct entries under the cache directory dir.
	Count(dir string) (int, error)

	// Erase removes every cached character and episode.
	Erase() error

	// Path returns the storage location for the given resource path (for debugging).
	Path(path string) string
}
