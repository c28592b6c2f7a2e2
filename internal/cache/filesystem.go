package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/colthorp/rickmorty-cli-go/internal/core"
	"github.com/colthorp/rickmorty-cli-go/internal/logging"
)

// FilesystemBackend stores JSON envelopes on disk.
// Directory layout: <root>/character/, <root>/character/avatar/, <root>/episode/
type FilesystemBackend struct {
	root      string
	writeLock sync.Mutex
	log       *zap.Logger
}

// NewFilesystemBackend creates a new filesystem-based cache backend.
func NewFilesystemBackend(root string, logger *zap.Logger) *FilesystemBackend {
	if root == "" {
		root = core.CacheRoot()
	}
	return &FilesystemBackend{
		root: root,
		log:  logging.Named(logger, "cache"),
	}
}

// Root returns the cache root directory.
func (b *FilesystemBackend) Root() string {
	return b.root
}

// Path returns the filesystem path for the given resource path.
// A trailing slash is dropped so list paths land beside their directory.
func (b *FilesystemBackend) Path(path string) string {
	rel := strings.TrimSuffix(path, "/")
	return filepath.Join(b.root, filepath.FromSlash(rel)) + core.CacheFileExt
}

// Read returns the cached entry for path or nil if absent.
func (b *FilesystemBackend) Read(path string) (*Entry, error) {
	if err := core.ValidatePath(path); err != nil {
		return nil, err
	}
	file := b.Path(path)

	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("corrupt cache file %s: %w", file, err)
	}
	if entry.FormatVersion != core.CacheFormatVersion {
		b.log.Warn("ignoring cache file with unexpected format version",
			zap.String("path", path),
			zap.Int("version", entry.FormatVersion),
			zap.Int("expected", core.CacheFormatVersion),
		)
		return nil, nil
	}
	return &entry, nil
}

// Write persists the entry atomically.
func (b *FilesystemBackend) Write(entry *Entry) error {
	if err := core.ValidatePath(entry.Path); err != nil {
		return err
	}
	file := b.Path(entry.Path)

	stored := *entry
	stored.FormatVersion = core.CacheFormatVersion
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	b.writeLock.Lock()
	defer b.writeLock.Unlock()

	b.ensureLayout()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return err
	}

	// Write to temp file first, then rename (atomic)
	tmpPath := file + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, file); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// ensureLayout creates the well-known cache directories. Failures are logged
// and retried on the next write.
func (b *FilesystemBackend) ensureLayout() {
	for _, dir := range []string{core.CharacterDir, core.AvatarDir, core.EpisodeDir} {
		full := filepath.Join(b.root, filepath.FromSlash(dir))
		if err := os.MkdirAll(full, 0755); err != nil {
			b.log.Warn("failed to create cache directory", zap.String("dir", full), zap.Error(err))
		}
	}
}

// Count returns the number of directory entries directly under dir.
func (b *FilesystemBackend) Count(dir string) (int, error) {
	dir = strings.TrimSuffix(dir, "/")
	if err := core.ValidatePath(dir); err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(filepath.Join(b.root, filepath.FromSlash(dir)))
	if err != nil {
		return 0, fmt.Errorf("failed to list cache directory: %w", err)
	}
	return len(entries), nil
}

// Erase removes the character and episode trees together with their
// list summaries.
func (b *FilesystemBackend) Erase() error {
	b.writeLock.Lock()
	defer b.writeLock.Unlock()

	var errs []error
	for _, dir := range []string{core.CharacterDir, core.EpisodeDir} {
		full := filepath.Join(b.root, dir)
		if err := os.RemoveAll(full); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", full, err))
		}
		if err := os.Remove(full + core.CacheFileExt); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", full+core.CacheFileExt, err))
		}
	}
	return errors.Join(errs...)
}
