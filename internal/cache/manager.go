package cache

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/colthorp/rickmorty-cli-go/internal/api"
	"github.com/colthorp/rickmorty-cli-go/internal/connectivity"
	"github.com/colthorp/rickmorty-cli-go/internal/core"
	"github.com/colthorp/rickmorty-cli-go/internal/logging"
	"github.com/colthorp/rickmorty-cli-go/internal/metrics"
)

// StateSource reports connectivity and notifies about transitions.
// *connectivity.Monitor satisfies it.
type StateSource interface {
	Online() bool
	OnTransition(fn func(connectivity.State))
}

type alwaysOnline struct{}

func (alwaysOnline) Online() bool                         { return true }
func (alwaysOnline) OnTransition(func(connectivity.State)) {}

// Manager is the single entry point for record and image lookups.
//
// # Lookup Rules
//
// Online:
//   - Cached entry for the path: decode and return it, no network.
//   - Otherwise: one network fetch, decode, store, return.
//
// Offline:
//   - FallbackIndex hit: decode the indexed bytes.
//   - Count lookups: synthesize the count from the record count estimate.
//   - Otherwise: one disk read, indexed on success. Nothing on disk is
//     reported as ErrNotFoundInMemory.
//
// Images are always cache-then-network.
type Manager struct {
	transport api.Transport
	backend   Backend
	conn      StateSource
	index     *FallbackIndex
	estimate  atomic.Int64
	log       *zap.Logger
}

// NewManager creates a manager over the given transport and backend.
// If backend is nil, uses the default FilesystemBackend. If conn is nil the
// manager always behaves as online. The estimate is recomputed on every
// transition to offline, and immediately when conn is already offline.
func NewManager(transport api.Transport, backend Backend, conn StateSource, logger *zap.Logger) *Manager {
	log := logging.Named(logger, "cache")
	if backend == nil {
		backend = NewFilesystemBackend("", logger)
	}
	if conn == nil {
		conn = alwaysOnline{}
	}
	m := &Manager{
		transport: transport,
		backend:   backend,
		conn:      conn,
		index:     NewFallbackIndex(),
		log:       log,
	}
	conn.OnTransition(func(s connectivity.State) {
		if s == connectivity.Offline {
			m.RefreshEstimate()
		}
	})
	if !conn.Online() {
		m.RefreshEstimate()
	}
	return m
}

// GetData resolves path into dst following the online/offline lookup rules.
func (m *Manager) GetData(ctx context.Context, path string, dst api.Record) error {
	if err := core.ValidatePath(path); err != nil {
		return err
	}
	if m.conn.Online() {
		return m.getOnline(ctx, path, dst)
	}
	return m.getOffline(path, dst)
}

func (m *Manager) getOnline(ctx context.Context, path string, dst api.Record) error {
	kind := string(dst.RecordKind())

	entry, err := m.backend.Read(path)
	if err != nil {
		return err
	}
	if entry != nil && len(entry.Record) > 0 {
		metrics.RecordCacheLookup(kind, true)
		m.log.Debug("cache hit", zap.String("path", path))
		return api.Decode(path, entry.Record, dst)
	}

	metrics.RecordCacheLookup(kind, false)
	return m.fetch(ctx, path, dst)
}

// fetch performs one network round trip and persists the decoded record.
// Nothing is written when the request or decoding fails.
func (m *Manager) fetch(ctx context.Context, path string, dst api.Record) error {
	m.log.Debug("fetching", zap.String("path", path))

	body, err := m.transport.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := api.Decode(path, body, dst); err != nil {
		return err
	}

	raw, err := api.Encode(dst)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	m.store(&Entry{
		Path:      path,
		Kind:      dst.RecordKind(),
		FetchedAt: time.Now().UTC(),
		Record:    raw,
	})
	return nil
}

func (m *Manager) getOffline(path string, dst api.Record) error {
	if raw, ok := m.index.Get(path); ok {
		metrics.RecordOfflineLookup(metrics.SourceIndex)
		return api.Decode(path, raw, dst)
	}

	if list, ok := dst.(*api.InfoList); ok {
		metrics.RecordOfflineLookup(metrics.SourceEstimate)
		list.Info.Count = m.Estimate()
		return nil
	}

	entry, err := m.backend.Read(path)
	if err != nil {
		return err
	}
	if entry == nil || len(entry.Record) == 0 {
		metrics.RecordOfflineLookup(metrics.SourceMiss)
		return fmt.Errorf("%s: %w", path, ErrNotFoundInMemory)
	}
	if err := api.Decode(path, entry.Record, dst); err != nil {
		return err
	}

	m.index.Insert(path, entry.Record)
	metrics.RecordOfflineLookup(metrics.SourceDisk)
	return nil
}

// store writes entry and logs failures. A failed write never fails the lookup
// that produced the entry.
func (m *Manager) store(entry *Entry) {
	if err := m.backend.Write(entry); err != nil {
		metrics.RecordCacheWriteError()
		m.log.Warn("failed to write cache", zap.String("path", entry.Path), zap.Error(err))
	}
}

// Count returns the number of characters reported by the character list.
func (m *Manager) Count(ctx context.Context) (int, error) {
	var list api.InfoList
	if err := m.GetData(ctx, core.CountPath, &list); err != nil {
		return 0, err
	}
	return list.Info.Count, nil
}

// Character returns the character with the given id.
func (m *Manager) Character(ctx context.Context, id int) (*api.Character, error) {
	var ch api.Character
	if err := m.GetData(ctx, core.CharacterPath(id), &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// Episode returns the episode at path. Full resource URLs are accepted.
func (m *Manager) Episode(ctx context.Context, path string) (*api.Episode, error) {
	var ep api.Episode
	if err := m.GetData(ctx, core.ResourcePath(path), &ep); err != nil {
		return nil, err
	}
	return &ep, nil
}

// FetchImage returns the image at path from the cache, fetching and storing
// it on a miss. Payloads that do not decode as an image are rejected.
func (m *Manager) FetchImage(ctx context.Context, path string) ([]byte, error) {
	path = core.ResourcePath(path)
	if err := core.ValidatePath(path); err != nil {
		return nil, err
	}

	entry, err := m.backend.Read(path)
	if err != nil {
		return nil, err
	}
	if entry != nil && len(entry.Image) > 0 {
		metrics.RecordCacheLookup("image", true)
		return entry.Image, nil
	}
	metrics.RecordCacheLookup("image", false)

	data, err := m.transport.GetImage(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotImage)
	}

	m.store(&Entry{
		Path:      path,
		FetchedAt: time.Now().UTC(),
		Image:     data,
	})
	return data, nil
}

// EraseCache deletes every cached character and episode and clears the
// fallback index.
func (m *Manager) EraseCache() error {
	m.index.Reset()
	if err := m.backend.Erase(); err != nil {
		return fmt.Errorf("failed to erase cache: %w", err)
	}
	m.log.Info("cache erased")
	return nil
}

// RefreshEstimate recomputes the record count estimate from the character
// directory listing. Listing failures keep the previous value.
func (m *Manager) RefreshEstimate() int {
	n, err := m.backend.Count(core.CharacterDir)
	if err != nil {
		m.log.Warn("failed to count cached characters", zap.Error(err))
		return m.Estimate()
	}
	// One entry is the avatar sub-directory.
	est := max(n-1, 0)
	m.estimate.Store(int64(est))
	metrics.SetRecordCountEstimate(est)
	m.log.Debug("record count estimate", zap.Int("estimate", est))
	return est
}

// Estimate returns the current record count estimate.
func (m *Manager) Estimate() int {
	return int(m.estimate.Load())
}

// FallbackSize returns the number of paths in the fallback index.
func (m *Manager) FallbackSize() int {
	return m.index.Len()
}

// Online reports the connectivity state the manager acts on.
func (m *Manager) Online() bool {
	return m.conn.Online()
}

// GetBackend returns the cache backend (for testing).
func (m *Manager) GetBackend() Backend {
	return m.backend
}
