package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colthorp/rickmorty-cli-go/internal/api"
	"github.com/colthorp/rickmorty-cli-go/internal/connectivity"
	"github.com/colthorp/rickmorty-cli-go/internal/core"
)

type stubProber struct{ err error }

func (p stubProber) Probe(context.Context) error { return p.err }

func onlineMonitor(t *testing.T) *connectivity.Monitor {
	t.Helper()
	m := connectivity.NewMonitor(stubProber{}, 0, nil)
	require.Equal(t, connectivity.Online, m.Snapshot(context.Background()))
	return m
}

func offlineMonitor(t *testing.T) *connectivity.Monitor {
	t.Helper()
	m := connectivity.NewMonitor(stubProber{err: errors.New("unreachable")}, 0, nil)
	require.Equal(t, connectivity.Offline, m.Snapshot(context.Background()))
	return m
}

func characterJSON(id int, name string) string {
	return fmt.Sprintf(`{
		"id": %d,
		"name": %q,
		"status": "Alive",
		"location": {"name": "Earth (C-137)", "url": "https://rickandmortyapi.com/api/location/1"},
		"image": "https://rickandmortyapi.com/api/character/avatar/%d.jpeg",
		"episode": ["https://rickandmortyapi.com/api/episode/1"],
		"url": "https://rickandmortyapi.com/api/character/%d"
	}`, id, name, id, id)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

// failingBackend rejects every write and listing.
type failingBackend struct {
	*MemoryBackend
}

func (failingBackend) Write(*Entry) error { return errors.New("disk full") }

func (failingBackend) Count(string) (int, error) { return 0, errors.New("permission denied") }

func TestManagerFetchesOnceThenServesCache(t *testing.T) {
	transport := api.NewInMemoryTransport()
	transport.Seed("character/1", characterJSON(1, "Rick Sanchez"))
	backend := NewMemoryBackend()
	manager := NewManager(transport, backend, onlineMonitor(t), nil)

	first, err := manager.Character(context.Background(), 1)
	require.NoError(t, err)
	second, err := manager.Character(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "Rick Sanchez", first.Name)
	assert.Equal(t, first, second, "cached record decodes to the fetched one")
	assert.Equal(t, 1, transport.RequestsMade())
	assert.Equal(t, 1, backend.Len())
}

func TestManagerFailedFetchWritesNothing(t *testing.T) {
	tests := []struct {
		name  string
		seed  string
		check func(t *testing.T, err error)
	}{
		{"not found", "", func(t *testing.T, err error) {
			var apiErr *api.APIError
			assert.ErrorAs(t, err, &apiErr)
		}},
		{"schema mismatch", `{"error":"There is nothing here"}`, func(t *testing.T, err error) {
			var decodeErr *api.DecodeError
			assert.ErrorAs(t, err, &decodeErr)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := api.NewInMemoryTransport()
			if tt.seed != "" {
				transport.Seed("character/1", tt.seed)
			}
			backend := NewMemoryBackend()
			manager := NewManager(transport, backend, nil, nil)

			_, err := manager.Character(context.Background(), 1)
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, 0, backend.Len())
		})
	}
}

func TestManagerTransportErrorWritesNothing(t *testing.T) {
	transport := api.NewInMemoryTransport()
	transport.Fail("character/", &api.TransportError{Path: "character/", Err: errors.New("connection refused")})
	backend := NewMemoryBackend()
	manager := NewManager(transport, backend, nil, nil)

	_, err := manager.Count(context.Background())
	var transportErr *api.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 0, backend.Len())
}

func TestManagerWriteFailureStillReturnsRecord(t *testing.T) {
	transport := api.NewInMemoryTransport()
	transport.Seed("episode/1", `{"name":"Pilot"}`)
	manager := NewManager(transport, failingBackend{NewMemoryBackend()}, nil, nil)

	ep, err := manager.Episode(context.Background(), "https://rickandmortyapi.com/api/episode/1")
	require.NoError(t, err)
	assert.Equal(t, "Pilot", ep.Name)
}

func TestManagerEstimateRecomputedOnOffline(t *testing.T) {
	backend := NewFilesystemBackend(t.TempDir(), nil)
	for i := 1; i <= 10; i++ {
		require.NoError(t, backend.Write(&Entry{Path: core.CharacterPath(i), Kind: api.KindCharacter, Record: json.RawMessage(`{}`)}))
	}

	monitor := onlineMonitor(t)
	transport := api.NewInMemoryTransport()
	manager := NewManager(transport, backend, monitor, nil)
	assert.Equal(t, 0, manager.Estimate())

	monitor.Report(false)
	assert.Equal(t, 10, manager.Estimate(), "11 entries minus the avatar directory")

	count, err := manager.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, count)
	assert.Equal(t, 0, transport.RequestsMade())
}

func TestManagerEstimateKeptOnListingFailure(t *testing.T) {
	manager := NewManager(api.NewInMemoryTransport(), failingBackend{NewMemoryBackend()}, nil, nil)
	manager.estimate.Store(7)

	assert.Equal(t, 7, manager.RefreshEstimate())
	assert.Equal(t, 7, manager.Estimate())
}

func TestManagerOfflinePopulatesFallbackIndex(t *testing.T) {
	backend := NewMemoryBackend()
	backend.Seed(&Entry{Path: "character/1", Kind: api.KindCharacter, Record: json.RawMessage(characterJSON(1, "Rick Sanchez"))})
	transport := api.NewInMemoryTransport()
	manager := NewManager(transport, backend, offlineMonitor(t), nil)
	readsBefore := backend.Reads()

	first, err := manager.Character(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Rick Sanchez", first.Name)
	assert.Equal(t, 1, manager.FallbackSize())
	assert.Equal(t, readsBefore+1, backend.Reads())

	second, err := manager.Character(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, readsBefore+1, backend.Reads(), "second read is served from the index")
	assert.Equal(t, 1, manager.FallbackSize())
	assert.Equal(t, 0, transport.RequestsMade())
}

func TestManagerOfflineMiss(t *testing.T) {
	transport := api.NewInMemoryTransport()
	transport.Seed("character/2", characterJSON(2, "Morty Smith"))
	manager := NewManager(transport, NewMemoryBackend(), offlineMonitor(t), nil)

	_, err := manager.Character(context.Background(), 2)
	assert.ErrorIs(t, err, ErrNotFoundInMemory)
	assert.Equal(t, 0, transport.RequestsMade(), "offline lookups never touch the network")
	assert.Equal(t, 0, manager.FallbackSize())
}

func TestManagerEraseForcesRefetch(t *testing.T) {
	transport := api.NewInMemoryTransport()
	transport.Seed("character/1", characterJSON(1, "Rick Sanchez"))
	manager := NewManager(transport, NewFilesystemBackend(t.TempDir(), nil), nil, nil)

	_, err := manager.Character(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, manager.EraseCache())

	_, err = manager.Character(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, transport.RequestsFor("character/1"))
}

func TestManagerEraseClearsFallbackIndex(t *testing.T) {
	backend := NewMemoryBackend()
	backend.Seed(&Entry{Path: "character/1", Record: json.RawMessage(characterJSON(1, "Rick Sanchez"))})
	manager := NewManager(api.NewInMemoryTransport(), backend, offlineMonitor(t), nil)

	_, err := manager.Character(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, manager.FallbackSize())

	require.NoError(t, manager.EraseCache())
	assert.Equal(t, 0, manager.FallbackSize())
	_, err = manager.Character(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFoundInMemory)
}

func TestManagerServesPreviousRunOffline(t *testing.T) {
	root := t.TempDir()

	// First run, online.
	transport := api.NewInMemoryTransport()
	transport.Seed("character/", `{"info":{"count":826,"pages":42}}`)
	transport.Seed("character/1", characterJSON(1, "Rick Sanchez"))
	online := NewManager(transport, NewFilesystemBackend(root, nil), onlineMonitor(t), nil)

	count, err := online.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 826, count)
	_, err = online.Character(context.Background(), 1)
	require.NoError(t, err)

	// Restart without connectivity.
	offlineTransport := api.NewInMemoryTransport()
	offline := NewManager(offlineTransport, NewFilesystemBackend(root, nil), offlineMonitor(t), nil)

	rick, err := offline.Character(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, rick.ID)
	assert.Equal(t, "Rick Sanchez", rick.Name)

	count, err = offline.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count, "count comes from the cached character listing")
	assert.Equal(t, 0, offlineTransport.RequestsMade())
}

func TestManagerFetchImage(t *testing.T) {
	transport := api.NewInMemoryTransport()
	img := pngBytes(t)
	transport.SeedImage("character/avatar/1.jpeg", img)
	transport.SeedImage("character/avatar/2.jpeg", []byte("<html>not an image</html>"))
	backend := NewMemoryBackend()
	manager := NewManager(transport, backend, nil, nil)

	got, err := manager.FetchImage(context.Background(), "https://rickandmortyapi.com/api/character/avatar/1.jpeg")
	require.NoError(t, err)
	assert.Equal(t, img, got)

	got, err = manager.FetchImage(context.Background(), "character/avatar/1.jpeg")
	require.NoError(t, err)
	assert.Equal(t, img, got)
	assert.Equal(t, 1, transport.RequestsFor("character/avatar/1.jpeg"))

	_, err = manager.FetchImage(context.Background(), "character/avatar/2.jpeg")
	assert.ErrorIs(t, err, ErrNotImage)
	assert.Equal(t, 1, backend.Len(), "invalid payloads are not cached")
}

func TestManagerRejectsInvalidPath(t *testing.T) {
	transport := api.NewInMemoryTransport()
	manager := NewManager(transport, NewMemoryBackend(), nil, nil)

	var ep api.Episode
	assert.Error(t, manager.GetData(context.Background(), "../secrets", &ep))
	assert.Equal(t, 0, transport.RequestsMade())
}

func TestManagerPrefetch(t *testing.T) {
	transport := api.NewInMemoryTransport()
	img := pngBytes(t)
	for id := 1; id <= 5; id++ {
		transport.Seed(core.CharacterPath(id), characterJSON(id, fmt.Sprintf("Character %d", id)))
		transport.SeedImage(core.AvatarPath(id), img)
	}
	manager := NewManager(transport, NewMemoryBackend(), nil, nil)

	var ids []int
	for res := range manager.Prefetch(context.Background(), 1, 6, 2) {
		ids = append(ids, res.ID)
		if res.ID == 6 {
			var apiErr *api.APIError
			assert.ErrorAs(t, res.Err, &apiErr)
			continue
		}
		require.NoError(t, res.Err)
		require.NoError(t, res.AvatarErr)
		assert.Equal(t, res.ID, res.Character.ID)
		assert.Equal(t, img, res.Avatar)
	}
	sort.Ints(ids)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, ids)
	assert.Equal(t, 11, transport.RequestsMade())

	// Everything is cached now.
	for range manager.Prefetch(context.Background(), 1, 5, 2) {
	}
	assert.Equal(t, 11, transport.RequestsMade())
}

func TestManagerPrefetchOfflineSkipsAvatars(t *testing.T) {
	backend := NewMemoryBackend()
	backend.Seed(&Entry{Path: "character/1", Record: json.RawMessage(characterJSON(1, "Rick Sanchez"))})
	transport := api.NewInMemoryTransport()
	manager := NewManager(transport, backend, offlineMonitor(t), nil)

	var results []PrefetchResult
	for res := range manager.Prefetch(context.Background(), 1, 2, 0) {
		results = append(results, res)
	}
	require.Len(t, results, 2)
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })

	assert.NoError(t, results[0].Err)
	assert.Nil(t, results[0].Avatar)
	assert.ErrorIs(t, results[1].Err, ErrNotFoundInMemory)
	assert.Equal(t, 0, transport.RequestsMade())
}

func TestManagerPrefetchCancelled(t *testing.T) {
	manager := NewManager(api.NewInMemoryTransport(), NewMemoryBackend(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := 0
	for range manager.Prefetch(ctx, 1, 100, 4) {
		n++
	}
	assert.Zero(t, n)
}

func TestManagerPrefetchCancelAfterPartialRead(t *testing.T) {
	manager := NewManager(api.NewInMemoryTransport(), NewMemoryBackend(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := manager.Prefetch(ctx, 1, 500, 2)
	<-results
	cancel()

	done := make(chan struct{})
	go func() {
		for range results {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("prefetch channel not closed after cancel")
	}
}

func TestFallbackIndexFirstInsertWins(t *testing.T) {
	index := NewFallbackIndex()

	assert.True(t, index.Insert("character/1", []byte(`{"name":"first"}`)))
	assert.False(t, index.Insert("character/1", []byte(`{"name":"second"}`)))

	raw, ok := index.Get("character/1")
	require.True(t, ok)
	assert.Equal(t, `{"name":"first"}`, string(raw))
	assert.Equal(t, 1, index.Len())

	index.Reset()
	_, ok = index.Get("character/1")
	assert.False(t, ok)
}
