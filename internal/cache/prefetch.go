package cache

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/colthorp/rickmorty-cli-go/internal/api"
	"github.com/colthorp/rickmorty-cli-go/internal/core"
)

// PrefetchResult is the outcome of warming one character.
type PrefetchResult struct {
	ID        int
	Character *api.Character
	Avatar    []byte
	Err       error
	AvatarErr error
}

// Prefetch loads characters from..to inclusive, and their avatars while
// online, using at most workers concurrent lookups. Results are delivered in
// completion order; the channel is closed when every id is done or ctx is
// cancelled. Callers must drain the channel or cancel ctx, otherwise the
// workers block on send.
func (m *Manager) Prefetch(ctx context.Context, from, to, workers int) <-chan PrefetchResult {
	if workers <= 0 {
		workers = core.DefaultParallel
	}
	ch := make(chan PrefetchResult, workers)

	go func() {
		defer close(ch)

		var g errgroup.Group
		g.SetLimit(workers)

		for id := from; id <= to; id++ {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				res := m.prefetchOne(ctx, id)
				select {
				case ch <- res:
				case <-ctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	return ch
}

func (m *Manager) prefetchOne(ctx context.Context, id int) PrefetchResult {
	res := PrefetchResult{ID: id}

	character, err := m.Character(ctx, id)
	if err != nil {
		m.log.Debug("prefetch failed", zap.Int("id", id), zap.Error(err))
		res.Err = err
		return res
	}
	res.Character = character

	if !m.Online() {
		return res
	}

	avatar := core.ResourcePath(character.Image)
	if avatar == "" {
		avatar = core.AvatarPath(id)
	}
	res.Avatar, res.AvatarErr = m.FetchImage(ctx, avatar)
	if res.AvatarErr != nil {
		m.log.Debug("avatar prefetch failed", zap.Int("id", id), zap.Error(res.AvatarErr))
	}
	return res
}
