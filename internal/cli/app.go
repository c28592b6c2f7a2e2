package cli

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/colthorp/rickmorty-cli-go/internal/api"
	"github.com/colthorp/rickmorty-cli-go/internal/cache"
	"github.com/colthorp/rickmorty-cli-go/internal/config"
	"github.com/colthorp/rickmorty-cli-go/internal/connectivity"
	"github.com/colthorp/rickmorty-cli-go/internal/core"
	"github.com/colthorp/rickmorty-cli-go/internal/logging"
	"github.com/colthorp/rickmorty-cli-go/internal/settings"
)

// app wires the client, cache, connectivity monitor and settings together.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	client   *api.Client
	backend  *cache.FilesystemBackend
	monitor  *connectivity.Monitor
	manager  *cache.Manager
	settings *settings.SQLiteStore
}

// newApp builds the application graph. The initial connectivity state is
// taken synchronously before the manager is created.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logging.L()

	store, err := settings.Open(cfg.SettingsDB, log)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.BaseURL, log)
	backend := cache.NewFilesystemBackend(cfg.CacheDir, log)
	monitor := connectivity.NewMonitor(
		connectivity.NewHTTPProber(client.BaseURL(), cfg.ProbeTimeout),
		cfg.ProbeInterval,
		log,
	)
	monitor.Snapshot(ctx)

	return &app{
		cfg:      cfg,
		log:      log,
		client:   client,
		backend:  backend,
		monitor:  monitor,
		manager:  cache.NewManager(client, backend, monitor, log),
		settings: store,
	}, nil
}

// Close releases the settings database.
func (a *app) Close() {
	if err := a.settings.Close(); err != nil {
		a.log.Warn("failed to close settings", zap.Error(err))
	}
}

// language returns the display language, falling back to English when the
// settings store is unusable.
func (a *app) language(ctx context.Context) string {
	lang, err := settings.Language(ctx, a.settings, os.Getenv("LANG"))
	if err != nil {
		a.log.Warn("failed to resolve language", zap.Error(err))
		return core.LanguageEnglish
	}
	return lang
}
