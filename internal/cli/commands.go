package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/colthorp/rickmorty-cli-go/internal/api"
	"github.com/colthorp/rickmorty-cli-go/internal/connectivity"
	"github.com/colthorp/rickmorty-cli-go/internal/core"
	"github.com/colthorp/rickmorty-cli-go/internal/metrics"
	"github.com/colthorp/rickmorty-cli-go/internal/output"
	"github.com/colthorp/rickmorty-cli-go/internal/settings"
)

// defaultPageSize is how many characters list shows when --to is omitted.
const defaultPageSize = 20

func init() {
	// Add all subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(characterCmd)
	rootCmd.AddCommand(episodeCmd)
	rootCmd.AddCommand(avatarCmd)
	rootCmd.AddCommand(eraseCacheCmd)
	rootCmd.AddCommand(langCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mcpCmd)

	// List command flags
	listCmd.Flags().Int("from", 1, "First character id")
	listCmd.Flags().Int("to", 0, fmt.Sprintf("Last character id (default: from+%d, capped at the count)", defaultPageSize-1))
	listCmd.Flags().IntP("parallel", "p", core.DefaultParallel, "Max characters to fetch in parallel")

	// Avatar command flags
	avatarCmd.Flags().StringP("out", "o", "", "Output file (default: <id>.jpeg)")

	// Erase command flags
	eraseCacheCmd.Flags().Bool("yes", false, "Confirm erasing the cache")

	// Watch command flags
	watchCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	if err := v.BindPFlag("metrics-addr", watchCmd.Flags().Lookup("metrics-addr")); err != nil {
		panic(fmt.Sprintf("failed to bind flags: %v", err))
	}
}

// listCmd handles the list subcommand
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List characters, prefetching records and avatars",
	Args:  cobra.NoArgs,
	RunE:  handleList,
}

// characterCmd shows the detail view of one character
var characterCmd = &cobra.Command{
	Use:   "character [id]",
	Short: "Show a character with its location and first episode",
	Args:  cobra.ExactArgs(1),
	RunE:  handleCharacter,
}

// episodeCmd shows one episode
var episodeCmd = &cobra.Command{
	Use:   "episode [id]",
	Short: "Show an episode",
	Args:  cobra.ExactArgs(1),
	RunE:  handleEpisode,
}

// avatarCmd saves a character avatar
var avatarCmd = &cobra.Command{
	Use:   "avatar [id]",
	Short: "Save a character avatar to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  handleAvatar,
}

// eraseCacheCmd deletes every cached record
var eraseCacheCmd = &cobra.Command{
	Use:   "erase-cache",
	Short: "Delete all cached characters and episodes, then reload the count",
	Args:  cobra.NoArgs,
	RunE:  handleEraseCache,
}

// langCmd reads or changes the display language
var langCmd = &cobra.Command{
	Use:       "lang [get|set <en|ru>|toggle]",
	Short:     "Show or change the display language",
	Args:      cobra.RangeArgs(0, 2),
	ValidArgs: []string{"get", "set", "toggle"},
	RunE:      handleLang,
}

// watchCmd follows connectivity changes
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch connectivity and re-list characters from cache when offline",
	Args:  cobra.NoArgs,
	RunE:  handleWatch,
}

// statusCmd reports cache and connectivity state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity, cache location and offline estimates",
	Args:  cobra.NoArgs,
	RunE:  handleStatus,
}

// mcpCmd starts the MCP server
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI integration",
	Args:  cobra.NoArgs,
	RunE:  handleMCP,
}

func useColors() bool {
	return !color.NoColor && !cfg.Raw
}

func handleList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	parallel, _ := cmd.Flags().GetInt("parallel")

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	lang := a.language(ctx)

	count, err := a.manager.Count(ctx)
	if err != nil {
		return err
	}
	if !a.manager.Online() {
		core.ProgressPrint(output.T(lang, "offline_notice"), cfg.Quiet)
	}
	core.ProgressPrint(output.T(lang, "total")+fmt.Sprint(count), cfg.Quiet)

	from, to, err = listRange(from, to, count)
	if err != nil {
		return err
	}

	characters := collectCharacters(ctx, a, from, to, parallel)
	if cfg.Raw {
		return output.PrintJSON(os.Stdout, characters)
	}
	return output.WriteCharacterTable(os.Stdout, characters, lang, useColors())
}

// listRange resolves the requested id window against the known count.
func listRange(from, to, count int) (int, int, error) {
	if from < 1 {
		return 0, 0, fmt.Errorf("--from must be at least 1, got %d", from)
	}
	if to == 0 {
		to = from + defaultPageSize - 1
		if count > 0 && to > count {
			to = count
		}
	}
	if to < from {
		return 0, 0, fmt.Errorf("--to (%d) must not be before --from (%d)", to, from)
	}
	return from, to, nil
}

// collectCharacters prefetches the range and returns the characters that
// resolved, ordered by id.
func collectCharacters(ctx context.Context, a *app, from, to, parallel int) []*api.Character {
	characters := make([]*api.Character, 0, to-from+1)
	for res := range a.manager.Prefetch(ctx, from, to, parallel) {
		if res.Err != nil {
			a.log.Debug("character unavailable", zap.Int("id", res.ID), zap.Error(res.Err))
			continue
		}
		characters = append(characters, res.Character)
	}
	sort.Slice(characters, func(i, j int) bool { return characters[i].ID < characters[j].ID })
	return characters
}

func handleCharacter(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := core.ParseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	character, err := a.manager.Character(ctx, id)
	if err != nil {
		return err
	}
	if cfg.Raw {
		return output.PrintJSON(os.Stdout, character)
	}

	firstEpisode := ""
	if len(character.Episode) > 0 {
		ep, err := a.manager.Episode(ctx, character.Episode[0])
		if err != nil {
			a.log.Debug("first episode unavailable", zap.Error(err))
		} else {
			firstEpisode = ep.Name
		}
	}

	avatar := ""
	if a.manager.Online() {
		path := core.ResourcePath(character.Image)
		if path == "" {
			path = core.AvatarPath(id)
		}
		if _, err := a.manager.FetchImage(ctx, path); err != nil {
			a.log.Debug("avatar unavailable", zap.Error(err))
		} else {
			avatar = a.backend.Path(path)
		}
	}

	return output.WriteCharacterDetail(os.Stdout, character, firstEpisode, avatar, a.language(ctx), useColors())
}

func handleEpisode(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := core.ParseID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ep, err := a.manager.Episode(ctx, core.EpisodePath(id))
	if err != nil {
		return err
	}
	if cfg.Raw {
		return output.PrintJSON(os.Stdout, ep)
	}
	fmt.Println(ep.Name)
	return nil
}

func handleAvatar(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := core.ParseID(args[0])
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = fmt.Sprintf("%d.jpeg", id)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	lang := a.language(ctx)
	core.ProgressPrint(fmt.Sprintf(output.T(lang, "fetching_avatar"), id), cfg.Quiet)
	data, err := a.manager.FetchImage(ctx, core.AvatarPath(id))
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write avatar: %w", err)
	}
	core.ProgressPrint(fmt.Sprintf(output.T(lang, "saved_avatar"), out, len(data)), cfg.Quiet)
	return nil
}

func handleEraseCache(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		return fmt.Errorf("refusing to erase the cache without --yes")
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.manager.EraseCache(); err != nil {
		return err
	}
	core.ProgressPrint(fmt.Sprintf("Erased cache under %s", a.backend.Root()), cfg.Quiet)

	// Reload the count so the next listing starts from a fresh summary.
	count, err := a.manager.Count(ctx)
	if err != nil {
		return err
	}
	core.ProgressPrint(output.T(a.language(ctx), "total")+fmt.Sprint(count), cfg.Quiet)
	return nil
}

func handleLang(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := settings.Open(cfg.SettingsDB, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	locale := os.Getenv("LANG")
	action := "get"
	if len(args) > 0 {
		action = args[0]
	}

	var lang string
	switch action {
	case "get":
		lang, err = settings.Language(ctx, store, locale)
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("usage: lang set <%s|%s>", core.LanguageEnglish, core.LanguageRussian)
		}
		lang = args[1]
		err = settings.SetLanguage(ctx, store, lang)
	case "toggle":
		lang, err = settings.ToggleLanguage(ctx, store, locale)
	default:
		return fmt.Errorf("unknown lang action '%s' (expected get, set or toggle)", action)
	}
	if err != nil {
		return err
	}

	fmt.Println(output.T(lang, "language") + lang)
	return nil
}

func handleWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	lang := a.language(ctx)

	if addr := cfg.MetricsAddr; addr != "" {
		srv := serveMetrics(addr, a.log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	states := a.monitor.Subscribe()
	defer a.monitor.Unsubscribe(states)
	a.monitor.Start(ctx)

	printState(a.monitor.State())
	for {
		select {
		case <-ctx.Done():
			return nil
		case state := <-states:
			printState(state)
			if state == connectivity.Offline {
				relistOffline(ctx, os.Stdout, a, lang)
			}
		}
	}
}

func printState(state connectivity.State) {
	fmt.Printf("%s %s\n", time.Now().Format(time.TimeOnly), output.FormatState(state, useColors()))
}

// relistOffline re-requests the listing after connectivity is lost, so it is
// served from the estimate and the fallback index. It returns the count used.
func relistOffline(ctx context.Context, w io.Writer, a *app, lang string) int {
	count, err := a.manager.Count(ctx)
	if err != nil {
		a.log.Warn("offline count failed", zap.Error(err))
		return 0
	}
	core.ProgressPrint(output.T(lang, "offline_notice"), cfg.Quiet)
	core.ProgressPrint(output.T(lang, "total")+fmt.Sprint(count), cfg.Quiet)
	if count == 0 {
		return 0
	}

	_, to, err := listRange(1, 0, count)
	if err != nil {
		return count
	}
	characters := collectCharacters(ctx, a, 1, to, core.DefaultParallel)
	if err := output.WriteCharacterTable(w, characters, lang, useColors()); err != nil {
		a.log.Warn("failed to print characters", zap.Error(err))
	}
	return count
}

func serveMetrics(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

// statusReport is the machine-readable form of the status command.
type statusReport struct {
	State        string `json:"state"`
	BaseURL      string `json:"base_url"`
	CacheDir     string `json:"cache_dir"`
	Estimate     int    `json:"record_count_estimate"`
	FallbackSize int    `json:"fallback_index_entries"`
	Language     string `json:"language"`
}

func handleStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	report := statusReport{
		State:        a.monitor.State().String(),
		BaseURL:      a.client.BaseURL(),
		CacheDir:     a.backend.Root(),
		Estimate:     a.manager.RefreshEstimate(),
		FallbackSize: a.manager.FallbackSize(),
		Language:     a.language(ctx),
	}
	if cfg.Raw {
		return output.PrintJSON(os.Stdout, report)
	}

	fmt.Printf("Connectivity:   %s\n", output.FormatState(a.monitor.State(), useColors()))
	fmt.Printf("API:            %s\n", report.BaseURL)
	fmt.Printf("Cache:          %s\n", report.CacheDir)
	fmt.Printf("Cached records: %d\n", report.Estimate)
	fmt.Printf("Fallback index: %d\n", report.FallbackSize)
	fmt.Printf("Language:       %s\n", report.Language)
	return nil
}

func handleMCP(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	a.monitor.Start(cmd.Context())
	return runMCPServer(a.manager)
}
