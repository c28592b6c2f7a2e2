// Package cli implements the command-line interface for the rickmorty CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/colthorp/rickmorty-cli-go/internal/config"
	"github.com/colthorp/rickmorty-cli-go/internal/core"
	"github.com/colthorp/rickmorty-cli-go/internal/logging"
)

// v holds the raw configuration merged from flags, environment and file.
var v = viper.New()

// cfg holds the validated configuration, populated before any command runs.
var cfg = &config.Config{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "rickmorty",
	Short:         "rickmorty – browse the Rick and Morty API, online or offline",
	Long:          `A command-line client for the Rick and Morty API that caches every record on disk and keeps serving them when the network is gone.`,
	Version:       core.Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setup()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer func() { _ = logging.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags available to all commands
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose debug output to stderr")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress progress messages")
	rootCmd.PersistentFlags().Bool("raw", false, "Emit raw JSON instead of formatted text")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: .rickmorty.yaml in . or $HOME)")
	rootCmd.PersistentFlags().String("base-url", "", fmt.Sprintf("API base URL (default: %s)", core.APIBaseURL))
	rootCmd.PersistentFlags().String("cache-dir", "", "Cache directory (default: ~/.rickmorty/cache)")
	rootCmd.PersistentFlags().String("settings-db", "", "Settings database (default: ~/.rickmorty/settings.db)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (console, json)")

	if err := v.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(fmt.Sprintf("failed to bind flags: %v", err))
	}
}

// setup resolves configuration and initializes logging.
func setup() error {
	config.Setup(v)
	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	*cfg = *loaded

	return logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
}
