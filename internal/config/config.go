// Package config resolves CLI configuration from flags, environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/colthorp/rickmorty-cli-go/internal/core"
)

// RawInput holds the unvalidated values merged by viper.
type RawInput struct {
	BaseURL       string        `mapstructure:"base-url"`
	CacheDir      string        `mapstructure:"cache-dir"`
	SettingsDB    string        `mapstructure:"settings-db"`
	ProbeInterval time.Duration `mapstructure:"probe-interval"`
	ProbeTimeout  time.Duration `mapstructure:"probe-timeout"`
	LogLevel      string        `mapstructure:"log-level"`
	LogFormat     string        `mapstructure:"log-format"`
	MetricsAddr   string        `mapstructure:"metrics-addr"`
	Verbose       bool          `mapstructure:"verbose"`
	Quiet         bool          `mapstructure:"quiet"`
	Raw           bool          `mapstructure:"raw"`
}

// Config is the validated configuration.
type Config struct {
	BaseURL       string
	CacheDir      string
	SettingsDB    string
	ProbeInterval time.Duration
	ProbeTimeout  time.Duration
	LogLevel      string
	LogFormat     string
	MetricsAddr   string
	Verbose       bool
	Quiet         bool
	Raw           bool
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Setup points v at the config file, environment and defaults.
func Setup(v *viper.Viper) {
	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".rickmorty")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix(core.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("base-url", core.APIBaseURL)
	v.SetDefault("cache-dir", core.CacheRoot())
	v.SetDefault("settings-db", core.SettingsPath())
	v.SetDefault("probe-interval", core.DefaultProbeInterval)
	v.SetDefault("probe-timeout", core.DefaultProbeTimeout)
	v.SetDefault("log-level", "warn")
	v.SetDefault("log-format", "console")
	v.SetDefault("metrics-addr", "")
}

// Load reads the config file if present, merges every source and validates
// the result.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var input RawInput
	if err := v.Unmarshal(&input); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return Validate(&input)
}

// Validate checks raw input and produces the final configuration.
func Validate(input *RawInput) (*Config, error) {
	u, err := url.Parse(input.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base-url '%s' (expected an absolute http(s) URL)", input.BaseURL)
	}
	if input.CacheDir == "" {
		return nil, fmt.Errorf("cache-dir must not be empty")
	}
	if input.ProbeInterval <= 0 {
		return nil, fmt.Errorf("probe-interval must be positive, got %s", input.ProbeInterval)
	}
	if input.ProbeTimeout <= 0 {
		return nil, fmt.Errorf("probe-timeout must be positive, got %s", input.ProbeTimeout)
	}

	level := strings.ToLower(input.LogLevel)
	if input.Verbose {
		level = "debug"
	}
	if !logLevels[level] {
		return nil, fmt.Errorf("invalid log-level '%s' (expected debug, info, warn or error)", input.LogLevel)
	}
	format := strings.ToLower(input.LogFormat)
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("invalid log-format '%s' (expected console or json)", input.LogFormat)
	}

	return &Config{
		BaseURL:       strings.TrimSuffix(input.BaseURL, "/"),
		CacheDir:      input.CacheDir,
		SettingsDB:    input.SettingsDB,
		ProbeInterval: input.ProbeInterval,
		ProbeTimeout:  input.ProbeTimeout,
		LogLevel:      level,
		LogFormat:     format,
		MetricsAddr:   input.MetricsAddr,
		Verbose:       input.Verbose,
		Quiet:         input.Quiet,
		Raw:           input.Raw,
	}, nil
}
