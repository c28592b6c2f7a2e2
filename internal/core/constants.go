// Package core provides shared constants and helpers for the rickmorty CLI.
package core

import (
	"os"
	"path/filepath"
	"time"
)

// API configuration
const (
	APIBaseURL = "https://rickandmortyapi.com/api"
	EnvPrefix  = "RICKMORTY"
)

// Well-known resource paths
const (
	CharacterDir = "character"
	EpisodeDir   = "episode"
	AvatarDir    = "character/avatar"

	// CountPath is the list endpoint; its body carries info.count.
	CountPath = "character/"
)

// Cache file format
const (
	CacheFileExt       = ".data"
	CacheFormatVersion = 1
)

// Network defaults
const (
	ImageFetchTimeout    = 60 * time.Second
	DefaultProbeInterval = 5 * time.Second
	DefaultProbeTimeout  = 3 * time.Second
	DefaultParallel      = 5
)

// Display languages
const (
	LanguageEnglish = "en"
	LanguageRussian = "ru"
	LanguageKey     = "Localization"
)

// SupportedLanguages lists the languages the client can be switched to.
var SupportedLanguages = []string{LanguageEnglish, LanguageRussian}

// HomeDir returns the per-user application directory.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".rickmorty")
}

// CacheRoot returns the default cache directory path.
func CacheRoot() string {
	return filepath.Join(HomeDir(), "cache")
}

// SettingsPath returns the default settings database path.
func SettingsPath() string {
	return filepath.Join(HomeDir(), "settings.db")
}

// Version is the current CLI version.
const Version = "0.3.0"
