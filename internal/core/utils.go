package core

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

var progressColor = color.New(color.FgHiBlack)

// ProgressPrint writes msg to stderr unless quiet is true.
func ProgressPrint(msg string, quiet bool) {
	if !quiet {
		_, _ = progressColor.Fprintln(os.Stderr, msg)
	}
}

// CharacterPath returns the resource path of a single character.
func CharacterPath(id int) string {
	return fmt.Sprintf("%s/%d", CharacterDir, id)
}

// EpisodePath returns the resource path of a single episode.
func EpisodePath(id int) string {
	return fmt.Sprintf("%s/%d", EpisodeDir, id)
}

// AvatarPath returns the resource path of a character avatar.
func AvatarPath(id int) string {
	return fmt.Sprintf("%s/%d.jpeg", AvatarDir, id)
}

// ResourcePath reduces a resource URL found in an API payload
// (e.g. https://rickandmortyapi.com/api/episode/1) to the path relative to
// the API base (episode/1). Values that are already relative are cleaned and
// returned unchanged.
func ResourcePath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(raw, APIBaseURL+"/"); ok {
		return rest
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimPrefix(raw, "/")
	}
	p := u.Path
	if i := strings.Index(p, "/api/"); i >= 0 {
		p = p[i+len("/api/"):]
	}
	return strings.TrimPrefix(p, "/")
}

// ValidatePath rejects resource paths that could escape the cache root.
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("empty resource path")
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return fmt.Errorf("invalid resource path '%s'", p)
	}
	for _, seg := range strings.Split(path.Clean(p), "/") {
		if seg == ".." {
			return fmt.Errorf("invalid resource path '%s'", p)
		}
	}
	return nil
}

// ParseID parses a positive character or episode identifier.
func ParseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id '%s' (expected a positive integer)", s)
	}
	return id, nil
}

// NormalizeLanguage maps a locale such as "ru_RU.UTF-8" onto a supported
// display language. Unknown locales fall back to English.
func NormalizeLanguage(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	for _, lang := range SupportedLanguages {
		if strings.HasPrefix(l, lang) {
			return lang
		}
	}
	return LanguageEnglish
}

// IsSupportedLanguage reports whether lang is one of SupportedLanguages.
func IsSupportedLanguage(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// NextLanguage returns the language that follows lang in the toggle order.
func NextLanguage(lang string) string {
	if lang == LanguageEnglish {
		return LanguageRussian
	}
	return LanguageEnglish
}
