package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/colthorp/rickmorty-cli-go/internal/core"
)

// Language returns the stored display language. When none is stored, the
// language derived from locale is persisted and returned.
func Language(ctx context.Context, store Store, locale string) (string, error) {
	lang, err := store.Get(ctx, core.LanguageKey)
	if err == nil && core.IsSupportedLanguage(lang) {
		return lang, nil
	}
	if err != nil && !errors.Is(err, ErrNotSet) {
		return "", err
	}

	lang = core.NormalizeLanguage(locale)
	if err := store.Set(ctx, core.LanguageKey, lang); err != nil {
		return "", err
	}
	return lang, nil
}

// SetLanguage stores lang as the display language.
func SetLanguage(ctx context.Context, store Store, lang string) error {
	if !core.IsSupportedLanguage(lang) {
		return fmt.Errorf("unsupported language '%s' (expected one of %v)", lang, core.SupportedLanguages)
	}
	return store.Set(ctx, core.LanguageKey, lang)
}

// ToggleLanguage switches between the supported languages and returns the new one.
func ToggleLanguage(ctx context.Context, store Store, locale string) (string, error) {
	current, err := Language(ctx, store, locale)
	if err != nil {
		return "", err
	}
	next := core.NextLanguage(current)
	if err := store.Set(ctx, core.LanguageKey, next); err != nil {
		return "", err
	}
	return next, nil
}
