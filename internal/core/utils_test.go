package core

import (
	"testing"
)

func TestResourcePath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://rickandmortyapi.com/api/episode/1", "episode/1"},
		{"https://rickandmortyapi.com/api/character/avatar/1.jpeg", "character/avatar/1.jpeg"},
		{"https://rickandmortyapi.com/api/location/3", "location/3"},
		{"http://localhost:8080/api/character/2", "character/2"},
		{"character/5", "character/5"},
		{"/episode/7", "episode/7"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ResourcePath(tt.input)
			if got != tt.want {
				t.Errorf("ResourcePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"character/1", false},
		{"character/", false},
		{"character/avatar/1.jpeg", false},
		{"", true},
		{"/etc/passwd", true},
		{"../outside", true},
		{"character/../../outside", true},
		{"character\\1", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{" 826 ", 826, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"rick", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseID(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestPathHelpers(t *testing.T) {
	if got := CharacterPath(1); got != "character/1" {
		t.Errorf("CharacterPath(1) = %s", got)
	}
	if got := EpisodePath(28); got != "episode/28" {
		t.Errorf("EpisodePath(28) = %s", got)
	}
	if got := AvatarPath(3); got != "character/avatar/3.jpeg" {
		t.Errorf("AvatarPath(3) = %s", got)
	}
}

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ru_RU.UTF-8", LanguageRussian},
		{"en_US.UTF-8", LanguageEnglish},
		{"RU", LanguageRussian},
		{"de_DE", LanguageEnglish},
		{"", LanguageEnglish},
	}

	for _, tt := range tests {
		if got := NormalizeLanguage(tt.input); got != tt.want {
			t.Errorf("NormalizeLanguage(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestNextLanguage(t *testing.T) {
	if NextLanguage(LanguageEnglish) != LanguageRussian {
		t.Error("Expected en to toggle to ru")
	}
	if NextLanguage(LanguageRussian) != LanguageEnglish {
		t.Error("Expected ru to toggle to en")
	}
	if !IsSupportedLanguage("ru") || IsSupportedLanguage("fr") {
		t.Error("Unexpected supported language set")
	}
}
