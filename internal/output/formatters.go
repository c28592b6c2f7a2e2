// Package output provides output formatting utilities for the rickmorty CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/colthorp/rickmorty-cli-go/internal/api"
	"github.com/colthorp/rickmorty-cli-go/internal/connectivity"
)

var (
	aliveColor   = color.New(color.FgGreen)
	deadColor    = color.New(color.FgRed)
	unknownColor = color.New(color.FgYellow)
	onlineColor  = color.New(color.FgGreen, color.Bold)
	offlineColor = color.New(color.FgRed, color.Bold)
)

// PrintJSON writes item as indented JSON.
func PrintJSON(w io.Writer, item any) error {
	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// FormatStatus returns the localized character status, coloured when enabled.
func FormatStatus(status, lang string, colors bool) string {
	text := T(lang, status)
	if !colors {
		return text
	}
	switch strings.ToLower(status) {
	case "alive":
		return aliveColor.Sprint(text)
	case "dead":
		return deadColor.Sprint(text)
	default:
		return unknownColor.Sprint(text)
	}
}

// FormatState returns the connectivity state, coloured when enabled.
func FormatState(state connectivity.State, colors bool) string {
	if !colors {
		return state.String()
	}
	if state == connectivity.Online {
		return onlineColor.Sprint(state.String())
	}
	return offlineColor.Sprint(state.String())
}

// WriteCharacterTable writes characters as a table with localized headers.
func WriteCharacterTable(w io.Writer, characters []*api.Character, lang string, colors bool) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{
		T(lang, "id"),
		label(lang, "name"),
		label(lang, "status"),
		label(lang, "last_known_location"),
	})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	data := make([][]string, 0, len(characters))
	for _, c := range characters {
		data = append(data, []string{
			strconv.Itoa(c.ID),
			c.Name,
			FormatStatus(c.Status, lang, colors),
			c.Location.Name,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// WriteCharacterDetail writes the detail view of one character.
func WriteCharacterDetail(w io.Writer, c *api.Character, firstEpisode, avatar, lang string, colors bool) error {
	lines := []string{
		T(lang, "name") + c.Name,
		T(lang, "status") + FormatStatus(c.Status, lang, colors),
		T(lang, "last_known_location") + c.Location.Name,
	}
	if firstEpisode != "" {
		lines = append(lines, T(lang, "first_seen_in")+firstEpisode)
	}
	if avatar != "" {
		lines = append(lines, T(lang, "avatar")+avatar)
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

// label strips the trailing ": " used by inline labels.
func label(lang, key string) string {
	return strings.TrimSuffix(T(lang, key), ": ")
}
