// Package api provides the HTTP client and record types for the Rick and Morty API.
package api

import "context"

// Kind identifies the record shape a resource path decodes into.
type Kind string

const (
	KindCount     Kind = "count"
	KindCharacter Kind = "character"
	KindEpisode   Kind = "episode"
	KindLocation  Kind = "location"
)

// Record is implemented by pointers to every decodable response shape.
type Record interface {
	RecordKind() Kind
}

// Info carries the summary block of a list response.
type Info struct {
	Count int `json:"count"`
}

// InfoList is the list response reduced to its count summary.
type InfoList struct {
	Info Info `json:"info"`
}

// Episode is an episode record.
type Episode struct {
	Name string `json:"name"`
}

// Location is the location reference embedded in a character.
type Location struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Character is a single character record.
type Character struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Status   string   `json:"status"`
	Location Location `json:"location"`
	Image    string   `json:"image"`
	Episode  []string `json:"episode"`
	URL      string   `json:"url"`
}

func (*InfoList) RecordKind() Kind  { return KindCount }
func (*Episode) RecordKind() Kind   { return KindEpisode }
func (*Location) RecordKind() Kind  { return KindLocation }
func (*Character) RecordKind() Kind { return KindCharacter }

// Transport is the interface for making API requests.
type Transport interface {
	// Get returns the raw JSON body stored at path.
	Get(ctx context.Context, path string) ([]byte, error)

	// GetImage returns the raw image payload stored at path.
	GetImage(ctx context.Context, path string) ([]byte, error)
}
