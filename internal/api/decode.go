package api

import (
	"encoding/json"
	"fmt"
)

// requiredFields lists the keys each record shape must carry. Bodies missing
// any of them are schema mismatches, not zero-valued records.
var requiredFields = map[Kind][]string{
	KindCount:     {"info"},
	KindEpisode:   {"name"},
	KindLocation:  {"name", "url"},
	KindCharacter: {"id", "name", "status", "location", "image", "episode", "url"},
}

// Decode unmarshals body into dst after checking the record shape.
func Decode(path string, body []byte, dst Record) error {
	kind := dst.RecordKind()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return &DecodeError{Path: path, Kind: kind, Err: err}
	}
	for _, key := range requiredFields[kind] {
		if _, ok := fields[key]; !ok {
			return &DecodeError{Path: path, Kind: kind, Err: fmt.Errorf("missing field %q", key)}
		}
	}
	if kind == KindCount {
		var info map[string]json.RawMessage
		if err := json.Unmarshal(fields["info"], &info); err != nil {
			return &DecodeError{Path: path, Kind: kind, Err: err}
		}
		if _, ok := info["count"]; !ok {
			return &DecodeError{Path: path, Kind: kind, Err: fmt.Errorf("missing field %q", "info.count")}
		}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &DecodeError{Path: path, Kind: kind, Err: err}
	}
	return nil
}

// Encode serializes a decoded record for the persistent cache.
func Encode(rec Record) ([]byte, error) {
	return json.Marshal(rec)
}
