package building

import (
	"encoding/json"
	"fmt"
	"os"
)

// UpdateStyle replaces sources.<source>.data in a map style document with
// the given GeoJSON. Every other key of the style is preserved.
func UpdateStyle(style []byte, source string, geojson json.RawMessage) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(style, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode style: %w", err)
	}
	rawSources, ok := doc["sources"]
	if !ok {
		return nil, fmt.Errorf("%w: 'sources' key not found in style", ErrValidation)
	}
	var sources map[string]map[string]json.RawMessage
	if err := json.Unmarshal(rawSources, &sources); err != nil {
		return nil, fmt.Errorf("failed to decode style sources: %w", err)
	}
	src, ok := sources[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q source not found in style sources", ErrValidation, source)
	}
	if _, ok := src["data"]; !ok {
		return nil, fmt.Errorf("%w: 'data' key not found within %q source", ErrValidation, source)
	}
	src["data"] = geojson

	merged, err := json.Marshal(sources)
	if err != nil {
		return nil, err
	}
	doc["sources"] = merged
	return json.MarshalIndent(doc, "", "    ")
}

// UpdateStyleFile rewrites the style file at path in place.
func UpdateStyleFile(path, source string, geojson json.RawMessage) error {
	style, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := UpdateStyle(style, source, geojson)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
