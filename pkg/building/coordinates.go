package building

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
)

// FeatureCollection is the subset of GeoJSON the pipeline reads.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
	Geometry struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
}

// LoadGeoJSON returns the raw document as well as the decoded features, the
// raw form is what gets embedded into the map style.
func LoadGeoJSON(path string) (*FeatureCollection, json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &fc, data, nil
}

// CoordinatesMap indexes point features by building name.
func (fc *FeatureCollection) CoordinatesMap() map[string]Coordinates {
	m := make(map[string]Coordinates)
	for _, f := range fc.Features {
		var point []float64
		if err := json.Unmarshal(f.Geometry.Coordinates, &point); err != nil || len(point) < 2 {
			log.Println("Warning: skipping feature without point coordinates:", f.Properties.Name)
			continue
		}
		m[f.Properties.Name] = Coordinates{Longitude: point[0], Latitude: point[1]}
	}
	return m
}

// ApplyCoordinates attaches coordinates to every building named in the
// collection and returns the names of the buildings that had none.
func ApplyCoordinates(doc *Document, fc *FeatureCollection) []string {
	coords := fc.CoordinatesMap()
	updated := 0
	var missing []string
	for _, name := range doc.Names() {
		c, ok := coords[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		doc.Buildings[name].Coordinates = &Coordinates{Latitude: c.Latitude, Longitude: c.Longitude}
		updated++
	}
	log.Println("Added coordinates to", updated, "buildings")
	return missing
}
