// Package building reshapes scraped course sections into the per-building
// document the loader consumes, and enriches it with hours and coordinates.
package building

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/illinispots/pipeline/pkg/scrape"
)

// Weekdays lists the keys of Hours in calendar order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

type Class struct {
	Course    string          `json:"course" validate:"required"`
	Title     string          `json:"title" validate:"required"`
	Time      scrape.TimeSlot `json:"time" validate:"required"`
	Days      []string        `json:"days" validate:"required"`
	StartDate string          `json:"start_date,omitempty"`
	EndDate   string          `json:"end_date,omitempty"`
}

// OpenClose is nil on both ends when the building is locked all day.
type OpenClose struct {
	Open  *string `json:"open"`
	Close *string `json:"close"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Building struct {
	Hours       map[string]OpenClose `json:"hours,omitempty" validate:"required"`
	Coordinates *Coordinates         `json:"coordinates,omitempty" validate:"required"`
	Rooms       map[string][]Class   `json:"rooms" validate:"required,dive,dive"`
}

type Document struct {
	LastUpdated time.Time            `json:"last_updated"`
	Buildings   map[string]*Building `json:"buildings"`
}

// SectionCount is the number of class entries across every room.
func (d *Document) SectionCount() int {
	n := 0
	for _, b := range d.Buildings {
		for _, classes := range b.Rooms {
			n += len(classes)
		}
	}
	return n
}

// Names returns the building names in sorted order.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Buildings))
	for name := range d.Buildings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RoomNumbers returns the room numbers in sorted order.
func (b *Building) RoomNumbers() []string {
	rooms := make([]string, 0, len(b.Rooms))
	for room := range b.Rooms {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}

func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if doc.Buildings == nil {
		return nil, fmt.Errorf("%w: missing 'buildings' key in %s", ErrValidation, path)
	}
	return &doc, nil
}

func Save(path string, doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
