package building

import (
	"log"
	"strings"
	"time"

	"github.com/illinispots/pipeline/pkg/scrape"
)

// FromCatalog turns the subject-sorted catalog into a building-sorted
// document. Each section lands in the room it meets in.
func FromCatalog(catalog scrape.Catalog) *Document {
	doc := &Document{LastUpdated: time.Now(), Buildings: make(map[string]*Building)}

	for _, subject := range catalog.Subjects {
		for _, course := range subject.Courses {
			label := course.Number
			if !strings.HasPrefix(course.Number, subject.Code) {
				label = subject.Code + " " + course.Number
			}
			for _, section := range course.Sections {
				name := section.Location.Building
				b, ok := doc.Buildings[name]
				if !ok {
					b = &Building{Rooms: make(map[string][]Class)}
					doc.Buildings[name] = b
				}
				room := section.Location.Room
				b.Rooms[room] = append(b.Rooms[room], Class{
					Course:    label,
					Title:     course.Title,
					Time:      section.Time,
					Days:      section.Days,
					StartDate: section.StartDate,
					EndDate:   section.EndDate,
				})
			}
		}
	}

	log.Println("Processed", len(doc.Buildings), "buildings")
	log.Println("Total sections:", doc.SectionCount())
	return doc
}

// Filter keeps the buildings with at least minRooms rooms that are not
// excluded.
func Filter(doc *Document, minRooms int, excluded map[string]bool) *Document {
	filtered := &Document{LastUpdated: doc.LastUpdated, Buildings: make(map[string]*Building)}
	for name, b := range doc.Buildings {
		if len(b.Rooms) >= minRooms && !excluded[name] {
			filtered.Buildings[name] = b
		}
	}
	log.Println("Total buildings in filtered file:", len(filtered.Buildings))
	return filtered
}
