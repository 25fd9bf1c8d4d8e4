package scrape

import "time"

type TimeSlot struct {
	Start string `json:"start"` // 24h "09:30"
	End   string `json:"end"`
}

type Location struct {
	Building string `json:"building"`
	Room     string `json:"room"`
}

type Section struct {
	Time      TimeSlot `json:"time"`
	Location  Location `json:"location"`
	Days      []string `json:"days"`
	StartDate string   `json:"start_date"` // "2006-01-02"
	EndDate   string   `json:"end_date"`
}

type Course struct {
	Number   string    `json:"number"` // "CS 173"
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

type Subject struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Courses []Course `json:"courses"`
}

// Catalog is everything scraped for one term.
type Catalog struct {
	LastUpdated time.Time `json:"last_updated"`
	Year        int       `json:"year"`
	Term        string    `json:"term"`
	Subjects    []Subject `json:"subjects"`
}

// CourseCount sums the courses over all subjects.
func (c Catalog) CourseCount() int {
	n := 0
	for _, s := range c.Subjects {
		n += len(s.Courses)
	}
	return n
}
