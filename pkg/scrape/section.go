package scrape

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	sectionDataR = regexp.MustCompile(`(?s)var sectionDataObj = (\[.*?\]);`)
	meetingR     = regexp.MustCompile(`(?s)<div class="app-meeting">(.*?)</div>`)
)

// sectionData is one entry of the sectionDataObj array rendered into every
// course page. Meeting fields hold one app-meeting div per meeting, aligned by
// position across time, location and day.
type sectionData struct {
	Time      string `json:"time"`
	Location  string `json:"location"`
	Day       string `json:"day"`
	DateRange string `json:"sectionDateRange"`
}

type SectionOptions struct {
	// SkipEnded drops sections whose date range ended before Today.
	SkipEnded bool
	Today     time.Time
}

type sectionKey struct {
	start, end, building, room, days, startDate, endDate string
}

// ParseSections extracts the distinct meetings from a course page. Sections
// with any unscheduled meeting are dropped whole; malformed meetings are
// logged and skipped.
func ParseSections(html string, opts SectionOptions) ([]Section, error) {
	match := sectionDataR.FindStringSubmatch(html)
	if match == nil {
		return nil, nil
	}
	var data []sectionData
	if err := json.Unmarshal([]byte(match[1]), &data); err != nil {
		return nil, fmt.Errorf("failed to decode section data: %w", err)
	}

	seen := make(map[sectionKey]bool)
	sections := make([]Section, 0)

	for _, d := range data {
		times := meetings(d.Time)
		locations := meetings(d.Location)
		days := meetings(d.Day)
		if len(times) == 0 || len(locations) == 0 || len(days) == 0 {
			continue
		}

		n := min(len(times), len(locations), len(days))
		if !allScheduled(times[:n], locations[:n], days[:n]) {
			continue
		}

		startDate, endDate, err := ParseDateRange(d.DateRange)
		if err != nil {
			log.Println("Warning: skipping section with bad date range:", err)
			continue
		}
		if opts.SkipEnded && endDate < opts.Today.Format("2006-01-02") {
			continue
		}

		for i := 0; i < n; i++ {
			slot, err := ParseTime(times[i])
			if err != nil {
				log.Println("Error parsing section:", err)
				continue
			}
			location, err := ParseLocation(locations[i])
			if err != nil {
				log.Println("Error parsing section:", err)
				continue
			}
			dayList := ParseDays(days[i])

			sorted := append([]string(nil), dayList...)
			sort.Strings(sorted)
			key := sectionKey{
				slot.Start, slot.End, location.Building, location.Room,
				strings.Join(sorted, ""), startDate, endDate,
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			sections = append(sections, Section{
				Time:      slot,
				Location:  location,
				Days:      dayList,
				StartDate: startDate,
				EndDate:   endDate,
			})
		}
	}
	return sections, nil
}

// meetings returns the app-meeting values of a snippet, or the bare text of
// the snippet when it has no meeting divs.
func meetings(snippet string) []string {
	var values []string
	for _, m := range meetingR.FindAllStringSubmatch(snippet, -1) {
		values = append(values, m[1])
	}
	if len(values) == 0 {
		if s := stripTags(snippet); s != "" {
			values = []string{s}
		}
	}
	return values
}

func allScheduled(times, locations, days []string) bool {
	for i := range times {
		if strings.ToUpper(times[i]) == "ARRANGED" {
			return false
		}
		switch strings.ToLower(locations[i]) {
		case "n.a.", "arranged", "arr", "location pending":
			return false
		}
		switch strings.ToLower(days[i]) {
		case "n.a.", "arranged", "", "arr":
			return false
		}
	}
	return true
}
