package scrape

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var ErrInvalidTerm = errors.New("invalid term")

type Term string

const (
	Spring Term = "spring"
	Summer Term = "summer"
	Fall   Term = "fall"
	Winter Term = "winter"
)

// ParseTerm takes a season name like "Fall" and normalizes it to one of the
// terms the schedule site serves.
func ParseTerm(term string) (Term, error) {
	switch t := Term(strings.ToLower(strings.TrimSpace(term))); t {
	case Spring, Summer, Fall, Winter:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q must be one of spring, summer, fall, winter", ErrInvalidTerm, term)
}

// ParseDays keeps the weekday letters of a day string like "MWF" or "TR".
// Placeholder values yield no days.
func ParseDays(days string) []string {
	switch strings.ToLower(days) {
	case "n.a.", "arranged", "":
		return []string{}
	}

	parsed := make([]string, 0, len(days))
	for _, c := range days {
		if strings.ContainsRune("MTWRF", c) {
			parsed = append(parsed, string(c))
		}
	}
	return parsed
}

// ParseLocation splits "3039 Campus Instructional Facility" into its room
// ("3039") and building ("Campus Instructional Facility").
func ParseLocation(location string) (Location, error) {
	room, building, found := strings.Cut(location, " ")
	if !found {
		return Location{}, fmt.Errorf("location %q has no building", location)
	}
	return Location{Building: building, Room: room}, nil
}

// ParseTime converts "09:30AM - 10:50AM" to a 24 hour TimeSlot.
func ParseTime(slot string) (TimeSlot, error) {
	start, end, found := strings.Cut(slot, " - ")
	if !found {
		return TimeSlot{}, fmt.Errorf("time %q is not a range", slot)
	}
	startTime, err := time.Parse("3:04PM", strings.ToUpper(strings.TrimSpace(start)))
	if err != nil {
		return TimeSlot{}, err
	}
	endTime, err := time.Parse("3:04PM", strings.ToUpper(strings.TrimSpace(end)))
	if err != nil {
		return TimeSlot{}, err
	}
	return TimeSlot{Start: startTime.Format("15:04"), End: endTime.Format("15:04")}, nil
}

// ParseDateRange converts "Meets 01/13/25-05/07/25" to ISO start and end dates.
func ParseDateRange(dateRange string) (string, string, error) {
	parts := strings.Split(dateRange, "-")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("date range %q is not a range", dateRange)
	}
	start, err := time.Parse("1/2/06", strings.TrimSpace(strings.Replace(parts[0], "Meets ", "", 1)))
	if err != nil {
		return "", "", err
	}
	end, err := time.Parse("1/2/06", strings.TrimSpace(parts[1]))
	if err != nil {
		return "", "", err
	}
	return start.Format("2006-01-02"), end.Format("2006-01-02"), nil
}

var tagR = regexp.MustCompile(`<[^>]+>`)

func stripTags(s string) string {
	return strings.TrimSpace(tagR.ReplaceAllString(s, ""))
}
