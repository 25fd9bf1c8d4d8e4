package building

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"
)

// dayGroups maps the hour-sheet column headings to the days they cover.
var dayGroups = map[string][]string{
	"M-TH": {"monday", "tuesday", "wednesday", "thursday"},
	"F":    {"friday"},
	"SAT":  {"saturday"},
	"SUN":  {"sunday"},
}

const locked = "LOCKED"

// LoadHours reads the hours sheet: building -> day group -> "7AM-10PM".
func LoadHours(path string) (map[string]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var hours map[string]map[string]string
	if err := json.Unmarshal(data, &hours); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return hours, nil
}

// ConvertTime turns "7AM" or "7:30PM" into 24 hour "07:00" / "19:30".
// LOCKED yields nil.
func ConvertTime(clock string) (*string, error) {
	clock = strings.TrimSpace(clock)
	if clock == locked {
		return nil, nil
	}
	layout := "3PM"
	if strings.Contains(clock, ":") {
		layout = "3:04PM"
	}
	t, err := time.Parse(layout, clock)
	if err != nil {
		return nil, fmt.Errorf("failed to convert time %q: %w", clock, err)
	}
	s := t.Format("15:04")
	return &s, nil
}

// ParseHours expands the day groups of one building's sheet into per-day
// open and close times. Malformed ranges are skipped with a warning.
func ParseHours(groups map[string]string) (map[string]OpenClose, error) {
	hours := make(map[string]OpenClose)

	// sort for stable warnings
	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	sort.Strings(names)

	for _, group := range names {
		days, ok := dayGroups[group]
		if !ok {
			log.Println("Warning: unknown day group", group)
			continue
		}
		value := groups[group]
		if value == locked {
			for _, day := range days {
				hours[day] = OpenClose{}
			}
			continue
		}

		i := strings.LastIndex(value, "-")
		if i < 0 {
			log.Println("Warning: invalid hours format:", value)
			continue
		}
		open, err := ConvertTime(value[:i])
		if err != nil {
			return nil, err
		}
		closing, err := ConvertTime(value[i+1:])
		if err != nil {
			return nil, err
		}
		for _, day := range days {
			hours[day] = OpenClose{Open: open, Close: closing}
		}
	}
	return hours, nil
}

// ApplyHours sets the hours of every building found in the sheet and returns
// the names of the buildings that had none.
func ApplyHours(doc *Document, sheet map[string]map[string]string) ([]string, error) {
	updated := 0
	var missing []string
	for _, name := range doc.Names() {
		groups, ok := sheet[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		hours, err := ParseHours(groups)
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", name, err)
		}
		doc.Buildings[name].Hours = hours
		updated++
	}
	log.Println("Updated hours for", updated, "buildings")
	return missing, nil
}
