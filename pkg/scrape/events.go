package scrape

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
)

// Event is one booking from the daily events dashboard.
type Event struct {
	BuildingName string
	RoomNumber   string
	EventName    string
	Occupant     string
	StartTime    time.Time
	EndTime      time.Time
}

// eventRow mirrors the dashboard's CSV export. Columns not listed here
// (Measure Names, Measure Values, Open/Close, CustomerContact) are ignored.
type eventRow struct {
	Building  string `csv:"Building"`
	Room      string `csv:"Room"`
	EventName string `csv:"EventName"`
	Customer  string `csv:"Customer"`
	StartDate string `csv:"StartDate"`
	StartTime string `csv:"StartTime"`
	EndTime   string `csv:"EndTime"`
}

const dashboardTimeLayout = "1/2/2006 3:04:05 PM"

// FetchEvents downloads the dashboard CSV and parses it.
func FetchEvents(ctx context.Context, f *Fetcher, url string, loc *time.Location, aliases map[string]string) ([]Event, error) {
	body, err := f.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	log.Println("Got data from dashboard")
	return ParseEvents(body, loc, aliases)
}

// ParseEvents decodes the dashboard CSV. The start timestamp combines
// StartDate with the clock part of StartTime; rows whose start or end cannot
// be parsed are dropped. Building names are normalized through aliases and
// kept as-is when no alias exists.
func ParseEvents(data []byte, loc *time.Location, aliases map[string]string) ([]Event, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var rows []*eventRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode events csv: %w", err)
	}

	events := make([]Event, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		clock := row.StartTime
		if _, after, found := strings.Cut(row.StartTime, " "); found {
			clock = after
		}
		start, err := time.ParseInLocation(dashboardTimeLayout, strings.TrimSpace(row.StartDate)+" "+strings.TrimSpace(clock), loc)
		if err != nil {
			dropped++
			continue
		}
		end, err := time.ParseInLocation(dashboardTimeLayout, strings.TrimSpace(row.EndTime), loc)
		if err != nil {
			dropped++
			continue
		}

		building := strings.TrimSpace(row.Building)
		if alias, ok := aliases[building]; ok {
			building = alias
		}
		events = append(events, Event{
			BuildingName: building,
			RoomNumber:   strings.TrimSpace(row.Room),
			EventName:    strings.TrimSpace(row.EventName),
			Occupant:     strings.TrimSpace(row.Customer),
			StartTime:    start,
			EndTime:      end,
		})
	}

	if dropped > 0 {
		log.Printf("Warning: dropped %d rows with invalid timestamps", dropped)
	}
	log.Println("Finished processing", len(events), "events")
	return events, nil
}
