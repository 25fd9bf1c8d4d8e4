package report

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/illinispots/pipeline/pkg/database"
)

// dayOrder ranks the meeting day letters Monday first.
const dayOrder = "MTWRFSU"

type eventLine struct {
	BuildingName string `csv:"building_name"`
	RoomNumber   string `csv:"room_number"`
	EventName    string `csv:"event_name"`
	Occupant     string `csv:"occupant"`
	StartTime    string `csv:"start_time"`
	EndTime      string `csv:"end_time"`
}

func WriteCsv(in interface{}, fileName string) error {
	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return err
	}
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(in, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteSchedule writes the class schedule sorted by building, room, day and
// start time.
func WriteSchedule(fileName string, rows []database.ScheduleRow) error {
	sorted := make([]database.ScheduleRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.BuildingName != b.BuildingName {
			return a.BuildingName < b.BuildingName
		}
		if a.RoomNumber != b.RoomNumber {
			return a.RoomNumber < b.RoomNumber
		}
		if a.DayOfWeek != b.DayOfWeek {
			return strings.Index(dayOrder, a.DayOfWeek) < strings.Index(dayOrder, b.DayOfWeek)
		}
		return a.StartTime < b.StartTime
	})
	return WriteCsv(&sorted, fileName)
}

// WriteEvents writes the daily events sorted by building, room and start.
func WriteEvents(fileName string, rows []database.EventRow, loc *time.Location) error {
	sorted := make([]database.EventRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.BuildingName != b.BuildingName {
			return a.BuildingName < b.BuildingName
		}
		if a.RoomNumber != b.RoomNumber {
			return a.RoomNumber < b.RoomNumber
		}
		return a.StartTime.Before(b.StartTime)
	})

	lines := make([]eventLine, len(sorted))
	for i, e := range sorted {
		lines[i] = eventLine{
			BuildingName: e.BuildingName,
			RoomNumber:   e.RoomNumber,
			EventName:    e.EventName,
			Occupant:     e.Occupant,
			StartTime:    e.StartTime.In(loc).Format(time.RFC3339),
			EndTime:      e.EndTime.In(loc).Format(time.RFC3339),
		}
	}
	return WriteCsv(&lines, fileName)
}
