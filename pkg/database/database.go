package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/illinispots/pipeline/pkg/building"
)

// ChunkSize is the number of rows written per insert transaction.
const ChunkSize = 1000

var ErrCountMismatch = errors.New("count mismatch")

type Database interface {
	io.Closer
	Load(ctx context.Context, rows Rows) error
	ValidRooms(ctx context.Context) (map[RoomKey]bool, error)
	ReplaceEvents(ctx context.Context, events []EventRow) (int, error)
	Schedule(ctx context.Context) ([]ScheduleRow, error)
	Events(ctx context.Context) ([]EventRow, error)
}

// Open connects to the local SQLite file when one is given, otherwise to
// Postgres.
func Open(postgresURL, sqlitePath string) (*Store, error) {
	if sqlitePath != "" {
		return NewSqlite(sqlitePath)
	}
	if postgresURL == "" {
		return nil, errors.New("no database configured: set DATABASE_URL or SQLITE_PATH")
	}
	return NewPostgres(postgresURL)
}

type BuildingRow struct {
	Name           string          `db:"name"`
	Latitude       sql.NullFloat64 `db:"latitude"`
	Longitude      sql.NullFloat64 `db:"longitude"`
	MondayOpen     sql.NullString  `db:"monday_open"`
	MondayClose    sql.NullString  `db:"monday_close"`
	TuesdayOpen    sql.NullString  `db:"tuesday_open"`
	TuesdayClose   sql.NullString  `db:"tuesday_close"`
	WednesdayOpen  sql.NullString  `db:"wednesday_open"`
	WednesdayClose sql.NullString  `db:"wednesday_close"`
	ThursdayOpen   sql.NullString  `db:"thursday_open"`
	ThursdayClose  sql.NullString  `db:"thursday_close"`
	FridayOpen     sql.NullString  `db:"friday_open"`
	FridayClose    sql.NullString  `db:"friday_close"`
	SaturdayOpen   sql.NullString  `db:"saturday_open"`
	SaturdayClose  sql.NullString  `db:"saturday_close"`
	SundayOpen     sql.NullString  `db:"sunday_open"`
	SundayClose    sql.NullString  `db:"sunday_close"`
}

// hours returns the open and close columns of a weekday.
func (b *BuildingRow) hours(day string) (open, close *sql.NullString) {
	switch day {
	case "monday":
		return &b.MondayOpen, &b.MondayClose
	case "tuesday":
		return &b.TuesdayOpen, &b.TuesdayClose
	case "wednesday":
		return &b.WednesdayOpen, &b.WednesdayClose
	case "thursday":
		return &b.ThursdayOpen, &b.ThursdayClose
	case "friday":
		return &b.FridayOpen, &b.FridayClose
	case "saturday":
		return &b.SaturdayOpen, &b.SaturdayClose
	case "sunday":
		return &b.SundayOpen, &b.SundayClose
	}
	return nil, nil
}

type RoomKey struct {
	BuildingName string
	RoomNumber   string
}

type RoomRow struct {
	BuildingName string `db:"building_name"`
	RoomNumber   string `db:"room_number"`
}

type ScheduleRow struct {
	BuildingName string `db:"building_name" csv:"building_name"`
	RoomNumber   string `db:"room_number" csv:"room_number"`
	CourseCode   string `db:"course_code" csv:"course_code"`
	CourseTitle  string `db:"course_title" csv:"course_title"`
	StartTime    string `db:"start_time" csv:"start_time"`
	EndTime      string `db:"end_time" csv:"end_time"`
	DayOfWeek    string `db:"day_of_week" csv:"day_of_week"`
}

// Rows is a building document flattened into the three class tables.
type Rows struct {
	Buildings []BuildingRow
	Rooms     []RoomRow
	Schedules []ScheduleRow
}

// Prepare flattens the document: one row per building, one per room and
// one schedule row per class per meeting day.
func Prepare(doc *building.Document) (Rows, error) {
	var rows Rows
	seen := make(map[RoomKey]bool)

	for _, name := range doc.Names() {
		b := doc.Buildings[name]
		row := BuildingRow{Name: name}
		if b.Coordinates != nil {
			row.Latitude = sql.NullFloat64{Float64: b.Coordinates.Latitude, Valid: true}
			row.Longitude = sql.NullFloat64{Float64: b.Coordinates.Longitude, Valid: true}
		}
		for day, oc := range b.Hours {
			open, closing := row.hours(day)
			if open == nil {
				return rows, fmt.Errorf("building %q has hours for unknown day %q", name, day)
			}
			*open = nullString(oc.Open)
			*closing = nullString(oc.Close)
		}
		rows.Buildings = append(rows.Buildings, row)

		for _, room := range b.RoomNumbers() {
			key := RoomKey{name, strings.TrimSpace(room)}
			if seen[key] {
				return rows, fmt.Errorf("%w: duplicate room found: %s in %s", building.ErrValidation, key.RoomNumber, name)
			}
			seen[key] = true
			rows.Rooms = append(rows.Rooms, RoomRow{BuildingName: name, RoomNumber: key.RoomNumber})

			for _, class := range b.Rooms[room] {
				for _, day := range class.Days {
					rows.Schedules = append(rows.Schedules, ScheduleRow{
						BuildingName: name,
						RoomNumber:   key.RoomNumber,
						CourseCode:   class.Course,
						CourseTitle:  class.Title,
						StartTime:    class.Time.Start,
						EndTime:      class.Time.End,
						DayOfWeek:    day,
					})
				}
			}
		}
	}
	return rows, nil
}

// VerifyCounts checks the prepared rows against what the document holds.
func VerifyCounts(doc *building.Document, rows Rows) error {
	rooms, schedules := 0, 0
	for _, b := range doc.Buildings {
		rooms += len(b.Rooms)
		for _, classes := range b.Rooms {
			for _, class := range classes {
				schedules += len(class.Days)
			}
		}
	}
	if err := checkCount("building", len(doc.Buildings), len(rows.Buildings)); err != nil {
		return err
	}
	if err := checkCount("room", rooms, len(rows.Rooms)); err != nil {
		return err
	}
	return checkCount("schedule", schedules, len(rows.Schedules))
}

func checkCount(what string, expected, got int) error {
	if expected != got {
		return fmt.Errorf("%w: %s expected %d, got %d", ErrCountMismatch, what, expected, got)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
