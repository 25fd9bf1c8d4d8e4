package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/go-gorp/gorp/v3"
)

const (
	buildingsTable = "buildings"
	roomsTable     = "rooms"
	scheduleTable  = "class_schedule"
	eventsTable    = "daily_events"
)

var _ Database = (*Store)(nil)

// Store maps the room tables with gorp over either SQLite or Postgres.
type Store struct {
	db        *sql.DB
	dbmap     *gorp.DbMap
	chunkSize int
}

func newStore(db *sql.DB, dialect gorp.Dialect) (*Store, error) {
	dbmap := &gorp.DbMap{Db: db, Dialect: dialect}
	dbmap.AddTableWithName(BuildingRow{}, buildingsTable).SetKeys(false, "Name")
	dbmap.AddTableWithName(RoomRow{}, roomsTable).SetUniqueTogether("building_name", "room_number")
	dbmap.AddTableWithName(ScheduleRow{}, scheduleTable)
	dbmap.AddTableWithName(EventRow{}, eventsTable).SetUniqueTogether("building_name", "room_number", "event_name", "start_time")
	if err := dbmap.CreateTablesIfNotExists(); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to create tables: %w", err)
	}
	return &Store{db: db, dbmap: dbmap, chunkSize: ChunkSize}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Clear empties the class tables, children first.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.dbmap.Begin()
	if err != nil {
		return err
	}
	exec := tx.WithContext(ctx)
	for _, table := range []string{scheduleTable, roomsTable, buildingsTable} {
		if _, err := exec.Exec("delete from " + table); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// Load replaces the class tables with rows and checks what landed.
func (s *Store) Load(ctx context.Context, rows Rows) error {
	log.Println("Clearing existing data")
	if err := s.Clear(ctx); err != nil {
		return err
	}

	buildings := make([]interface{}, 0, len(rows.Buildings))
	for i := range rows.Buildings {
		buildings = append(buildings, &rows.Buildings[i])
	}
	if err := s.BulkInsert(ctx, buildingsTable, buildings); err != nil {
		return err
	}

	rooms := make([]interface{}, 0, len(rows.Rooms))
	for i := range rows.Rooms {
		rooms = append(rooms, &rows.Rooms[i])
	}
	if err := s.BulkInsert(ctx, roomsTable, rooms); err != nil {
		return err
	}

	schedules := make([]interface{}, 0, len(rows.Schedules))
	for i := range rows.Schedules {
		schedules = append(schedules, &rows.Schedules[i])
	}
	if err := s.BulkInsert(ctx, scheduleTable, schedules); err != nil {
		return err
	}

	return s.VerifyCounts(ctx, rows)
}

// BulkInsert writes rows in chunks, each chunk in its own transaction. A
// failed chunk does not stop the others, but the call fails afterwards, as
// it does when the table count differs from len(rows).
func (s *Store) BulkInsert(ctx context.Context, table string, rows []interface{}) error {
	total := (len(rows) + s.chunkSize - 1) / s.chunkSize
	failed := 0
	for i := 0; i < len(rows); i += s.chunkSize {
		chunk := rows[i:min(i+s.chunkSize, len(rows))]
		n := i/s.chunkSize + 1
		if err := s.insertChunk(ctx, chunk); err != nil {
			log.Printf("Error inserting chunk %d/%d into %s: %v", n, total, table, err)
			failed++
			continue
		}
		log.Printf("Inserted chunk %d/%d into %s", n, total, table)

		count, err := s.Count(ctx, table)
		if err != nil {
			return err
		}
		log.Printf("Current total count in %s: %d", table, count)
	}
	if failed > 0 {
		return fmt.Errorf("failed to insert %d chunks into %s", failed, table)
	}

	count, err := s.Count(ctx, table)
	if err != nil {
		return err
	}
	if err := checkCount(table, len(rows), int(count)); err != nil {
		return err
	}
	log.Println("Inserted and verified", count, "records in", table)
	return nil
}

func (s *Store) insertChunk(ctx context.Context, chunk []interface{}) error {
	tx, err := s.dbmap.Begin()
	if err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Insert(chunk...); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) Count(ctx context.Context, table string) (int64, error) {
	count, err := s.dbmap.WithContext(ctx).SelectInt("select count(*) from " + table)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}

// VerifyCounts compares the table counts with the rows that were loaded.
func (s *Store) VerifyCounts(ctx context.Context, rows Rows) error {
	for _, c := range []struct {
		table    string
		expected int
	}{
		{buildingsTable, len(rows.Buildings)},
		{roomsTable, len(rows.Rooms)},
		{scheduleTable, len(rows.Schedules)},
	} {
		count, err := s.Count(ctx, c.table)
		if err != nil {
			return err
		}
		if err := checkCount(c.table, c.expected, int(count)); err != nil {
			return err
		}
		log.Printf("Verified %s count: %d", c.table, count)
	}
	return nil
}

// ValidRooms returns every (building, room) present in the rooms table.
func (s *Store) ValidRooms(ctx context.Context) (map[RoomKey]bool, error) {
	var rooms []RoomRow
	if _, err := s.dbmap.WithContext(ctx).Select(&rooms, "select building_name, room_number from "+roomsTable); err != nil {
		return nil, fmt.Errorf("failed to fetch rooms: %w", err)
	}
	valid := make(map[RoomKey]bool, len(rooms))
	for _, r := range rooms {
		valid[RoomKey{r.BuildingName, r.RoomNumber}] = true
	}
	return valid, nil
}

func (s *Store) Schedule(ctx context.Context) ([]ScheduleRow, error) {
	var rows []ScheduleRow
	if _, err := s.dbmap.WithContext(ctx).Select(&rows, "select * from "+scheduleTable); err != nil {
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}
	return rows, nil
}

func (s *Store) Events(ctx context.Context) ([]EventRow, error) {
	var rows []EventRow
	if _, err := s.dbmap.WithContext(ctx).Select(&rows, "select * from "+eventsTable); err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	return rows, nil
}
