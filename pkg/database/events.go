package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/illinispots/pipeline/pkg/persist"
	"github.com/illinispots/pipeline/pkg/scrape"
)

type EventRow struct {
	BuildingName string    `db:"building_name" csv:"building_name"`
	RoomNumber   string    `db:"room_number" csv:"room_number"`
	EventName    string    `db:"event_name" csv:"event_name"`
	Occupant     string    `db:"occupant" csv:"occupant"`
	StartTime    time.Time `db:"start_time" csv:"start_time"`
	EndTime      time.Time `db:"end_time" csv:"end_time"`
}

type EventRows []EventRow

var _ persist.Persistable = EventRows(nil)

func (rows EventRows) Persist(tx persist.Transaction) error {
	for i := range rows {
		if err := tx.Insert(&rows[i]); err != nil {
			return fmt.Errorf("failed to insert event %q: %w", rows[i].EventName, err)
		}
	}
	return nil
}

// Skipped is an event that was not loaded and why.
type Skipped struct {
	Event  scrape.Event
	Reason string
}

// FilterEvents keeps the events that can be loaded: every field present,
// valid timestamps, a room known to the rooms table, and no repeats.
func FilterEvents(events []scrape.Event, valid map[RoomKey]bool) (EventRows, []Skipped) {
	var rows EventRows
	var skipped []Skipped
	seen := make(map[string]bool)

	for _, e := range events {
		reason := ""
		key := RoomKey{e.BuildingName, e.RoomNumber}
		dedup := fmt.Sprint(e.BuildingName, "|", e.RoomNumber, "|", e.EventName, "|", e.StartTime.Unix())
		switch {
		case e.StartTime.IsZero() || e.EndTime.IsZero():
			reason = "Invalid timestamp"
		case e.BuildingName == "" || e.RoomNumber == "" || e.EventName == "":
			reason = "Missing required fields"
		case !valid[key]:
			reason = "Room not in database"
		case seen[dedup]:
			reason = "Duplicate event"
		}
		if reason != "" {
			skipped = append(skipped, Skipped{Event: e, Reason: reason})
			continue
		}
		seen[dedup] = true
		rows = append(rows, EventRow{
			BuildingName: e.BuildingName,
			RoomNumber:   e.RoomNumber,
			EventName:    e.EventName,
			Occupant:     e.Occupant,
			StartTime:    e.StartTime,
			EndTime:      e.EndTime,
		})
	}
	return rows, skipped
}

// ReplaceEvents clears daily_events and inserts the given rows in one
// transaction, returning how many were written.
func (s *Store) ReplaceEvents(ctx context.Context, events []EventRow) (int, error) {
	tx, err := s.dbmap.Begin()
	if err != nil {
		return 0, err
	}
	exec := tx.WithContext(ctx)
	if _, err := exec.Exec("delete from " + eventsTable); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to clear events: %w", err)
	}
	log.Println("Cleared existing events")

	if err := EventRows(events).Persist(persist.InsertIgnoringDupes(exec)); err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	count, err := s.Count(ctx, eventsTable)
	if err != nil {
		return 0, err
	}
	log.Println("Inserted", count, "events")
	return int(count), nil
}
