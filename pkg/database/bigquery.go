package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
)

// ScheduleSnapshot is a class_schedule row as archived to BigQuery.
type ScheduleSnapshot struct {
	SnapshotAt   time.Time `bigquery:"snapshot_at"`
	BuildingName string    `bigquery:"building_name"`
	RoomNumber   string    `bigquery:"room_number"`
	CourseCode   string    `bigquery:"course_code"`
	CourseTitle  string    `bigquery:"course_title"`
	StartTime    string    `bigquery:"start_time"`
	EndTime      string    `bigquery:"end_time"`
	DayOfWeek    string    `bigquery:"day_of_week"`
}

// EventSnapshot is a daily_events row as archived to BigQuery.
type EventSnapshot struct {
	SnapshotAt   time.Time `bigquery:"snapshot_at"`
	BuildingName string    `bigquery:"building_name"`
	RoomNumber   string    `bigquery:"room_number"`
	EventName    string    `bigquery:"event_name"`
	Occupant     string    `bigquery:"occupant"`
	StartTime    time.Time `bigquery:"start_time"`
	EndTime      time.Time `bigquery:"end_time"`
}

func ScheduleSnapshots(rows []ScheduleRow, at time.Time) []ScheduleSnapshot {
	out := make([]ScheduleSnapshot, len(rows))
	for i, r := range rows {
		out[i] = ScheduleSnapshot{at, r.BuildingName, r.RoomNumber, r.CourseCode, r.CourseTitle, r.StartTime, r.EndTime, r.DayOfWeek}
	}
	return out
}

func EventSnapshots(rows []EventRow, at time.Time) []EventSnapshot {
	out := make([]EventSnapshot, len(rows))
	for i, r := range rows {
		out[i] = EventSnapshot{at, r.BuildingName, r.RoomNumber, r.EventName, r.Occupant, r.StartTime, r.EndTime}
	}
	return out
}

// SnapshotTable names the dated archive table, e.g. class_schedule_20250121.
func SnapshotTable(table string, at time.Time) string {
	return table + "_" + at.Format("20060102")
}

type BigQuery struct {
	ctx     context.Context
	client  *bigquery.Client
	dataset *bigquery.Dataset
}

func NewBigQuery(ctx context.Context, projectID, datasetID string) (BigQuery, error) {
	var bq BigQuery

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return bq, fmt.Errorf("failed to create client: %w", err)
	}

	dataset := client.Dataset(datasetID)
	if err := dataset.Create(ctx, nil); err != nil {
		if !isDuplicateError(err) {
			client.Close()
			return bq, fmt.Errorf("failed to create dataset: %w", err)
		}
	}

	bq = BigQuery{ctx, client, dataset}
	return bq, nil
}

func (bq BigQuery) Close() error {
	return bq.client.Close()
}

// Archive appends the loaded schedule and events to dated snapshot tables.
func (bq BigQuery) Archive(schedule []ScheduleRow, events []EventRow, at time.Time) error {
	if len(schedule) > 0 {
		if err := bq.insert(ScheduleSnapshot{}, SnapshotTable(scheduleTable, at), ScheduleSnapshots(schedule, at)); err != nil {
			return err
		}
	}
	if len(events) > 0 {
		if err := bq.insert(EventSnapshot{}, SnapshotTable(eventsTable, at), EventSnapshots(events, at)); err != nil {
			return err
		}
	}
	return nil
}

func (bq BigQuery) insert(st interface{}, tableName string, data interface{}) error {
	// Infer the table schema
	schema, err := bigquery.InferSchema(st)
	if err != nil {
		return fmt.Errorf("failed to infer schema: %w", err)
	}

	table := bq.dataset.Table(tableName)
	if err := table.Create(bq.ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		if !isDuplicateError(err) {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	if err := table.Inserter().Put(bq.ctx, data); err != nil {
		return fmt.Errorf("failed to insert rows: %w", err)
	}
	log.Println("Archived rows to", tableName)
	return nil
}

func isDuplicateError(err error) bool {
	var e *googleapi.Error
	if errors.As(err, &e) {
		return e.Code == 409
	}
	return false
}
