package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventsCsv = "\xef\xbb\xbfBuilding,Room,EventName,Customer,CustomerContact,StartDate,StartTime,EndTime,Open/Close,Measure Names,Measure Values\n" +
	"Siebel Center for Comp Sci,1404,Robotics Club,ACM,someone@illinois.edu,10/01/2024,1/1/1900 6:00:00 PM,10/01/2024 7:30:00 PM,Open,Count,1\n" +
	"Lincoln Hall,1002,Guest Lecture,History Dept,,10/01/2024,1/1/1900 9:00:00 AM,10/01/2024 10:15:00 AM,Open,Count,1\n" +
	"Lincoln Hall,1002,Broken Row,History Dept,,not a date,1/1/1900 9:00:00 AM,10/01/2024 10:15:00 AM,Open,Count,1\n" +
	"Lincoln Hall,1002,No End,History Dept,,10/01/2024,1/1/1900 9:00:00 AM,,Open,Count,1\n"

func chicago(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	return loc
}

func TestParseEvents(t *testing.T) {
	loc := chicago(t)
	aliases := map[string]string{"Siebel Center for Comp Sci": "Siebel Center"}

	events, err := ParseEvents([]byte(eventsCsv), loc, aliases)
	require.NoError(t, err)
	require.Len(t, events, 2, "rows with invalid timestamps are dropped")

	first := events[0]
	assert.Equal(t, "Siebel Center", first.BuildingName)
	assert.Equal(t, "1404", first.RoomNumber)
	assert.Equal(t, "Robotics Club", first.EventName)
	assert.Equal(t, "ACM", first.Occupant)
	assert.True(t, first.StartTime.Equal(time.Date(2024, 10, 1, 18, 0, 0, 0, loc)))
	assert.True(t, first.EndTime.Equal(time.Date(2024, 10, 1, 19, 30, 0, 0, loc)))

	assert.Equal(t, "Lincoln Hall", events[1].BuildingName, "names without an alias are kept")
	assert.Equal(t, "2024-10-01T09:00:00-05:00", events[1].StartTime.Format(time.RFC3339))
}

func TestFetchEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, eventsCsv)
	}))
	defer server.Close()

	events, err := FetchEvents(context.Background(), newTestFetcher(t, 1), server.URL+"/events.csv", chicago(t), nil)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestParseEvents_Empty(t *testing.T) {
	events, err := ParseEvents([]byte("Building,Room,EventName,Customer,StartDate,StartTime,EndTime\n"), time.UTC, nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}
