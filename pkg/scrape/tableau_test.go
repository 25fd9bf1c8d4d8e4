package scrape

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dashboardPayload holds two segments; string values are split across them
// so indices must resolve against the concatenated pool.
const dashboardPayload = `{
  "secondaryInfo": {
    "presModelMap": {
      "dataDictionary": {
        "presModelHolder": {
          "genDataDictionaryPresModel": {
            "dataSegments": {
              "1": {"dataColumns": [
                {"dataType": "cstring", "dataValues": ["Guest Lecture", "History Dept", "09:00:00", "10/01/2024 10:15:00", "Unmapped Hall"]}
              ]},
              "0": {"dataColumns": [
                {"dataType": "cstring", "dataValues": ["Siebel Center for Comp Sci", "1404", "Robotics Club", "ACM", "18:00:00", "10/01/2024 19:30:00"]},
                {"dataType": "integer", "dataValues": [1]}
              ]}
            }
          }
        }
      },
      "vizData": {
        "presModelHolder": {
          "genPresModelMapPresModel": {
            "presModelMap": {
              "EventSummary": {
                "presModelHolder": {
                  "genVizDataPresModel": {
                    "paneColumnsData": {
                      "vizDataColumns": [
                        {"fieldCaption": "Building", "dataType": "cstring", "paneIndices": [0], "columnIndices": [0]},
                        {"fieldCaption": "Room", "dataType": "cstring", "paneIndices": [0], "columnIndices": [1]},
                        {"fieldCaption": "EventName", "dataType": "cstring", "paneIndices": [0], "columnIndices": [2]},
                        {"fieldCaption": "Customer", "dataType": "cstring", "paneIndices": [0], "columnIndices": [3]},
                        {"fieldCaption": "StartTime", "dataType": "cstring", "paneIndices": [0], "columnIndices": [4]},
                        {"fieldCaption": "ATTR(EndTime)", "dataType": "cstring", "paneIndices": [0], "columnIndices": [5]},
                        {"fieldCaption": "Measure Values", "dataType": "integer", "paneIndices": [0], "columnIndices": [6]},
                        {"dataType": "cstring", "paneIndices": [0], "columnIndices": [0]}
                      ],
                      "paneColumnsList": [
                        {"vizPaneColumns": [
                          {"valueIndices": [0, 0, 10]},
                          {"valueIndices": [1, 1, 1]},
                          {"valueIndices": [2, 6, 6]},
                          {"valueIndices": [3, 7, 7]},
                          {"valueIndices": [4, 8, 8]},
                          {"valueIndices": [5, 9, 9]},
                          {"valueIndices": [0, 0, 0]}
                        ]}
                      ]
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

func TestTableauParser_Columns(t *testing.T) {
	p, err := NewTableauParser([]byte(dashboardPayload), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Building", "Room", "EventName", "Customer", "StartTime", "ATTR(EndTime)", "Measure Values"}, p.ColumnNames())
	assert.Equal(t, []string{"Robotics Club", "Guest Lecture", "Guest Lecture"}, p.ColumnData("EventName"))
	assert.Equal(t, []string{"1", "1", "1"}, p.ColumnData("Measure Values"))
	assert.Nil(t, p.ColumnData("Nope"))
}

func TestTableauParser_ToBuildings(t *testing.T) {
	aliases := map[string]string{"Siebel Center for Comp Sci": "Siebel Center"}
	p, err := NewTableauParser([]byte(dashboardPayload), aliases)
	require.NoError(t, err)

	result := p.ToBuildings(DefaultSkipColumns)
	require.Len(t, result.Buildings, 1, "buildings without an alias are skipped")

	siebel := result.Buildings["Siebel Center"]
	require.NotNil(t, siebel)
	require.Len(t, siebel.Rooms["1404"], 2)
	assert.Equal(t, EventInfo{
		EventName: "Robotics Club",
		Occupant:  "ACM",
		Time:      TimeSlot{Start: "18:00", End: "19:30"},
	}, siebel.Rooms["1404"][0])
	assert.Equal(t, TimeSlot{Start: "09:00", End: "10:15"}, siebel.Rooms["1404"][1].Time)
}

func TestTableauParser_MissingSections(t *testing.T) {
	p, err := NewTableauParser([]byte(`{"secondaryInfo": {}}`), nil)
	require.NoError(t, err)
	assert.Empty(t, p.ColumnNames())
	assert.Empty(t, p.ToBuildings(nil).Buildings)

	_, err = NewTableauParser([]byte(`not json`), nil)
	assert.Error(t, err)
}

func TestSaveEventBuildings(t *testing.T) {
	p, err := NewTableauParser([]byte(dashboardPayload), map[string]string{"Siebel Center for Comp Sci": "Siebel Center"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "events_buildings.json")
	require.NoError(t, SaveEventBuildings(path, p.ToBuildings(DefaultSkipColumns)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got EventBuildings
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Len(t, got.Buildings["Siebel Center"].Rooms["1404"], 2)
}
