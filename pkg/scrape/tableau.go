package scrape

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultSkipColumns are dashboard columns that never make it into the
// building document.
var DefaultSkipColumns = []string{
	"Measure Names", "Measure Values", "Open/Close",
	"Customer/Contact", "StartDate", "CustomerContact",
}

// TableauParser reads columns out of the dashboard's bootstrap payload. The
// payload stores each column as indices into per-type value pools.
type TableauParser struct {
	columns  []vizColumn
	panes    []paneColumns
	segments map[string][]interface{}
	aliases  map[string]string
}

type vizColumn struct {
	FieldCaption  string `json:"fieldCaption"`
	DataType      string `json:"dataType"`
	PaneIndices   []int  `json:"paneIndices"`
	ColumnIndices []int  `json:"columnIndices"`
}

type paneColumns struct {
	VizPaneColumns []struct {
		ValueIndices []int `json:"valueIndices"`
	} `json:"vizPaneColumns"`
}

type dataSegment struct {
	DataColumns []struct {
		DataType   string        `json:"dataType"`
		DataValues []interface{} `json:"dataValues"`
	} `json:"dataColumns"`
}

// EventInfo is one dashboard booking as it appears in the building document.
type EventInfo struct {
	EventName string   `json:"event_name"`
	Occupant  string   `json:"occupant"`
	Time      TimeSlot `json:"time"`
}

type EventRooms struct {
	Rooms map[string][]EventInfo `json:"rooms"`
}

type EventBuildings struct {
	Buildings map[string]*EventRooms `json:"buildings"`
}

func NewTableauParser(payload []byte, aliases map[string]string) (*TableauParser, error) {
	var root map[string]interface{}
	if err := json.Unmarshal(payload, &root); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard payload: %w", err)
	}
	p := &TableauParser{segments: make(map[string][]interface{}), aliases: aliases}

	viz := dig(root, "secondaryInfo", "presModelMap", "vizData", "presModelHolder",
		"genPresModelMapPresModel", "presModelMap", "EventSummary", "presModelHolder",
		"genVizDataPresModel", "paneColumnsData")
	if viz != nil {
		if err := remarshal(viz["vizDataColumns"], &p.columns); err != nil {
			return nil, err
		}
		if err := remarshal(viz["paneColumnsList"], &p.panes); err != nil {
			return nil, err
		}
	}

	segments := dig(root, "secondaryInfo", "presModelMap", "dataDictionary", "presModelHolder",
		"genDataDictionaryPresModel", "dataSegments")
	// Segments are keyed "0", "1", ... and pools concatenate in that order
	keys := make([]string, 0, len(segments))
	for k := range segments {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	for _, k := range keys {
		var seg dataSegment
		if err := remarshal(segments[k], &seg); err != nil {
			return nil, err
		}
		for _, col := range seg.DataColumns {
			p.segments[col.DataType] = append(p.segments[col.DataType], col.DataValues...)
		}
	}
	return p, nil
}

func (p *TableauParser) ColumnNames() []string {
	var names []string
	for _, col := range p.columns {
		if col.FieldCaption != "" {
			names = append(names, col.FieldCaption)
		}
	}
	return names
}

// ColumnData resolves every value of the named column. Unknown columns and
// inconsistent indices yield nil.
func (p *TableauParser) ColumnData(name string) []string {
	var def *vizColumn
	for i := range p.columns {
		if p.columns[i].FieldCaption == name {
			def = &p.columns[i]
			break
		}
	}
	if def == nil || def.DataType == "" || len(def.PaneIndices) == 0 || len(def.ColumnIndices) == 0 {
		return nil
	}

	pane, col := def.PaneIndices[0], def.ColumnIndices[0]
	if pane >= len(p.panes) || col >= len(p.panes[pane].VizPaneColumns) {
		return nil
	}
	pool := p.segments[def.DataType]
	indices := p.panes[pane].VizPaneColumns[col].ValueIndices

	values := make([]string, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(pool) {
			return nil
		}
		values = append(values, fmt.Sprint(pool[i]))
	}
	return values
}

// ToBuildings groups the events by canonical building and room. Buildings
// without an alias are not tracked and are left out.
func (p *TableauParser) ToBuildings(skip []string) EventBuildings {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}
	data := make(map[string][]string)
	for _, name := range p.ColumnNames() {
		if !skipped[name] {
			data[name] = p.ColumnData(name)
		}
	}

	result := EventBuildings{Buildings: make(map[string]*EventRooms)}
	for i, building := range data["Building"] {
		alias, ok := p.aliases[building]
		if !ok {
			continue
		}
		room, okRoom := at(data["Room"], i)
		name, _ := at(data["EventName"], i)
		occupant, _ := at(data["Customer"], i)
		start, okStart := at(data["StartTime"], i)
		end, okEnd := at(data["ATTR(EndTime)"], i)
		if !okRoom || !okStart || !okEnd {
			continue
		}
		if fields := strings.Fields(end); len(fields) > 1 {
			end = fields[1]
		}

		b, ok := result.Buildings[alias]
		if !ok {
			b = &EventRooms{Rooms: make(map[string][]EventInfo)}
			result.Buildings[alias] = b
		}
		b.Rooms[room] = append(b.Rooms[room], EventInfo{
			EventName: name,
			Occupant:  occupant,
			Time:      TimeSlot{Start: trimSeconds(start), End: trimSeconds(end)},
		})
	}
	return result
}

func at(values []string, i int) (string, bool) {
	if i < len(values) {
		return values[i], true
	}
	return "", false
}

// trimSeconds turns "08:00:00" into "08:00".
func trimSeconds(clock string) string {
	if strings.Count(clock, ":") == 2 {
		return clock[:strings.LastIndex(clock, ":")]
	}
	return clock
}

func dig(m map[string]interface{}, keys ...string) map[string]interface{} {
	for _, k := range keys {
		next, ok := m[k].(map[string]interface{})
		if !ok {
			return nil
		}
		m = next
	}
	return m
}

func remarshal(in interface{}, out interface{}) error {
	if in == nil {
		return nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unexpected dashboard payload: %w", err)
	}
	return nil
}

// SaveEventBuildings writes the parsed dashboard as indented JSON.
func SaveEventBuildings(path string, events EventBuildings) error {
	return writeJSON(path, events)
}
