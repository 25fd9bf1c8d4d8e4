package scrape

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Checkpoint records the subjects a scrape has finished so an interrupted run
// can pick up where it left off.
type Checkpoint struct {
	RunID     string    `json:"run_id"`
	Year      int       `json:"year"`
	Term      string    `json:"term"`
	UpdatedAt time.Time `json:"updated_at"`
	Completed []string  `json:"completed"`
	Subjects  []Subject `json:"subjects"`

	done map[string]bool
}

func NewCheckpoint(year int, term Term) *Checkpoint {
	return &Checkpoint{
		RunID:     uuid.New().String(),
		Year:      year,
		Term:      string(term),
		Completed: []string{},
		Subjects:  []Subject{},
		done:      make(map[string]bool),
	}
}

func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint %s: %w", path, err)
	}
	cp.done = make(map[string]bool, len(cp.Completed))
	for _, code := range cp.Completed {
		cp.done[code] = true
	}
	return &cp, nil
}

func (cp *Checkpoint) Done(code string) bool {
	return cp.done[code]
}

// Complete marks subject as finished. Subjects without courses are remembered
// as done but not kept.
func (cp *Checkpoint) Complete(subject Subject) {
	if cp.done[subject.Code] {
		return
	}
	cp.done[subject.Code] = true
	cp.Completed = append(cp.Completed, subject.Code)
	if len(subject.Courses) > 0 {
		cp.Subjects = append(cp.Subjects, subject)
	}
}

func (cp *Checkpoint) Save(path string) error {
	cp.UpdatedAt = time.Now()
	if err := writeJSON(path, cp); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
