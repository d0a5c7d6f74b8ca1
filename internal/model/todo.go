package model

import (
	"encoding/json"
	"math"
)

// Todo is a titled task with a time window and ordered checkpoints.
// StartTime and EndTime are opaque time-of-day strings ("09:00").
type Todo struct {
	ID          string       `json:"_id,omitempty"`
	Title       string       `json:"title"`
	Checkpoints []Checkpoint `json:"checkpoints"`
	StartTime   string       `json:"startTime"`
	EndTime     string       `json:"endTime"`
}

// Checkpoint is a sub-task of a Todo.
type Checkpoint struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// UnmarshalJSON accepts both "_id" and "id" for the identifier.
func (t *Todo) UnmarshalJSON(b []byte) error {
	type plain Todo
	var aux struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*t = Todo(aux.plain)
	if t.ID == "" {
		t.ID = aux.AltID
	}
	if t.Checkpoints == nil {
		t.Checkpoints = []Checkpoint{}
	}
	return nil
}

// Clone returns a copy that shares no checkpoint storage with t.
func (t Todo) Clone() Todo {
	out := t
	out.Checkpoints = make([]Checkpoint, len(t.Checkpoints))
	copy(out.Checkpoints, t.Checkpoints)
	return out
}

// Counts returns how many checkpoints are done and how many are pending.
func Counts(cps []Checkpoint) (done, pending int) {
	for _, c := range cps {
		if c.Done {
			done++
		} else {
			pending++
		}
	}
	return
}

// Progress returns the rounded percentage of done checkpoints.
// An empty sequence yields 0.
func Progress(cps []Checkpoint) int {
	if len(cps) == 0 {
		return 0
	}
	done, _ := Counts(cps)
	return int(math.Round(float64(done) / float64(len(cps)) * 100))
}
