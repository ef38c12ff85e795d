package clinicalhistory

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("clinical history entry not found")

// Entry is a single clinical history record belonging to one patient.
type Entry struct {
	ID         int64     `db:"id" json:"id"`
	PatientID  string    `db:"patient_id" json:"patient_id"`
	Title      string    `db:"title" json:"title"`
	Notes      string    `db:"notes" json:"notes"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}
