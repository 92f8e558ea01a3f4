package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow indicates a window whose start falls after its end.
var ErrInvalidWindow = errors.New("window start is after window end")

// Snapshot is a consistent, read-only view of the live collections passed to
// every engine function.
type Snapshot struct {
	Jobs        []Job                 `json:"jobs"`
	Adjustments []Adjustment          `json:"adjustments"`
	Recurring   []RecurringAdjustment `json:"recurring"`
	Loans       []Loan                `json:"loans"`
	Categories  []RateCategory        `json:"categories"`
	Users       []User                `json:"users"`
}

// UserByID finds a user in the snapshot.
func (s Snapshot) UserByID(id string) (User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// JobByID finds a job in the snapshot.
func (s Snapshot) JobByID(id string) (Job, bool) {
	for _, j := range s.Jobs {
		if j.ID == id {
			return j, true
		}
	}
	return Job{}, false
}

// Window is an inclusive date range. End covers the whole of its day.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow builds a window from calendar days: start at midnight and end at
// the last nanosecond of its day, both in the location of the inputs.
func NewWindow(start, end time.Time) (Window, error) {
	w := Window{Start: StartOfDay(start), End: EndOfDay(end)}
	if w.Start.After(w.End) {
		return Window{}, fmt.Errorf("%w: %s > %s", ErrInvalidWindow, start.Format(DateLayout), end.Format(DateLayout))
	}
	return w, nil
}

// Contains reports whether t falls within the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format(DateLayout), w.End.Format(DateLayout))
}

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// WarningKind classifies non-fatal data-quality problems.
type WarningKind string

const (
	WarningMissingCategory   WarningKind = "missing-rate-category"
	WarningMissingRate       WarningKind = "missing-task-rate"
	WarningUnparseableRow    WarningKind = "unparseable-row"
	WarningDuplicateJob      WarningKind = "duplicate-job"
	WarningUnknownTechnician WarningKind = "unknown-technician"
)

// Warning is surfaced alongside results; processing continues around it.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	Message  string      `json:"message"`
	JobID    string      `json:"job_id,omitempty"`
	UserID   string      `json:"user_id,omitempty"`
	TaskCode string      `json:"task_code,omitempty"`
	Row      int         `json:"row,omitempty"`
}
