package periods

import (
	"errors"
	"strings"
	"time"
)

// Status enumerates the period lifecycle. Transitions only move forward:
// OPEN -> QUANTIFY (assignment) -> CLOSED (close).
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusQuantify Status = "QUANTIFY"
	StatusClosed   Status = "CLOSED"
)

// MinEndDateGap is the minimum distance between consecutive period end
// dates, enforced when creating a period or editing the latest one.
const MinEndDateGap = 7 * 24 * time.Hour

// Period is a fixed time window during which praise is collected, then
// scored, then finalized. Praise belongs to a period by falling inside its
// window, not by a stored reference.
type Period struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	EndDate   time.Time `json:"endDate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Window is the half-open interval (Start, End] selecting the praise that
// belongs to a period. Start is the previous period's end date, or the Unix
// epoch for the first period.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return t.After(w.Start) && !t.After(w.End)
}

// CreateInput captures parameters for a new period.
type CreateInput struct {
	Name    string
	EndDate time.Time
}

// Validate checks structural constraints on the input.
func (in CreateInput) Validate() error {
	name := strings.TrimSpace(in.Name)
	if len(name) < 3 || len(name) > 64 {
		return errors.New("periods: name must be 3-64 characters")
	}
	if in.EndDate.IsZero() {
		return errors.New("periods: end date required")
	}
	return nil
}

// UpdateInput captures a partial period edit. At least one field must be set.
type UpdateInput struct {
	Name    *string
	EndDate *time.Time
}
