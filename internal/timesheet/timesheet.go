// Package timesheet implements timesheet status transitions for staff pay
// runs. The transition table is the contract: draft timesheets are submitted
// for approval, approvers either approve or reject, approved timesheets are
// marked paid by the pay run, and rejected ones reopen as drafts for
// correction.
package timesheet

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Status is a timesheet lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusPaid      Status = "paid"
)

// ParseStatus validates a status spelling.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected, StatusPaid:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid timesheet status %q", s)
}

// transitions maps each status to the statuses it may move to.
// Paid is terminal.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusApproved, StatusRejected},
	StatusApproved:  {StatusPaid},
	StatusRejected:  {StatusDraft},
	StatusPaid:      {},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionError reports an illegal status transition, naming both states.
type TransitionError struct {
	ID   string
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("timesheet %s cannot move from %s to %s", e.ID, e.From, e.To)
}

// ErrNotFound is returned when no timesheet has the requested id.
var ErrNotFound = fmt.Errorf("timesheet not found")

// Timesheet is one staff member's hours for a pay period.
type Timesheet struct {
	ID         string    `json:"id"`
	StaffEmail string    `json:"staffEmail"`
	PeriodFrom string    `json:"periodFrom"`
	PeriodTo   string    `json:"periodTo"`
	Hours      float64   `json:"hours"`
	Status     Status    `json:"status"`
	Note       string    `json:"note,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TransitionRequest is the web-layer payload for a status change.
type TransitionRequest struct {
	To   string `json:"to" validate:"required,oneof=draft submitted approved rejected paid"`
	Note string `json:"note,omitempty" validate:"max=500"`
}

// Service persists timesheets and enforces transitions.
type Service struct {
	db DBTX
}

// NewService creates a timesheet Service.
func NewService(db DBTX) *Service {
	return &Service{db: db}
}

const getSQL = `
SELECT id, staff_email, period_from::text, period_to::text, hours, status, note, updated_at
FROM timesheets
WHERE id = $1`

// Get returns one timesheet by id.
func (s *Service) Get(ctx context.Context, id string) (*Timesheet, error) {
	var ts Timesheet
	row := s.db.QueryRow(ctx, getSQL, id)
	if err := row.Scan(&ts.ID, &ts.StaffEmail, &ts.PeriodFrom, &ts.PeriodTo,
		&ts.Hours, &ts.Status, &ts.Note, &ts.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("timesheet: get: %w", err)
	}
	return &ts, nil
}

const transitionSQL = `
UPDATE timesheets
SET status = $1, note = $2, updated_at = now()
WHERE id = $3 AND status = $4`

// Transition moves a timesheet to a new status. The current status is part
// of the UPDATE's WHERE clause, so a concurrent transition loses cleanly:
// zero rows affected means the state moved underneath us and the caller gets
// a TransitionError reflecting the fresh state.
func (s *Service) Transition(ctx context.Context, id string, to Status, note string) (*Timesheet, error) {
	ts, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(ts.Status, to) {
		return nil, &TransitionError{ID: id, From: ts.Status, To: to}
	}

	tag, err := s.db.Exec(ctx, transitionSQL, string(to), note, id, string(ts.Status))
	if err != nil {
		return nil, fmt.Errorf("timesheet: transition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the race; report against whatever the row says now.
		fresh, ferr := s.Get(ctx, id)
		if ferr != nil {
			return nil, ferr
		}
		return nil, &TransitionError{ID: id, From: fresh.Status, To: to}
	}

	ts.Status = to
	ts.Note = note
	return ts, nil
}

const listByStatusSQL = `
SELECT id, staff_email, period_from::text, period_to::text, hours, status, note, updated_at
FROM timesheets
WHERE status = $1
ORDER BY updated_at DESC
LIMIT $2`

// ListByStatus returns timesheets in a given status, newest first.
func (s *Service) ListByStatus(ctx context.Context, status Status, limit int) ([]Timesheet, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.db.Query(ctx, listByStatusSQL, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("timesheet: list: %w", err)
	}
	defer rows.Close()

	var sheets []Timesheet
	for rows.Next() {
		var ts Timesheet
		if err := rows.Scan(&ts.ID, &ts.StaffEmail, &ts.PeriodFrom, &ts.PeriodTo,
			&ts.Hours, &ts.Status, &ts.Note, &ts.UpdatedAt); err != nil {
			return nil, fmt.Errorf("timesheet: scan: %w", err)
		}
		sheets = append(sheets, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("timesheet: list: %w", err)
	}

	return sheets, nil
}
