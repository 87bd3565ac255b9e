// Package attendance records daily roll-call marks. Marking is an upsert
// keyed on (student, class, date): re-marking the same day overwrites the
// earlier status and note rather than stacking rows, which is what kiosk
// check-in and teacher corrections both rely on.
package attendance

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
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
}

// Status is an attendance mark.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// ParseStatus validates a status spelling.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid attendance status %q", s)
}

// Mark is one roll-call entry. The validate tags drive request validation in
// the web layer.
type Mark struct {
	StudentCode string `json:"studentCode" validate:"required"`
	ClassCode   string `json:"classCode" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Status      string `json:"status" validate:"required,oneof=present absent late excused"`
	Note        string `json:"note,omitempty" validate:"max=500"`
}

// Record is a stored attendance row.
type Record struct {
	StudentCode string    `json:"studentCode"`
	ClassCode   string    `json:"classCode"`
	Date        string    `json:"date"`
	Status      Status    `json:"status"`
	Note        string    `json:"note,omitempty"`
	MarkedAt    time.Time `json:"markedAt"`
}

// Summary is the per-status count for one class and day.
type Summary struct {
	ClassCode string         `json:"classCode"`
	Date      string         `json:"date"`
	Counts    map[Status]int `json:"counts"`
	Total     int            `json:"total"`
}

// Service persists attendance marks.
type Service struct {
	db DBTX
}

// NewService creates an attendance Service.
func NewService(db DBTX) *Service {
	return &Service{db: db}
}

const upsertMarkSQL = `
INSERT INTO attendance_records (student_code, class_code, att_date, status, note)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (student_code, class_code, att_date) DO UPDATE SET
    status = EXCLUDED.status,
    note = EXCLUDED.note,
    updated_at = now()`

// MarkAll upserts a batch of marks and returns how many were written.
// Statuses are re-checked here so the service holds its own invariant even
// when called outside the validated HTTP path.
func (s *Service) MarkAll(ctx context.Context, marks []Mark) (int, error) {
	if len(marks) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for i, m := range marks {
		if _, err := ParseStatus(m.Status); err != nil {
			return 0, fmt.Errorf("attendance: mark %d: %w", i, err)
		}
		if _, err := time.Parse("2006-01-02", m.Date); err != nil {
			return 0, fmt.Errorf("attendance: mark %d: invalid date %q", i, m.Date)
		}
		b.Queue(upsertMarkSQL, m.StudentCode, m.ClassCode, m.Date, m.Status, m.Note)
	}

	br := s.db.SendBatch(ctx, b)
	defer br.Close()

	written := 0
	for range marks {
		if _, err := br.Exec(); err != nil {
			return written, fmt.Errorf("attendance: upsert mark: %w", err)
		}
		written++
	}

	return written, nil
}

const summarySQL = `
SELECT status, count(*)
FROM attendance_records
WHERE class_code = $1 AND att_date = $2
GROUP BY status`

// DailySummary returns per-status counts for one class and day.
func (s *Service) DailySummary(ctx context.Context, classCode, date string) (*Summary, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("attendance: invalid date %q", date)
	}

	rows, err := s.db.Query(ctx, summarySQL, classCode, date)
	if err != nil {
		return nil, fmt.Errorf("attendance: summary query: %w", err)
	}
	defer rows.Close()

	summary := &Summary{
		ClassCode: classCode,
		Date:      date,
		Counts:    make(map[Status]int),
	}
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("attendance: scan summary: %w", err)
		}
		summary.Counts[status] = count
		summary.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("attendance: summary query: %w", err)
	}

	return summary, nil
}

const rangeSQL = `
SELECT student_code, class_code, att_date::text, status, note, updated_at
FROM attendance_records
WHERE class_code = $1 AND att_date BETWEEN $2 AND $3
ORDER BY att_date, student_code`

// Range returns all marks for a class between two dates (inclusive).
func (s *Service) Range(ctx context.Context, classCode, from, to string) ([]Record, error) {
	for _, d := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("attendance: invalid date %q", d)
		}
	}

	rows, err := s.db.Query(ctx, rangeSQL, classCode, from, to)
	if err != nil {
		return nil, fmt.Errorf("attendance: range query: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.StudentCode, &r.ClassCode, &r.Date, &r.Status, &r.Note, &r.MarkedAt); err != nil {
			return nil, fmt.Errorf("attendance: scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("attendance: range query: %w", err)
	}

	return records, nil
}
