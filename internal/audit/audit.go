// Package audit records append-only audit entries for every mutating action
// the intake service performs. Entries carry the acting user, the subject of
// the change, and free-form metadata; severity is derived from the action.
package audit

import (
	"context"
	"encoding/json"
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

// Action represents the type of action being audited.
type Action string

const (
	ActionUpload              Action = "upload"
	ActionUploadRejected      Action = "upload_rejected"
	ActionRosterImport        Action = "roster_import"
	ActionAttendanceMark      Action = "attendance_mark"
	ActionTimesheetTransition Action = "timesheet_transition"
)

// Severity represents the severity level of an audit entry.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Entry is a single audit log entry.
type Entry struct {
	ID        string         `json:"id"`
	Action    Action         `json:"action"`
	Severity  Severity       `json:"severity"`
	Subject   string         `json:"subject,omitempty"` // what was acted on: upload id, timesheet id, import target
	Actor     string         `json:"actor,omitempty"`
	IPAddress string         `json:"ipAddress,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// LogParams contains parameters for creating an audit log entry.
type LogParams struct {
	Action    Action
	Subject   string
	Actor     string
	IPAddress string
	Metadata  map[string]any
}

// Recorder writes and reads audit entries.
type Recorder struct {
	db DBTX
}

// NewRecorder creates a Recorder backed by the given database.
func NewRecorder(db DBTX) *Recorder {
	return &Recorder{db: db}
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action Action) Severity {
	switch action {
	case ActionRosterImport, ActionTimesheetTransition:
		return SeverityHigh
	case ActionUpload, ActionAttendanceMark:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

const insertEntrySQL = `
INSERT INTO audit_log (action, severity, subject, actor, ip_address, metadata)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at`

// Log creates a new audit entry. Marshaling failures on metadata degrade to
// a null column rather than losing the entry.
func (r *Recorder) Log(ctx context.Context, params LogParams) (*Entry, error) {
	severity := determineSeverity(params.Action)

	var metadataJSON []byte
	if params.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(params.Metadata)
		if err != nil {
			metadataJSON = nil
		}
	}

	entry := &Entry{
		Action:    params.Action,
		Severity:  severity,
		Subject:   params.Subject,
		Actor:     params.Actor,
		IPAddress: params.IPAddress,
		Metadata:  params.Metadata,
	}

	row := r.db.QueryRow(ctx, insertEntrySQL,
		string(params.Action), string(severity),
		params.Subject, params.Actor, params.IPAddress, metadataJSON)
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return nil, fmt.Errorf("audit: insert entry: %w", err)
	}

	return entry, nil
}

const listEntriesSQL = `
SELECT id, action, severity, subject, actor, ip_address, metadata, created_at
FROM audit_log
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

// List returns audit entries newest first, with simple limit/offset paging.
func (r *Recorder) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx, listEntriesSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("audit: list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e            Entry
			metadataJSON []byte
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.Severity, &e.Subject,
			&e.Actor, &e.IPAddress, &metadataJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan entry: %w", err)
		}
		if len(metadataJSON) > 0 {
			_ = json.Unmarshal(metadataJSON, &e.Metadata)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: list entries: %w", err)
	}

	return entries, nil
}
