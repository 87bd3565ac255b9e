// Package roster implements CSV mass-invite imports: parsing a tabular
// upload, validating every cell against an import target's field
// specifications, and upserting valid rows while collecting per-line
// failures. This package has no HTTP dependencies.
package roster

import (
	"context"
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

// FieldType represents the expected data type for a CSV field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEmail
	FieldEnum
	FieldDate
	FieldBool
)

// FieldSpec defines validation rules for a single CSV column.
type FieldSpec struct {
	Name       string              // Column header name (matched case-insensitively)
	Type       FieldType           // Expected data type
	Required   bool                // Column must exist in CSV header
	AllowEmpty bool                // If true, empty values are allowed even when Required
	EnumValues []string            // Valid values for FieldEnum type
	Normalizer func(string) string // Optional transformation function
}

// Target defines one importable entity: its field specifications and the
// upsert that lands a validated row.
type Target struct {
	Key    string // URL-safe identifier: "students"
	Label  string // Display name: "Students"
	Fields []FieldSpec

	// InsertSQL is the upsert statement; Params produces its arguments from
	// a validated row, in placeholder order.
	InsertSQL string
	Params    func(row []string, idx HeaderIndex) []any
}

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// FailedRow contains information about a row that failed validation or insert.
type FailedRow struct {
	LineNumber int      `json:"lineNumber"`
	Reason     string   `json:"reason"`
	Data       []string `json:"data,omitempty"`
}

// Result contains the final outcome of an import.
type Result struct {
	Target     string        `json:"target"`
	Filename   string        `json:"filename"`
	TotalRows  int           `json:"totalRows"`
	Inserted   int           `json:"inserted"`
	Skipped    int           `json:"skipped"`
	FailedRows []FailedRow   `json:"failedRows,omitempty"`
	Duration   time.Duration `json:"duration"`
}
