package roster

// importer.go runs an import end to end: parse the CSV, validate headers and
// rows, and upsert valid rows in batches. Batches go through the pgx batch
// protocol; when a batch fails (one bad row aborts the implicit transaction),
// the importer falls back to row-at-a-time inserts so every failure is
// attributed to its line.

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/EcodiaTate/wattleos-sub007/internal/logging"
)

// ErrUnknownTarget is returned for import target keys that are not registered.
var ErrUnknownTarget = errors.New("unknown import target")

// ErrNoDataRows is returned when the CSV contains headers but no data.
var ErrNoDataRows = errors.New("file contains no data rows")

// DefaultBatchSize is the number of rows upserted per database round trip.
const DefaultBatchSize = 500

// maxFailedRowsKept caps how many failed rows a result retains, so a wholly
// broken file cannot balloon the response.
const maxFailedRowsKept = 200

// Importer validates and inserts roster CSV files.
type Importer struct {
	db        DBTX
	batchSize int
}

// NewImporter creates an Importer. batchSize <= 0 selects DefaultBatchSize.
func NewImporter(db DBTX, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{db: db, batchSize: batchSize}
}

// pendingRow is a validated row waiting for insertion.
type pendingRow struct {
	line   int
	data   []string
	params []any
}

// Import parses data as CSV and upserts valid rows into the named target.
// The returned Result accounts for every data row; only infrastructure
// failures (unknown target, unreadable file, connection loss) produce an
// error.
func (im *Importer) Import(ctx context.Context, targetKey, filename string, data []byte) (*Result, error) {
	target, ok := Get(targetKey)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, targetKey)
	}

	start := time.Now()
	logger := logging.WithFields(ctx, "target", targetKey, "filename", filename)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // ragged rows are a row-level failure, not a file-level one

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("roster: read headers: %w", err)
	}

	idx, err := ValidateHeaders(headers, target.Fields)
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}

	result := &Result{
		Target:   targetKey,
		Filename: filename,
	}

	var batch []pendingRow
	line := 1 // header consumed

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.TotalRows++
			result.Skipped++
			result.addFailure(FailedRow{LineNumber: line, Reason: "unreadable row: " + err.Error()})
			continue
		}
		if IsEmptyRow(row) {
			continue
		}

		result.TotalRows++
		if err := ValidateRow(row, target.Fields, idx); err != nil {
			result.Skipped++
			result.addFailure(FailedRow{LineNumber: line, Reason: err.Error(), Data: row})
			continue
		}

		batch = append(batch, pendingRow{line: line, data: row, params: target.Params(row, idx)})
		if len(batch) >= im.batchSize {
			if err := im.flush(ctx, target, batch, result); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := im.flush(ctx, target, batch, result); err != nil {
			return nil, err
		}
	}

	if result.TotalRows == 0 {
		return nil, ErrNoDataRows
	}

	result.Duration = time.Since(start)
	logger.Info("import finished",
		"total", result.TotalRows,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"duration", result.Duration,
	)

	return result, nil
}

// flush upserts a batch of validated rows. A batch-level failure falls back
// to row-at-a-time inserts so individual failures keep their line numbers.
func (im *Importer) flush(ctx context.Context, target Target, rows []pendingRow, result *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b := &pgx.Batch{}
	for _, row := range rows {
		b.Queue(target.InsertSQL, row.params...)
	}

	br := im.db.SendBatch(ctx, b)
	batchErr := drainBatch(br, len(rows))
	if batchErr == nil {
		result.Inserted += len(rows)
		return nil
	}

	logging.FromContext(ctx).Debug("batch insert failed, retrying row by row",
		"target", target.Key, "rows", len(rows), "error", batchErr)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := im.db.Exec(ctx, target.InsertSQL, row.params...); err != nil {
			result.Skipped++
			result.addFailure(FailedRow{LineNumber: row.line, Reason: err.Error(), Data: row.data})
			continue
		}
		result.Inserted++
	}
	return nil
}

// drainBatch consumes all batch results and returns the first error.
func drainBatch(br pgx.BatchResults, n int) error {
	var first error
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil && first == nil {
			first = err
		}
	}
	if err := br.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// addFailure appends a failed row, dropping detail past the retention cap.
func (r *Result) addFailure(row FailedRow) {
	if len(r.FailedRows) >= maxFailedRowsKept {
		return
	}
	r.FailedRows = append(r.FailedRows, row)
}
