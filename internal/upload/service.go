// Package upload is the action layer around content-type validation: it
// accepts a raw buffer, validates it against a named profile, persists the
// accepted bytes in the object store, and records the upload with an audit
// trail. Rejections are returned as typed results, never panics, so the HTTP
// layer can surface the validator's message verbatim.
package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/EcodiaTate/wattleos-sub007/internal/audit"
	"github.com/EcodiaTate/wattleos-sub007/internal/filetype"
	"github.com/EcodiaTate/wattleos-sub007/internal/logging"
	"github.com/EcodiaTate/wattleos-sub007/internal/storage"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// ErrUnknownProfile is returned when the requested profile is not declared.
var ErrUnknownProfile = fmt.Errorf("unknown upload profile")

// Record is a stored upload.
type Record struct {
	ID           string    `json:"id"`
	Profile      string    `json:"profile"`
	Filename     string    `json:"filename"`
	DetectedType string    `json:"detectedType"`
	ByteSize     int64     `json:"byteSize"`
	StorageKey   string    `json:"storageKey"`
	UploadedBy   string    `json:"uploadedBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Actor identifies who performed an upload, for the record and audit trail.
type Actor struct {
	Name      string
	IPAddress string
}

// Rejection wraps a validator rejection as an error so callers can
// distinguish it from infrastructure failures. The Result carries the
// user-facing message.
type Rejection struct {
	Result filetype.Result
}

func (r *Rejection) Error() string {
	return r.Result.Message
}

// Service validates, stores, and records uploads.
type Service struct {
	db      DBTX
	store   *storage.Store
	auditor *audit.Recorder
	limiter *Limiter
}

// NewService creates an upload Service.
func NewService(db DBTX, store *storage.Store, auditor *audit.Recorder, limiter *Limiter) *Service {
	return &Service{
		db:      db,
		store:   store,
		auditor: auditor,
		limiter: limiter,
	}
}

// Limiter exposes the concurrency limiter for shutdown draining.
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

const insertUploadSQL = `
INSERT INTO uploads (profile, filename, detected_type, byte_size, storage_key, uploaded_by)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at`

// Process validates data against the named profile and, when accepted,
// stores the object and records the upload. A validation failure returns a
// *Rejection; any other error is an infrastructure failure.
func (s *Service) Process(ctx context.Context, profileName, filename string, data []byte, actor Actor) (*Record, error) {
	profile, ok := filetype.ByName(profileName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, profileName)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	logger := logging.WithFields(ctx, "profile", profileName, "filename", filename)

	result := filetype.Validate(data, filename, profile)
	if !result.Valid {
		logger.Info("upload rejected", "reason", result.Reason, "size", len(data))
		s.logAudit(ctx, audit.ActionUploadRejected, filename, actor, map[string]any{
			"profile": profileName,
			"reason":  string(result.Reason),
			"size":    len(data),
		})
		return nil, &Rejection{Result: result}
	}

	key, err := s.store.Save(profileName, filename, data)
	if err != nil {
		return nil, fmt.Errorf("upload: store object: %w", err)
	}

	record := &Record{
		Profile:      profileName,
		Filename:     filename,
		DetectedType: result.DetectedType,
		ByteSize:     int64(len(data)),
		StorageKey:   key,
		UploadedBy:   actor.Name,
	}

	row := s.db.QueryRow(ctx, insertUploadSQL,
		record.Profile, record.Filename, record.DetectedType,
		record.ByteSize, record.StorageKey, record.UploadedBy)
	if err := row.Scan(&record.ID, &record.CreatedAt); err != nil {
		// The record is the source of truth; an orphan object must not
		// survive a failed insert.
		if delErr := s.store.Delete(key); delErr != nil {
			logger.Warn("orphan object cleanup failed", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("upload: insert record: %w", err)
	}

	logger.Info("upload accepted",
		"upload_id", record.ID,
		"detected_type", record.DetectedType,
		"size", record.ByteSize,
	)
	s.logAudit(ctx, audit.ActionUpload, record.ID, actor, map[string]any{
		"profile":      profileName,
		"filename":     filename,
		"detectedType": record.DetectedType,
		"size":         record.ByteSize,
	})

	return record, nil
}

const listUploadsSQL = `
SELECT id, profile, filename, detected_type, byte_size, storage_key, uploaded_by, created_at
FROM uploads
WHERE profile = $1
ORDER BY created_at DESC
LIMIT $2`

// List returns the most recent uploads for a profile.
func (s *Service) List(ctx context.Context, profileName string, limit int) ([]Record, error) {
	if _, ok := filetype.ByName(profileName); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, profileName)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.db.Query(ctx, listUploadsSQL, profileName, limit)
	if err != nil {
		return nil, fmt.Errorf("upload: list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Profile, &r.Filename, &r.DetectedType,
			&r.ByteSize, &r.StorageKey, &r.UploadedBy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("upload: scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("upload: list records: %w", err)
	}

	return records, nil
}

// Fetch returns the stored bytes for an upload record.
func (s *Service) Fetch(ctx context.Context, id string) (*Record, []byte, error) {
	var r Record
	row := s.db.QueryRow(ctx, `
SELECT id, profile, filename, detected_type, byte_size, storage_key, uploaded_by, created_at
FROM uploads WHERE id = $1`, id)
	if err := row.Scan(&r.ID, &r.Profile, &r.Filename, &r.DetectedType,
		&r.ByteSize, &r.StorageKey, &r.UploadedBy, &r.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, fmt.Errorf("upload not found: %s", id)
		}
		return nil, nil, fmt.Errorf("upload: fetch record: %w", err)
	}

	data, err := s.store.Open(r.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return &r, data, nil
}

// logAudit writes an audit entry, logging instead of failing the upload when
// the audit insert itself errors.
func (s *Service) logAudit(ctx context.Context, action audit.Action, subject string, actor Actor, metadata map[string]any) {
	if s.auditor == nil {
		return
	}
	if _, err := s.auditor.Log(ctx, audit.LogParams{
		Action:    action,
		Subject:   subject,
		Actor:     actor.Name,
		IPAddress: actor.IPAddress,
		Metadata:  metadata,
	}); err != nil {
		logging.FromContext(ctx).Warn("audit write failed", "action", action, "error", err)
	}
}
