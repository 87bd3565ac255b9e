package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/EcodiaTate/wattleos-sub007/internal/config"
	"github.com/EcodiaTate/wattleos-sub007/internal/storage"
	"github.com/EcodiaTate/wattleos-sub007/internal/upload"
)

// uploadDB fakes the upload record insert.
type uploadDB struct{}

func (uploadDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	panic("not used")
}

func (uploadDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	panic("not used")
}

func (uploadDB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return insertedRow{}
}

type insertedRow struct{}

func (insertedRow) Scan(dest ...any) error {
	*dest[0].(*string) = "11111111-2222-3333-4444-555555555555"
	*dest[1].(*time.Time) = time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.RequestTimeout = 30 * time.Second
	cfg.Rate.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}

	limiter := upload.NewLimiter(2, time.Second)
	uploads := upload.NewService(uploadDB{}, store, nil, limiter)

	return NewServer(cfg, Services{Uploads: uploads})
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	fw.Write(content)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s, want ok status", rec.Body.String())
	}
}

func TestListProfiles(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profiles", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Profiles []profileResponse `json:"profiles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Profiles) != 5 {
		t.Fatalf("profiles = %d, want 5", len(body.Profiles))
	}

	found := false
	for _, p := range body.Profiles {
		if p.Name == "classroom_media" {
			found = true
			if p.MaxBytes != 25<<20 {
				t.Errorf("classroom_media maxBytes = %d, want %d", p.MaxBytes, 25<<20)
			}
			if len(p.Formats) == 0 {
				t.Error("classroom_media has no formats")
			}
		}
	}
	if !found {
		t.Error("classroom_media missing from profile listing")
	}
}

func TestUpload_Accepted(t *testing.T) {
	srv := newTestServer(t, testConfig())

	jpeg := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x10}, 32)...)
	body, contentType := multipartBody(t, "photo.jpg", jpeg)

	req := httptest.NewRequest(http.MethodPost, "/api/uploads/classroom_media", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var record upload.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if record.DetectedType != "image/jpeg" {
		t.Errorf("detectedType = %s, want image/jpeg", record.DetectedType)
	}
	if record.ByteSize != int64(len(jpeg)) {
		t.Errorf("byteSize = %d, want %d", record.ByteSize, len(jpeg))
	}
}

func TestUpload_EmptyFileRejected(t *testing.T) {
	srv := newTestServer(t, testConfig())

	body, contentType := multipartBody(t, "blank.jpg", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/avatar_photo", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
	var resp rejectionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Code != "EMPTY_FILE" {
		t.Errorf("code = %s, want EMPTY_FILE", resp.Code)
	}
	if resp.Error != "The uploaded file is empty" {
		t.Errorf("error = %q, want validator message verbatim", resp.Error)
	}
}

func TestUpload_UnknownProfile(t *testing.T) {
	srv := newTestServer(t, testConfig())

	body, contentType := multipartBody(t, "x.jpg", []byte{0xFF, 0xD8, 0xFF, 0x00})
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/selfies", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "UPL003") {
		t.Errorf("body = %s, want UPL003 code", rec.Body.String())
	}
}

func TestAPIKeyAuth_MissingKey(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret-key"}
	srv := newTestServer(t, cfg)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profiles", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	// Healthz stays open for probes
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}

	// A valid key passes
	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	req.Header.Set("X-API-Key", "secret-key")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authed status = %d, want 200", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	if !rl.allow("10.0.0.1") || !rl.allow("10.0.0.1") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.allow("10.0.0.1") {
		t.Error("third request within window should be denied")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("separate IPs have separate buckets")
	}
}
