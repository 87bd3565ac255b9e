package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/EcodiaTate/wattleos-sub007/internal/filetype"
	"github.com/EcodiaTate/wattleos-sub007/internal/upload"
)

// maxRequestBytes caps the request body well above the largest profile
// ceiling, so an oversized file still reaches the validator and gets a
// size-specific rejection instead of a blunt 413.
const maxRequestBytes = 64 << 20

// requestActor builds the acting identity for audit trails from the request.
// RemoteAddr has already been through the trusted-proxy real IP middleware.
func requestActor(r *http.Request) upload.Actor {
	return upload.Actor{
		Name:      r.Header.Get("X-Actor"),
		IPAddress: r.RemoteAddr,
	}
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

// readUploadedFile extracts the multipart "file" field as a byte buffer.
func readUploadedFile(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	if err := r.ParseMultipartForm(maxRequestBytes); err != nil {
		return nil, "", fmt.Errorf("request body too large or invalid form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("no file provided: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read uploaded file: %w", err)
	}
	return data, header.Filename, nil
}

// rejectionResponse is the 422 body for a validator rejection. The message is
// the validator's user-facing text, verbatim.
type rejectionResponse struct {
	Error        string `json:"error"`
	Code         string `json:"code"`
	DetectedType string `json:"detectedType,omitempty"`
}

// handleUpload validates and stores a file against the named profile.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	profileName := chi.URLParam(r, "profile")
	if profileName == "" {
		writeError(w, http.StatusBadRequest, "missing profile")
		return
	}

	data, filename, err := readUploadedFile(w, r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	record, err := s.svc.Uploads.Process(r.Context(), profileName, filename, data, requestActor(r))
	if err != nil {
		var rej *upload.Rejection
		switch {
		case errors.As(err, &rej):
			writeJSONStatus(w, http.StatusUnprocessableEntity, rejectionResponse{
				Error:        rej.Result.Message,
				Code:         string(rej.Result.Reason),
				DetectedType: rej.Result.DetectedType,
			})
		case errors.Is(err, upload.ErrUnknownProfile):
			respondError(w, r, err, http.StatusNotFound)
		case errors.Is(err, upload.ErrTooManyUploads):
			w.Header().Set("Retry-After", "30")
			respondError(w, r, err, http.StatusServiceUnavailable)
		default:
			respondError(w, r, err, http.StatusInternalServerError)
		}
		return
	}

	writeJSONStatus(w, http.StatusCreated, record)
}

// handleListUploads returns recent uploads for a profile.
func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	profileName := chi.URLParam(r, "profile")
	limit := parseIntParam(r, "limit", 100)

	records, err := s.svc.Uploads.List(r.Context(), profileName, limit)
	if err != nil {
		if errors.Is(err, upload.ErrUnknownProfile) {
			respondError(w, r, err, http.StatusNotFound)
			return
		}
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"uploads": records})
}

// handleDownloadUpload streams back a stored upload's bytes.
func (s *Server) handleDownloadUpload(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	if uploadID == "" {
		writeError(w, http.StatusBadRequest, "missing upload ID")
		return
	}

	record, data, err := s.svc.Uploads.Fetch(r.Context(), uploadID)
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", record.DetectedType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, record.Filename))
	w.Write(data)
}

// profileResponse is one entry of the profile listing.
type profileResponse struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	MaxBytes int64    `json:"maxBytes"`
	Formats  []string `json:"formats"`
}

// handleListProfiles lists the declared upload profiles and their accepted
// formats.
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	all := filetype.All()
	out := make([]profileResponse, len(all))
	for i, p := range all {
		out[i] = profileResponse{
			Name:     p.Name,
			Label:    p.Label,
			MaxBytes: p.MaxBytes,
			Formats:  p.Labels(),
		}
	}
	writeJSON(w, map[string]any{"profiles": out})
}

// handleUploadQueueStatus returns the current state of the upload limiter.
func (s *Server) handleUploadQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.Uploads.Limiter().Status())
}
