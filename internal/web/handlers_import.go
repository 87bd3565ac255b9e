package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/EcodiaTate/wattleos-sub007/internal/audit"
	"github.com/EcodiaTate/wattleos-sub007/internal/filetype"
	"github.com/EcodiaTate/wattleos-sub007/internal/logging"
	"github.com/EcodiaTate/wattleos-sub007/internal/roster"
)

// importResponse wraps a roster import result for JSON encoding.
type importResponse struct {
	Target     string             `json:"target"`
	FileName   string             `json:"fileName"`
	TotalRows  int                `json:"totalRows"`
	Inserted   int                `json:"inserted"`
	Skipped    int                `json:"skipped"`
	FailedRows []roster.FailedRow `json:"failedRows,omitempty"`
	Duration   string             `json:"duration"`
}

// handleImport runs a CSV roster import against the named target. The file
// passes content-type validation under the tabular_import profile before a
// single row is parsed.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	targetKey := chi.URLParam(r, "target")
	if targetKey == "" {
		writeError(w, http.StatusBadRequest, "missing import target")
		return
	}

	data, filename, err := readUploadedFile(w, r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	profile, _ := filetype.ByName("tabular_import")
	if result := filetype.Validate(data, filename, profile); !result.Valid {
		writeJSONStatus(w, http.StatusUnprocessableEntity, rejectionResponse{
			Error:        result.Message,
			Code:         string(result.Reason),
			DetectedType: result.DetectedType,
		})
		return
	}

	result, err := s.svc.Importer.Import(r.Context(), targetKey, filename, data)
	if err != nil {
		switch {
		case errors.Is(err, roster.ErrUnknownTarget):
			respondError(w, r, err, http.StatusNotFound)
		case errors.Is(err, roster.ErrNoDataRows):
			respondError(w, r, err, http.StatusBadRequest)
		default:
			respondError(w, r, err, http.StatusBadRequest)
		}
		return
	}

	s.logImportAudit(r, result)

	writeJSON(w, importResponse{
		Target:     result.Target,
		FileName:   result.Filename,
		TotalRows:  result.TotalRows,
		Inserted:   result.Inserted,
		Skipped:    result.Skipped,
		FailedRows: result.FailedRows,
		Duration:   result.Duration.String(),
	})
}

// logImportAudit records the import outcome, logging instead of failing the
// request when the audit write errors.
func (s *Server) logImportAudit(r *http.Request, result *roster.Result) {
	if s.svc.Audit == nil {
		return
	}
	actor := requestActor(r)
	if _, err := s.svc.Audit.Log(r.Context(), audit.LogParams{
		Action:    audit.ActionRosterImport,
		Subject:   result.Target,
		Actor:     actor.Name,
		IPAddress: actor.IPAddress,
		Metadata: map[string]any{
			"fileName":  result.Filename,
			"totalRows": result.TotalRows,
			"inserted":  result.Inserted,
			"skipped":   result.Skipped,
		},
	}); err != nil {
		logging.FromContext(r.Context()).Warn("audit write failed",
			"action", audit.ActionRosterImport, "error", err)
	}
}
