package web

import (
	"net/http"
)

// handleAuditLog lists audit entries newest first with limit/offset paging.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50)
	offset := parseIntParam(r, "offset", 0)

	entries, err := s.svc.Audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"entries": entries})
}
