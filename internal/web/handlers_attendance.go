package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/EcodiaTate/wattleos-sub007/internal/attendance"
	"github.com/EcodiaTate/wattleos-sub007/internal/audit"
	"github.com/EcodiaTate/wattleos-sub007/internal/logging"
)

// markAttendanceRequest is the POST /api/attendance payload.
type markAttendanceRequest struct {
	Marks []attendance.Mark `json:"marks" validate:"required,min=1,dive"`
}

// handleMarkAttendance upserts a batch of roll-call marks.
func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req markAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("validation failed: invalid JSON body: %w", err), http.StatusBadRequest)
		return
	}

	if err := s.validate.Struct(req); err != nil {
		respondError(w, r, validationError(err), http.StatusBadRequest)
		return
	}

	written, err := s.svc.Attendance.MarkAll(r.Context(), req.Marks)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	s.logAttendanceAudit(r, req.Marks, written)

	writeJSON(w, map[string]int{"written": written})
}

// handleAttendanceSummary returns per-status counts for one class and day.
func (s *Server) handleAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	classCode := r.URL.Query().Get("class")
	date := r.URL.Query().Get("date")
	if classCode == "" || date == "" {
		writeError(w, http.StatusBadRequest, "class and date query parameters are required")
		return
	}

	summary, err := s.svc.Attendance.DailySummary(r.Context(), classCode, date)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, summary)
}

// handleAttendanceExport streams a class date range as an XLSX workbook.
func (s *Server) handleAttendanceExport(w http.ResponseWriter, r *http.Request) {
	classCode := r.URL.Query().Get("class")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if classCode == "" || from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "class, from, and to query parameters are required")
		return
	}

	records, err := s.svc.Attendance.Range(r.Context(), classCode, from, to)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	f, err := attendance.BuildWorkbook(records)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("attendance_%s_%s_%s.xlsx", classCode, from, to)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))

	if err := f.Write(w); err != nil {
		logging.FromContext(r.Context()).Error("workbook write failed", "error", err)
	}
}

// logAttendanceAudit records a mark batch, logging instead of failing the
// request when the audit write errors.
func (s *Server) logAttendanceAudit(r *http.Request, marks []attendance.Mark, written int) {
	if s.svc.Audit == nil || len(marks) == 0 {
		return
	}
	actor := requestActor(r)
	if _, err := s.svc.Audit.Log(r.Context(), audit.LogParams{
		Action:    audit.ActionAttendanceMark,
		Subject:   marks[0].ClassCode,
		Actor:     actor.Name,
		IPAddress: actor.IPAddress,
		Metadata: map[string]any{
			"date":    marks[0].Date,
			"marks":   len(marks),
			"written": written,
		},
	}); err != nil {
		logging.FromContext(r.Context()).Warn("audit write failed",
			"action", audit.ActionAttendanceMark, "error", err)
	}
}

// validationError flattens validator field errors into one request error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		parts[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(parts, ", "))
}
