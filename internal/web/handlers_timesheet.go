package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/EcodiaTate/wattleos-sub007/internal/audit"
	"github.com/EcodiaTate/wattleos-sub007/internal/logging"
	"github.com/EcodiaTate/wattleos-sub007/internal/timesheet"
)

// handleTimesheetTransition moves a timesheet to a new status.
func (s *Server) handleTimesheetTransition(w http.ResponseWriter, r *http.Request) {
	timesheetID := chi.URLParam(r, "timesheetID")
	if timesheetID == "" {
		writeError(w, http.StatusBadRequest, "missing timesheet ID")
		return
	}

	var req timesheet.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("validation failed: invalid JSON body: %w", err), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, r, validationError(err), http.StatusBadRequest)
		return
	}

	to, err := timesheet.ParseStatus(req.To)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	ts, err := s.svc.Timesheets.Transition(r.Context(), timesheetID, to, req.Note)
	if err != nil {
		var terr *timesheet.TransitionError
		switch {
		case errors.As(err, &terr):
			respondError(w, r, err, http.StatusConflict)
		case errors.Is(err, timesheet.ErrNotFound):
			respondError(w, r, err, http.StatusNotFound)
		default:
			respondError(w, r, err, http.StatusInternalServerError)
		}
		return
	}

	s.logTimesheetAudit(r, ts)

	writeJSON(w, ts)
}

// handleGetTimesheet returns a single timesheet.
func (s *Server) handleGetTimesheet(w http.ResponseWriter, r *http.Request) {
	timesheetID := chi.URLParam(r, "timesheetID")
	if timesheetID == "" {
		writeError(w, http.StatusBadRequest, "missing timesheet ID")
		return
	}

	ts, err := s.svc.Timesheets.Get(r.Context(), timesheetID)
	if err != nil {
		if errors.Is(err, timesheet.ErrNotFound) {
			respondError(w, r, err, http.StatusNotFound)
			return
		}
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, ts)
}

// handleListTimesheets lists timesheets in a given status.
func (s *Server) handleListTimesheets(w http.ResponseWriter, r *http.Request) {
	statusParam := r.URL.Query().Get("status")
	if statusParam == "" {
		statusParam = string(timesheet.StatusSubmitted)
	}

	status, err := timesheet.ParseStatus(statusParam)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	limit := parseIntParam(r, "limit", 100)
	sheets, err := s.svc.Timesheets.ListByStatus(r.Context(), status, limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"timesheets": sheets})
}

// logTimesheetAudit records a transition, logging instead of failing the
// request when the audit write errors.
func (s *Server) logTimesheetAudit(r *http.Request, ts *timesheet.Timesheet) {
	if s.svc.Audit == nil {
		return
	}
	actor := requestActor(r)
	if _, err := s.svc.Audit.Log(r.Context(), audit.LogParams{
		Action:    audit.ActionTimesheetTransition,
		Subject:   ts.ID,
		Actor:     actor.Name,
		IPAddress: actor.IPAddress,
		Metadata: map[string]any{
			"status":     string(ts.Status),
			"staffEmail": ts.StaffEmail,
		},
	}); err != nil {
		logging.FromContext(r.Context()).Warn("audit write failed",
			"action", audit.ActionTimesheetTransition, "error", err)
	}
}
