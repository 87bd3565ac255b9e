package web

// errors.go maps technical errors to user-friendly API responses.
//
// Every error leaving a handler goes through respondError, which logs the
// technical error with the request ID and returns a JSON body carrying a
// stable code that front-office staff can quote to support. Patterns are
// matched case-insensitively with strings.Contains; the first match wins, so
// specific patterns come before general ones.

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // what happened
	Action  string // what to do about it
	Code    string // stable code for support reference
}

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Database Constraint Errors (DB001-DB003)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Review the failed rows for duplicates",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check your file for duplicate entries",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Import students before guardians and attendance",
			Code:    "DB003",
		},
	},

	// =========================================================================
	// Database Connection Errors (DB004-DB006)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB006",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL004)
	// =========================================================================
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use YYYY-MM-DD",
			Code:    "VAL001",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "A required column is missing from the file",
			Action:  "Check that all required columns are present",
			Code:    "VAL002",
		},
	},
	{
		pattern: "must be one of",
		msg: UserMessage{
			Message: "A value is not in the allowed list",
			Action:  "Check the allowed values for this field",
			Code:    "VAL003",
		},
	},
	{
		pattern: "validation failed",
		msg: UserMessage{
			Message: "The request body failed validation",
			Action:  "Check the field errors and resubmit",
			Code:    "VAL004",
		},
	},

	// =========================================================================
	// Upload and File Errors (UPL001-UPL005)
	// =========================================================================
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please choose a file to upload",
			Code:    "UPL001",
		},
	},
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "unknown upload profile",
		msg: UserMessage{
			Message: "Unknown upload profile",
			Action:  "List /api/profiles for the accepted profiles",
			Code:    "UPL003",
		},
	},
	{
		pattern: "upload not found",
		msg: UserMessage{
			Message: "Upload not found",
			Action:  "Verify the upload id",
			Code:    "UPL004",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The request exceeds the server's intake limit",
			Action:  "Upload a smaller file",
			Code:    "UPL005",
		},
	},

	// =========================================================================
	// Import Errors (IMP001-IMP002)
	// =========================================================================
	{
		pattern: "unknown import target",
		msg: UserMessage{
			Message: "Unknown import target",
			Action:  "Valid targets are students, guardians, and staff_invites",
			Code:    "IMP001",
		},
	},
	{
		pattern: "contains no data rows",
		msg: UserMessage{
			Message: "The file has a header but no data rows",
			Action:  "Add at least one data row and re-upload",
			Code:    "IMP002",
		},
	},

	// =========================================================================
	// Timesheet Errors (TS001-TS002)
	// =========================================================================
	{
		pattern: "cannot move from",
		msg: UserMessage{
			Message: "That status change is not allowed",
			Action:  "Check the timesheet's current status and retry",
			Code:    "TS001",
		},
	},
	{
		pattern: "timesheet not found",
		msg: UserMessage{
			Message: "Timesheet not found",
			Action:  "Verify the timesheet id",
			Code:    "TS002",
		},
	},

	// =========================================================================
	// Request Lifecycle (REQ001-REQ003)
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "REQ002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "REQ003",
		},
	},
}

// defaultMessage is the fallback when no pattern matches. Support staff
// should check the logs for the original error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// respondError logs the technical error with request context and writes the
// mapped user message as JSON.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := MapError(err)

	requestID := middleware.GetReqID(r.Context())

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", requestID,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}
