package web

import (
	"errors"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "duplicate key", err: errors.New(`duplicate key value violates unique constraint "students_pkey"`), wantCode: "DB001"},
		{name: "unique constraint", err: errors.New("violates unique constraint"), wantCode: "DB002"},
		{name: "foreign key", err: errors.New("violates foreign key constraint"), wantCode: "DB003"},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), wantCode: "DB004"},
		{name: "invalid date", err: errors.New(`invalid date "not-a-date"`), wantCode: "VAL001"},
		{name: "missing columns", err: errors.New("missing required columns: year_level"), wantCode: "VAL002"},
		{name: "enum", err: errors.New(`year_level must be one of K, 1, 2`), wantCode: "VAL003"},
		{name: "request validation", err: errors.New("validation failed: Date (datetime)"), wantCode: "VAL004"},
		{name: "no file", err: errors.New("no file provided: missing form field"), wantCode: "UPL001"},
		{name: "limiter full", err: errors.New("too many concurrent uploads, please try again later"), wantCode: "UPL002"},
		{name: "unknown profile", err: errors.New(`unknown upload profile: "selfies"`), wantCode: "UPL003"},
		{name: "unknown target", err: errors.New(`unknown import target: "classrooms"`), wantCode: "IMP001"},
		{name: "no data rows", err: errors.New("file contains no data rows"), wantCode: "IMP002"},
		{name: "illegal transition", err: errors.New("timesheet ts-1 cannot move from draft to paid"), wantCode: "TS001"},
		{name: "timesheet missing", err: errors.New("timesheet not found: ts-9"), wantCode: "TS002"},
		{name: "cancelled", err: errors.New("context canceled"), wantCode: "REQ001"},
		{name: "deadline", err: errors.New("context deadline exceeded"), wantCode: "REQ002"},
		{name: "rate limited", err: errors.New("rate limit exceeded"), wantCode: "REQ003"},
		{name: "fallback", err: errors.New("something inexplicable"), wantCode: "ERR000"},
		{name: "case insensitive", err: errors.New("DUPLICATE KEY detected"), wantCode: "DB001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%q).Code = %s, want %s", tt.err, got.Code, tt.wantCode)
			}
			if got.Message == "" {
				t.Error("mapped message is empty")
			}
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	if got := MapError(nil); got.Code != "" {
		t.Errorf("MapError(nil) = %+v, want zero value", got)
	}
}

func TestMapError_FirstMatchWins(t *testing.T) {
	// An error mentioning both a duplicate key and a unique constraint maps
	// to the more specific duplicate-key code listed first.
	err := errors.New("duplicate key value violates unique constraint")
	if got := MapError(err); got.Code != "DB001" {
		t.Errorf("Code = %s, want DB001", got.Code)
	}
}
