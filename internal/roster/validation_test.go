package roster

import (
	"strings"
	"testing"
)

// ============================================================================
// Header Validation Tests
// ============================================================================

func TestValidateHeaders(t *testing.T) {
	specs := []FieldSpec{
		{Name: "email", Type: FieldEmail, Required: true},
		{Name: "first_name", Type: FieldText, Required: true},
		{Name: "phone", Type: FieldText, Required: false},
	}

	tests := []struct {
		name    string
		headers []string
		wantErr string
	}{
		{
			name:    "all required present",
			headers: []string{"email", "first_name", "phone"},
		},
		{
			name:    "case insensitive match",
			headers: []string{"Email", "FIRST_NAME"},
		},
		{
			name:    "optional column absent",
			headers: []string{"email", "first_name"},
		},
		{
			name:    "missing required column",
			headers: []string{"email"},
			wantErr: "first_name",
		},
		{
			name:    "missing multiple lists all",
			headers: []string{"phone"},
			wantErr: "email, first_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := ValidateHeaders(tt.headers, specs)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateHeaders() error = %v", err)
				}
				if idx == nil {
					t.Fatal("ValidateHeaders() returned nil index")
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateHeaders() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q missing %q", err, tt.wantErr)
			}
		})
	}
}

// ============================================================================
// Row Validation Tests
// ============================================================================

func TestValidateRow(t *testing.T) {
	specs := []FieldSpec{
		{Name: "email", Type: FieldEmail, Required: true},
		{Name: "year_level", Type: FieldEnum, Required: true, EnumValues: []string{"K", "1", "2"},
			Normalizer: strings.ToUpper},
		{Name: "date_of_birth", Type: FieldDate, Required: false},
	}
	idx := MakeHeaderIndex([]string{"email", "year_level", "date_of_birth"})

	tests := []struct {
		name    string
		row     []string
		wantErr string
	}{
		{
			name: "valid row",
			row:  []string{"kid@example.com", "K", "2018-03-14"},
		},
		{
			name: "normalizer applied before enum check",
			row:  []string{"kid@example.com", "k", ""},
		},
		{
			name:    "invalid email",
			row:     []string{"not-an-email", "K", ""},
			wantErr: "invalid email",
		},
		{
			name:    "enum violation",
			row:     []string{"kid@example.com", "14", ""},
			wantErr: "must be one of",
		},
		{
			name:    "bad date",
			row:     []string{"kid@example.com", "1", "14th March"},
			wantErr: "invalid date",
		},
		{
			name:    "empty required field",
			row:     []string{"", "K", ""},
			wantErr: `required field "email" is empty`,
		},
		{
			name:    "short row missing required column",
			row:     []string{"kid@example.com"},
			wantErr: `missing required column "year_level"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRow(tt.row, specs, idx)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateRow() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateRow() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q missing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCellBool(t *testing.T) {
	spec := FieldSpec{Name: "active", Type: FieldBool}

	for _, ok := range []string{"yes", "No", "TRUE", "false", "1", "0"} {
		if err := ValidateCell(ok, spec); err != nil {
			t.Errorf("ValidateCell(%q) error = %v", ok, err)
		}
	}
	if err := ValidateCell("maybe", spec); err == nil {
		t.Error("ValidateCell(maybe) expected error")
	}
}

// ============================================================================
// Helper Tests
// ============================================================================

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trims whitespace", input: "  a  ", want: "a"},
		{name: "strips BOM", input: "\uFEFFstudent_code", want: "student_code"},
		{name: "empty", input: "", want: ""},
		{name: "tabs and newlines", input: "\tvalue\n", want: "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsEmptyRow(t *testing.T) {
	if !IsEmptyRow([]string{"", "  ", "\t"}) {
		t.Error("whitespace-only row not detected as empty")
	}
	if IsEmptyRow([]string{"", "x"}) {
		t.Error("row with content detected as empty")
	}
	if !IsEmptyRow(nil) {
		t.Error("nil row not detected as empty")
	}
}

func TestISODate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already ISO", input: "2018-03-14", want: "2018-03-14"},
		{name: "day first", input: "14/03/2018", want: "2018-03-14"},
		{name: "short day first", input: "4/3/2018", want: "2018-03-04"},
		{name: "long form", input: "Mar 14, 2018", want: "2018-03-14"},
		{name: "unparseable passes through", input: "garbage", want: "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ISODate(tt.input); got != tt.want {
				t.Errorf("ISODate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCellAppliesNormalizer(t *testing.T) {
	specs := []FieldSpec{
		{Name: "email", Type: FieldEmail, Normalizer: strings.ToLower},
	}
	idx := MakeHeaderIndex([]string{"email"})

	got := Cell([]string{" Parent@Example.COM "}, idx, "email", specs)
	if got != "parent@example.com" {
		t.Errorf("Cell() = %q, want normalized lowercase", got)
	}

	if got := Cell([]string{"x"}, idx, "missing", specs); got != "" {
		t.Errorf("Cell() for absent column = %q, want empty", got)
	}
}

// ============================================================================
// Registry Tests
// ============================================================================

func TestBuiltinTargetsRegistered(t *testing.T) {
	for _, key := range []string{"students", "guardians", "staff_invites"} {
		target, ok := Get(key)
		if !ok {
			t.Errorf("target %q not registered", key)
			continue
		}
		if target.InsertSQL == "" || target.Params == nil {
			t.Errorf("target %q missing insert wiring", key)
		}
		if len(target.Fields) == 0 {
			t.Errorf("target %q has no fields", key)
		}
	}
}

func TestStudentParamsOrder(t *testing.T) {
	target, ok := Get("students")
	if !ok {
		t.Fatal("students target not registered")
	}

	headers := []string{"student_code", "first_name", "last_name", "date_of_birth", "year_level", "medical_notes"}
	idx := MakeHeaderIndex(headers)
	row := []string{"S-100", "Ava", "Nguyen", "14/03/2018", "k", "peanut allergy"}

	params := target.Params(row, idx)
	want := []any{"S-100", "Ava", "Nguyen", "2018-03-14", "K", "peanut allergy"}
	if len(params) != len(want) {
		t.Fatalf("Params() returned %d values, want %d", len(params), len(want))
	}
	for i := range want {
		if params[i] != want[i] {
			t.Errorf("params[%d] = %v, want %v", i, params[i], want[i])
		}
	}
}
