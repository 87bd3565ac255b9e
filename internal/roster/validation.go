package roster

// validation.go provides header and row validation for roster CSV data
// before insertion.
//
// Validation happens at two levels:
//  1. Header validation: ensures required columns are present
//  2. Row validation: checks each cell against its FieldSpec (type, enum
//     values, required-ness)
//
// Validation errors carry the field name, the offending value, and a
// human-readable message that the import result surfaces per line.

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// dateLayouts are the formats accepted for FieldDate cells, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"Jan 2, 2006",
}

// boolValues maps accepted FieldBool spellings to their value.
var boolValues = map[string]bool{
	"true": true, "false": false,
	"yes": true, "no": false,
	"1": true, "0": false,
}

// CleanCell trims whitespace and strips a UTF-8 BOM from a cell value.
func CleanCell(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	return strings.TrimSpace(s)
}

// MakeHeaderIndex builds a lowercase name to position mapping from headers.
func MakeHeaderIndex(headers []string) HeaderIndex {
	idx := make(HeaderIndex, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(CleanCell(h))] = i
	}
	return idx
}

// ValidateHeaders validates that all required columns exist in the CSV
// headers. Returns the header index, or an error listing missing columns.
func ValidateHeaders(headers []string, specs []FieldSpec) (HeaderIndex, error) {
	idx := MakeHeaderIndex(headers)
	var missing []string

	for _, spec := range specs {
		if spec.Required {
			if _, ok := idx[strings.ToLower(spec.Name)]; !ok {
				missing = append(missing, spec.Name)
			}
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	return idx, nil
}

// ValidateRow validates a single CSV row and returns the first problem found,
// or nil when the row is insertable.
func ValidateRow(row []string, specs []FieldSpec, idx HeaderIndex) error {
	for _, spec := range specs {
		pos, ok := idx[strings.ToLower(spec.Name)]
		if !ok || pos >= len(row) {
			if spec.Required {
				return fmt.Errorf("missing required column %q", spec.Name)
			}
			continue
		}

		raw := CleanCell(row[pos])

		if raw == "" {
			if spec.Required && !spec.AllowEmpty {
				return fmt.Errorf("required field %q is empty", spec.Name)
			}
			continue
		}

		if spec.Normalizer != nil {
			raw = spec.Normalizer(raw)
		}

		if err := ValidateCell(raw, spec); err != nil {
			return fmt.Errorf("%s: %w", spec.Name, err)
		}
	}
	return nil
}

// ValidateCell validates a single non-empty cell value against a field
// specification.
func ValidateCell(value string, spec FieldSpec) error {
	switch spec.Type {
	case FieldEmail:
		if _, err := mail.ParseAddress(value); err != nil {
			return fmt.Errorf("invalid email address")
		}
	case FieldDate:
		if !validDate(value) {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD)")
		}
	case FieldBool:
		if _, ok := boolValues[strings.ToLower(value)]; !ok {
			return fmt.Errorf("must be yes/no, true/false, or 1/0")
		}
	case FieldEnum:
		for _, ev := range spec.EnumValues {
			if strings.EqualFold(ev, value) {
				return nil
			}
		}
		return fmt.Errorf("value must be one of: %s", strings.Join(spec.EnumValues, ", "))
	}
	return nil
}

// validDate reports whether the value parses under any accepted layout.
func validDate(value string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// ISODate converts an accepted date spelling to YYYY-MM-DD for insertion.
// Returns the input unchanged when it parses under no layout; validation has
// already rejected such rows.
func ISODate(value string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return value
}

// IsEmptyRow reports whether every cell in the row is blank.
func IsEmptyRow(row []string) bool {
	for _, cell := range row {
		if CleanCell(cell) != "" {
			return false
		}
	}
	return true
}

// Cell returns the cleaned, normalized value for a named column, or empty
// when the column is absent. Used by target Params builders.
func Cell(row []string, idx HeaderIndex, name string, specs []FieldSpec) string {
	pos, ok := idx[strings.ToLower(name)]
	if !ok || pos >= len(row) {
		return ""
	}
	raw := CleanCell(row[pos])
	if raw == "" {
		return ""
	}
	for _, spec := range specs {
		if strings.EqualFold(spec.Name, name) && spec.Normalizer != nil {
			return spec.Normalizer(raw)
		}
	}
	return raw
}
