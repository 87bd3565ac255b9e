package roster

// targets.go declares the built-in import targets: the entities a school can
// mass-create from a CSV export of their previous system. Each upsert keys on
// the natural identifier (student code, email) so re-importing a corrected
// file updates rather than duplicates.

import "strings"

func init() {
	registerStudents()
	registerGuardians()
	registerStaffInvites()
}

// yearLevels are the accepted year_level values, kindergarten through 12.
var yearLevels = []string{
	"K", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12",
}

func registerStudents() {
	fields := []FieldSpec{
		{Name: "student_code", Type: FieldText, Required: true},
		{Name: "first_name", Type: FieldText, Required: true},
		{Name: "last_name", Type: FieldText, Required: true},
		{Name: "date_of_birth", Type: FieldDate, Required: true},
		{Name: "year_level", Type: FieldEnum, Required: true, EnumValues: yearLevels,
			Normalizer: strings.ToUpper},
		{Name: "medical_notes", Type: FieldText, Required: false},
	}

	Register(Target{
		Key:    "students",
		Label:  "Students",
		Fields: fields,
		InsertSQL: `
INSERT INTO students (student_code, first_name, last_name, date_of_birth, year_level, medical_notes)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (student_code) DO UPDATE SET
    first_name = EXCLUDED.first_name,
    last_name = EXCLUDED.last_name,
    date_of_birth = EXCLUDED.date_of_birth,
    year_level = EXCLUDED.year_level,
    medical_notes = EXCLUDED.medical_notes,
    updated_at = now()`,
		Params: func(row []string, idx HeaderIndex) []any {
			return []any{
				Cell(row, idx, "student_code", fields),
				Cell(row, idx, "first_name", fields),
				Cell(row, idx, "last_name", fields),
				ISODate(Cell(row, idx, "date_of_birth", fields)),
				Cell(row, idx, "year_level", fields),
				Cell(row, idx, "medical_notes", fields),
			}
		},
	})
}

func registerGuardians() {
	fields := []FieldSpec{
		{Name: "email", Type: FieldEmail, Required: true,
			Normalizer: strings.ToLower},
		{Name: "first_name", Type: FieldText, Required: true},
		{Name: "last_name", Type: FieldText, Required: true},
		{Name: "student_code", Type: FieldText, Required: true},
		{Name: "relationship", Type: FieldEnum, Required: true,
			EnumValues: []string{"parent", "carer", "grandparent", "emergency_contact"},
			Normalizer: strings.ToLower},
		{Name: "phone", Type: FieldText, Required: false},
	}

	Register(Target{
		Key:    "guardians",
		Label:  "Guardians",
		Fields: fields,
		InsertSQL: `
INSERT INTO guardians (email, first_name, last_name, student_code, relationship, phone)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (email, student_code) DO UPDATE SET
    first_name = EXCLUDED.first_name,
    last_name = EXCLUDED.last_name,
    relationship = EXCLUDED.relationship,
    phone = EXCLUDED.phone,
    updated_at = now()`,
		Params: func(row []string, idx HeaderIndex) []any {
			return []any{
				Cell(row, idx, "email", fields),
				Cell(row, idx, "first_name", fields),
				Cell(row, idx, "last_name", fields),
				Cell(row, idx, "student_code", fields),
				Cell(row, idx, "relationship", fields),
				Cell(row, idx, "phone", fields),
			}
		},
	})
}

func registerStaffInvites() {
	fields := []FieldSpec{
		{Name: "email", Type: FieldEmail, Required: true,
			Normalizer: strings.ToLower},
		{Name: "first_name", Type: FieldText, Required: true},
		{Name: "last_name", Type: FieldText, Required: true},
		{Name: "role", Type: FieldEnum, Required: true,
			EnumValues: []string{"teacher", "assistant", "admin", "coordinator"},
			Normalizer: strings.ToLower},
	}

	Register(Target{
		Key:    "staff_invites",
		Label:  "Staff invites",
		Fields: fields,
		InsertSQL: `
INSERT INTO staff_invites (email, first_name, last_name, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO UPDATE SET
    first_name = EXCLUDED.first_name,
    last_name = EXCLUDED.last_name,
    role = EXCLUDED.role,
    updated_at = now()`,
		Params: func(row []string, idx HeaderIndex) []any {
			return []any{
				Cell(row, idx, "email", fields),
				Cell(row, idx, "first_name", fields),
				Cell(row, idx, "last_name", fields),
				Cell(row, idx, "role", fields),
			}
		},
	})
}
