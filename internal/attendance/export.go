package attendance

// export.go renders an attendance range as an XLSX workbook, the report
// format the front office hands to regulators and OSHC program auditors.

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// exportSheet is the name of the single sheet in an export workbook.
const exportSheet = "Attendance"

var exportHeaders = []string{"Date", "Student", "Class", "Status", "Note", "Marked At"}

// BuildWorkbook renders records into an XLSX workbook. Records are written
// in the order given; callers get them date-ordered from Range.
func BuildWorkbook(records []Record) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("attendance: create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("attendance: drop default sheet: %w", err)
	}

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, fmt.Errorf("attendance: write header: %w", err)
		}
	}

	for i, r := range records {
		values := []any{
			r.Date,
			r.StudentCode,
			r.ClassCode,
			string(r.Status),
			r.Note,
			r.MarkedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, fmt.Errorf("attendance: write row %d: %w", i+2, err)
			}
		}
	}

	return f, nil
}
