package ledger

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/mindengage-results/internal/catalog"
	"github.com/mind-engage/mindengage-results/internal/db"
	"github.com/mind-engage/mindengage-results/internal/exam"
)

const templateSheet = "Ledger"

// header rows of the template, 1-based
const (
	templateHeaderRow    = 3
	templateSubHeaderRow = 4
	templateFullMarksRow = 5
)

var identityHeader = []any{"SN", "Symbol No.", "Regd. No.", "DOB", "DOB", "Name of Student"}

// BuildTemplate renders the blank grid ledger of examID as xlsx.
func BuildTemplate(ctx context.Context, q db.Querier, examID string) ([]byte, error) {
	exams := exam.NewSQLStore(q)
	ex, err := exams.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	cfgs, err := exams.ConfigFor(ctx, examID)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.NewSQLResolver(q).SubjectsFor(ctx, ex.AcademicYear, ex.Class, ex.Faculty)
	if err != nil {
		return nil, err
	}
	f, err := renderTemplate(ex, cat, cfgs)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return buf.Bytes(), nil
}

func renderTemplate(ex exam.Exam, cat catalog.Subjects, cfgs exam.Configs) (*excelize.File, error) {
	header := append([]any{}, identityHeader...)
	sub := []any{"", "", "", "BS", "AD", ""}
	full := []any{"", "", "", "", "", "Full Marks"}

	for _, s := range cat.Compulsory {
		header = append(header, s.Name)
		sub = append(sub, "TH")
		if cfg, ok := cfgs.Lookup(s.CanonicalCode); ok {
			full = append(full, cfg.FullMarks)
		} else {
			full = append(full, "")
		}
	}
	for _, g := range cat.OptionalGroups {
		header = append(header, g.Name, "")
		sub = append(sub, "Sub. Code", "TH")
		full = append(full, "", "")
	}
	header = append(header, "Grand Total", "Attendance")

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		f.Close()
		return nil, err
	}
	title := fmt.Sprintf("Marks Ledger: %s", ex.Campus)
	scope := fmt.Sprintf("Academic Year %s, Class %s", ex.AcademicYear, ex.Class)
	if ex.Faculty != nil {
		scope += ", " + *ex.Faculty
	}
	rows := []struct {
		row    int
		values []any
	}{
		{1, []any{title}},
		{2, []any{scope, "", "", "", "", "Exam " + ex.ID}},
		{templateHeaderRow, header},
		{templateSubHeaderRow, sub},
		{templateFullMarksRow, full},
	}
	for _, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r.row)
		if err != nil {
			f.Close()
			return nil, err
		}
		values := r.values
		if err := f.SetSheetRow(templateSheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("template row %d: %w", r.row, err)
		}
	}

	last, _ := excelize.CoordinatesToCellName(len(header), templateSubHeaderRow)
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(templateSheet, "A1", "A1", bold)
		_ = f.SetCellStyle(templateSheet, "A3", last, bold)
	}
	_ = f.SetColWidth(templateSheet, "B", "C", 14)
	_ = f.SetColWidth(templateSheet, "F", "F", 28)
	return f, nil
}
