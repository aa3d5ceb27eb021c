package ledger

// maxReportedErrors caps Report.Errors; ErrorsCount keeps the full count.
const maxReportedErrors = 200

type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type Report struct {
	ImportID    string     `json:"import_id"`
	ExamID      string     `json:"exam_id"`
	Sheet       string     `json:"sheet"`
	Shape       Shape      `json:"shape"`
	TotalRows   int        `json:"total_rows"`
	Imported    int        `json:"imported"`
	Skipped     int        `json:"skipped"`
	ErrorsCount int        `json:"errors_count"`
	Errors      []RowError `json:"errors"`
	Warnings    []string   `json:"warnings"`
	Archive     string     `json:"archive,omitempty"`
}

func newReport(importID, examID, sheet string) Report {
	return Report{ImportID: importID, ExamID: examID, Sheet: sheet, Errors: []RowError{}, Warnings: []string{}}
}

func (r *Report) fill(p Plan) {
	r.TotalRows = p.TotalRows
	r.Imported = len(p.Marks)
	r.Skipped = len(p.Errors)
	r.ErrorsCount = len(p.Errors)
	errs := p.Errors
	if len(errs) > maxReportedErrors {
		errs = errs[:maxReportedErrors]
	}
	r.Errors = append(r.Errors[:0], errs...)
}
