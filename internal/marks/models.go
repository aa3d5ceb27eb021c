package marks

import (
	"fmt"
	"strings"

	"github.com/mind-engage/mindengage-results/internal/exam"
)

// Mark is keyed by (ExamID, EnrollmentID, Code). MarksObtained is nil
// whenever IsAbsent is set.
type Mark struct {
	ExamID        string   `json:"exam_id"`
	EnrollmentID  string   `json:"enrollment_id"`
	Code          string   `json:"component_code"`
	MarksObtained *float64 `json:"marks_obtained"`
	IsAbsent      bool     `json:"is_absent"`
}

type Enrollment struct {
	ID           string  `json:"enrollment_id"`
	StudentID    string  `json:"student_id"`
	SymbolNo     string  `json:"symbol_no"`
	Campus       string  `json:"campus"`
	AcademicYear string  `json:"academic_year"`
	Class        string  `json:"class"`
	Faculty      *string `json:"faculty,omitempty"`
}

// Scope selects the enrollment universe of an exam.
type Scope struct {
	Campus       string
	AcademicYear string
	Class        string
	Faculty      *string
}

func ScopeOf(e exam.Exam) Scope {
	return Scope{Campus: e.Campus, AcademicYear: e.AcademicYear, Class: e.Class, Faculty: e.Faculty}
}

// Choice records which optional subject an enrollment takes in a group.
type Choice struct {
	GroupName string `json:"group_name"`
	SubjectID string `json:"subject_id"`
}

// Profile holds identity fields read from a ledger. Empty fields never
// overwrite stored values.
type Profile struct {
	FullName string
	RegdNo   string
	DOB      string
}

func (p Profile) Empty() bool {
	return strings.TrimSpace(p.FullName) == "" && strings.TrimSpace(p.RegdNo) == "" && strings.TrimSpace(p.DOB) == ""
}

// CheckRange validates a mark against its component config. The upper
// bound is inclusive; NaN and infinities are never in range.
func CheckRange(cfg exam.ComponentConfig, v float64) error {
	if !(v >= 0 && v <= cfg.FullMarks) {
		return fmt.Errorf("marks %s out of range [0, %s] for component %s",
			FormatNumber(v), FormatNumber(cfg.FullMarks), cfg.Code)
	}
	return nil
}

// FormatNumber renders v without trailing zeros.
func FormatNumber(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
