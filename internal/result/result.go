package result

type Status string

const (
	StatusPass       Status = "PASS"
	StatusFail       Status = "FAIL"
	StatusIncomplete Status = "INCOMPLETE"
)

type SubjectResult struct {
	SubjectID     string  `json:"subject_id"`
	SubjectName   string  `json:"subject_name"`
	TotalObtained float64 `json:"total_obtained"`
	TotalFull     float64 `json:"total_full"`
	TotalCredit   float64 `json:"total_credit"`
	Percent       float64 `json:"percent"`
	GPA           float64 `json:"gpa"`
	Grade         string  `json:"grade"`
	AnyAbsent     bool    `json:"any_absent"`
	AnyMissing    bool    `json:"any_missing"`
	Status        Status  `json:"status"`
}

// Result is the full computed outcome for one enrollment in one exam.
type Result struct {
	ExamID        string          `json:"exam_id"`
	EnrollmentID  string          `json:"enrollment_id"`
	OverallMethod string          `json:"overall_method"`
	Subjects      []SubjectResult `json:"subjects"`
	OverallGPA    float64         `json:"overall_gpa"`
	FinalGrade    string          `json:"final_grade"`
	ResultStatus  Status          `json:"result_status"`
}
