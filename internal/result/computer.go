package result

import (
	"context"
	"sort"

	"github.com/mind-engage/mindengage-results/internal/apperr"
	"github.com/mind-engage/mindengage-results/internal/catalog"
	"github.com/mind-engage/mindengage-results/internal/db"
	"github.com/mind-engage/mindengage-results/internal/exam"
	"github.com/mind-engage/mindengage-results/internal/grading"
	"github.com/mind-engage/mindengage-results/internal/marks"
)

// Computer turns stored marks into a Result. It has no side effects:
// unchanged inputs always produce identical output.
type Computer struct {
	exams   exam.Registry
	schemes grading.SchemeSource
	catalog catalog.Resolver
	marks   marks.Reader
}

func NewComputer(exams exam.Registry, schemes grading.SchemeSource, cat catalog.Resolver, mk marks.Reader) *Computer {
	return &Computer{exams: exams, schemes: schemes, catalog: cat, marks: mk}
}

// NewSQLComputer wires the SQL-backed collaborators over q. Passing a
// *sql.Tx makes the computation see one consistent view.
func NewSQLComputer(q db.Querier) *Computer {
	return NewComputer(exam.NewSQLStore(q), grading.NewSQLStore(q), catalog.NewSQLResolver(q), marks.NewSQLStore(q))
}

func (c *Computer) Compute(ctx context.Context, examID, enrollmentID string) (Result, error) {
	ex, err := c.exams.GetExam(ctx, examID)
	if err != nil {
		return Result{}, err
	}
	if ex.GradingSchemeID == nil {
		return Result{}, apperr.Config("exam %s has no grading scheme configured", examID)
	}
	scheme, err := c.schemes.LoadScheme(ctx, *ex.GradingSchemeID)
	if err != nil {
		return Result{}, err
	}
	en, err := c.marks.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return Result{}, err
	}
	subjects, err := c.subjectsOf(ctx, en)
	if err != nil {
		return Result{}, err
	}
	cfgs, err := c.exams.ConfigFor(ctx, examID)
	if err != nil {
		return Result{}, err
	}
	stored, err := c.marks.ForEnrollment(ctx, examID, enrollmentID)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		ExamID:        examID,
		EnrollmentID:  enrollmentID,
		OverallMethod: string(scheme.Method),
		Subjects:      []SubjectResult{},
	}
	for _, s := range subjects {
		sr, offered := aggregate(s, cfgs, stored)
		if !offered {
			continue
		}
		gradeSubject(&sr, scheme)
		res.Subjects = append(res.Subjects, sr)
	}
	sort.SliceStable(res.Subjects, func(i, j int) bool {
		if res.Subjects[i].SubjectName != res.Subjects[j].SubjectName {
			return res.Subjects[i].SubjectName < res.Subjects[j].SubjectName
		}
		return res.Subjects[i].SubjectID < res.Subjects[j].SubjectID
	})

	res.OverallGPA = overallGPA(res.Subjects, scheme.Method)
	res.FinalGrade = grading.GradeOf(grading.Resolve(scheme.FinalGrade, res.OverallGPA))
	res.ResultStatus = StatusPass
	for _, s := range res.Subjects {
		// incomplete subjects do not fail the overall result
		if s.Status == StatusFail {
			res.ResultStatus = StatusFail
			break
		}
	}
	return res, nil
}

// subjectsOf returns the compulsory subjects plus the enrollment's chosen
// optional subjects, without duplicates.
func (c *Computer) subjectsOf(ctx context.Context, en marks.Enrollment) ([]catalog.Subject, error) {
	cat, err := c.catalog.SubjectsFor(ctx, en.AcademicYear, en.Class, en.Faculty)
	if err != nil {
		return nil, err
	}
	choices, err := c.marks.OptionalChoices(ctx, en.ID)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	out := make([]catalog.Subject, 0, len(cat.Compulsory)+len(choices))
	for _, s := range cat.Compulsory {
		if !seen[s.ID] {
			seen[s.ID] = true
			out = append(out, s)
		}
	}
	known := map[string]catalog.Subject{}
	for _, g := range cat.OptionalGroups {
		for _, s := range g.Subjects {
			known[s.ID] = s
		}
	}
	var missing []string
	for _, ch := range choices {
		if seen[ch.SubjectID] {
			continue
		}
		seen[ch.SubjectID] = true
		if s, ok := known[ch.SubjectID]; ok {
			out = append(out, s)
		} else {
			missing = append(missing, ch.SubjectID)
		}
	}
	if len(missing) > 0 {
		extra, err := c.catalog.SubjectsByID(ctx, missing)
		if err != nil {
			return nil, err
		}
		out = append(out, extra...)
	}
	return out, nil
}

// aggregate sums the enabled components of s. offered is false when the
// exam enables none of them.
func aggregate(s catalog.Subject, cfgs exam.Configs, stored map[string]marks.Mark) (SubjectResult, bool) {
	sr := SubjectResult{SubjectID: s.ID, SubjectName: s.Name}
	offered := false
	for _, comp := range s.Components {
		cfg, ok := cfgs.Lookup(comp.Code)
		if !ok {
			continue
		}
		offered = true
		sr.TotalFull += cfg.FullMarks
		if comp.CreditHour != nil {
			sr.TotalCredit += *comp.CreditHour
		}
		m, ok := stored[comp.Code]
		switch {
		case !ok:
			sr.AnyMissing = true
		case m.IsAbsent:
			sr.AnyAbsent = true
			sr.AnyMissing = true
		case m.MarksObtained == nil:
			sr.AnyMissing = true
		default:
			sr.TotalObtained += *m.MarksObtained
		}
	}
	return sr, offered
}

func gradeSubject(sr *SubjectResult, scheme grading.Scheme) {
	if sr.TotalFull > 0 {
		sr.Percent = grading.Round2(sr.TotalObtained / sr.TotalFull * 100)
	}
	sr.GPA = grading.GPAOf(grading.Resolve(scheme.SubjectGPA, sr.Percent))
	sr.Grade = grading.GradeOf(grading.Resolve(scheme.SubjectGrade, sr.Percent))
	switch {
	case sr.AnyMissing:
		sr.Status = StatusIncomplete
	case sr.GPA <= 0:
		sr.Status = StatusFail
	default:
		sr.Status = StatusPass
	}
}

func overallGPA(subjects []SubjectResult, method grading.Method) float64 {
	var sum, weight float64
	n := 0
	for _, s := range subjects {
		if s.Status == StatusIncomplete {
			continue
		}
		n++
		switch method {
		case grading.MethodCreditWeighted:
			credit := s.TotalCredit
			if credit == 0 {
				credit = 1
			}
			sum += s.GPA * credit
			weight += credit
		default:
			sum += s.GPA
			weight++
		}
	}
	if n == 0 || weight == 0 {
		return 0
	}
	return grading.Round2(sum / weight)
}
