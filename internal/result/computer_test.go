package result_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/mind-engage/mindengage-results/internal/apperr"
	"github.com/mind-engage/mindengage-results/internal/catalog"
	"github.com/mind-engage/mindengage-results/internal/exam"
	"github.com/mind-engage/mindengage-results/internal/grading"
	"github.com/mind-engage/mindengage-results/internal/marks"
	"github.com/mind-engage/mindengage-results/internal/result"
)

// --- fakes ---

type fakeExams struct {
	exams   map[string]exam.Exam
	configs exam.Configs
}

func (f fakeExams) GetExam(_ context.Context, id string) (exam.Exam, error) {
	e, ok := f.exams[id]
	if !ok {
		return exam.Exam{}, apperr.NotFound("exam %s not found", id)
	}
	return e, nil
}
func (f fakeExams) ConfigFor(context.Context, string) (exam.Configs, error) { return f.configs, nil }
func (f fakeExams) IsLocked(context.Context, string) (bool, error)          { return false, nil }

type fakeSchemes map[string]grading.Scheme

func (f fakeSchemes) LoadScheme(_ context.Context, id string) (grading.Scheme, error) {
	s, ok := f[id]
	if !ok {
		return grading.Scheme{}, apperr.Config("scheme %s not found", id)
	}
	return s, nil
}

type fakeCatalog struct{ subjects catalog.Subjects }

func (f fakeCatalog) SubjectsFor(context.Context, string, string, *string) (catalog.Subjects, error) {
	return f.subjects, nil
}
func (f fakeCatalog) SubjectsByID(context.Context, []string) ([]catalog.Subject, error) {
	return nil, nil
}

type fakeMarks struct {
	enrollments map[string]marks.Enrollment
	marks       map[string]marks.Mark
	choices     []marks.Choice
}

func (f fakeMarks) GetEnrollment(_ context.Context, id string) (marks.Enrollment, error) {
	e, ok := f.enrollments[id]
	if !ok {
		return marks.Enrollment{}, apperr.NotFound("enrollment %s not found", id)
	}
	return e, nil
}
func (f fakeMarks) ForEnrollment(context.Context, string, string) (map[string]marks.Mark, error) {
	return f.marks, nil
}
func (f fakeMarks) OptionalChoices(context.Context, string) ([]marks.Choice, error) {
	return f.choices, nil
}

// --- fixtures ---

func ptr[T any](v T) *T { return &v }

func gpaBands(bands ...[2]float64) []grading.Rule {
	var out []grading.Rule
	for _, b := range bands {
		out = append(out, grading.Rule{Type: grading.RuleSubjectGPA, MinValue: b[0], GPA: ptr(b[1])})
	}
	grading.SortRules(out)
	return out
}

func subject(id, name string, comps ...catalog.Component) catalog.Subject {
	return catalog.Subject{ID: id, Name: name, Components: comps, CanonicalCode: catalog.CanonicalCode(comps)}
}

func comp(typ, code string, credit float64) catalog.Component {
	return catalog.Component{Type: catalog.ComponentType(typ), Code: code, CreditHour: ptr(credit)}
}

func obtained(v float64) marks.Mark { return marks.Mark{MarksObtained: &v} }

type fixture struct {
	exams   fakeExams
	schemes fakeSchemes
	catalog fakeCatalog
	marks   fakeMarks
}

func newFixture(method grading.Method) *fixture {
	return &fixture{
		exams: fakeExams{
			exams:   map[string]exam.Exam{"ex1": {ID: "ex1", AcademicYear: "2081", Class: "XI", GradingSchemeID: ptr("s1")}},
			configs: exam.Configs{},
		},
		schemes: fakeSchemes{"s1": {
			ID:         "s1",
			Method:     method,
			SubjectGPA: gpaBands([2]float64{80, 3.6}, [2]float64{50, 2.0}, [2]float64{0, 0}),
			SubjectGrade: func() []grading.Rule {
				r := []grading.Rule{
					{Type: grading.RuleSubjectGrade, MinValue: 80, Grade: ptr("A")},
					{Type: grading.RuleSubjectGrade, MinValue: 0, Grade: ptr("NG")},
				}
				return r
			}(),
			FinalGrade: []grading.Rule{
				{Type: grading.RuleFinalGrade, MinValue: 3.6, Grade: ptr("A")},
				{Type: grading.RuleFinalGrade, MinValue: 0, Grade: ptr("C")},
			},
		}},
		marks: fakeMarks{
			enrollments: map[string]marks.Enrollment{"en1": {ID: "en1", AcademicYear: "2081", Class: "XI"}},
			marks:       map[string]marks.Mark{},
		},
	}
}

func (f *fixture) config(code string, full float64) {
	f.exams.configs[code] = exam.ComponentConfig{Code: code, FullMarks: full, Enabled: true}
}

func (f *fixture) compute(t *testing.T) result.Result {
	t.Helper()
	res, err := result.NewComputer(f.exams, f.schemes, f.catalog, f.marks).Compute(context.Background(), "ex1", "en1")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	return res
}

// --- tests ---

func TestComputeCombinesComponentsOfOneSubject(t *testing.T) {
	f := newFixture(grading.MethodSimpleAvg)
	f.catalog.subjects.Compulsory = []catalog.Subject{subject("eng", "English", comp("TH", "21", 3), comp("IN", "22", 1))}
	f.config("21", 75)
	f.config("22", 25)
	f.marks.marks["21"] = obtained(60)
	f.marks.marks["22"] = obtained(20)

	res := f.compute(t)
	if len(res.Subjects) != 1 {
		t.Fatalf("subjects = %+v", res.Subjects)
	}
	s := res.Subjects[0]
	if s.TotalObtained != 80 || s.TotalFull != 100 || s.Percent != 80 {
		t.Fatalf("totals = %v/%v (%v%%)", s.TotalObtained, s.TotalFull, s.Percent)
	}
	if s.GPA != 3.6 || s.Grade != "A" || s.Status != result.StatusPass {
		t.Fatalf("grading = gpa %v grade %s status %s", s.GPA, s.Grade, s.Status)
	}
	if s.TotalCredit != 4 {
		t.Fatalf("credit = %v", s.TotalCredit)
	}
	if res.OverallGPA != 3.6 || res.FinalGrade != "A" || res.ResultStatus != result.StatusPass {
		t.Fatalf("overall = %v %s %s", res.OverallGPA, res.FinalGrade, res.ResultStatus)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	f := newFixture(grading.MethodCreditWeighted)
	f.catalog.subjects.Compulsory = []catalog.Subject{
		subject("nep", "Nepali", comp("TH", "31", 4)),
		subject("eng", "English", comp("TH", "21", 3)),
	}
	f.config("21", 100)
	f.config("31", 100)
	f.marks.marks["21"] = obtained(66.666)
	f.marks.marks["31"] = obtained(49)

	first, _ := json.Marshal(f.compute(t))
	second, _ := json.Marshal(f.compute(t))
	if !bytes.Equal(first, second) {
		t.Fatalf("outputs differ:\n%s\n%s", first, second)
	}
}

func TestComputeSortsSubjectsByName(t *testing.T) {
	f := newFixture(grading.MethodSimpleAvg)
	f.catalog.subjects.Compulsory = []catalog.Subject{
		subject("z", "Nepali", comp("TH", "31", 4)),
		subject("b", "English", comp("TH", "22", 3)),
		subject("a", "English", comp("TH", "21", 3)),
	}
	f.config("21", 100)
	f.config("22", 100)
	f.config("31", 100)
	res := f.compute(t)
	var order []string
	for _, s := range res.Subjects {
		order = append(order, s.SubjectID)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "z" {
		t.Fatalf("order = %v", order)
	}
}

func TestComputeZeroFullMarksGivesZeroPercent(t *testing.T) {
	f := newFixture(grading.MethodSimpleAvg)
	f.catalog.subjects.Compulsory = []catalog.Subject{subject("eng", "English", comp("TH", "21", 3))}
	f.config("21", 0)
	f.marks.marks["21"] = obtained(0)
	res := f.compute(t)
	if p := res.Subjects[0].Percent; p != 0 {
		t.Fatalf("percent = %v", p)
	}
}

func TestComputeOverallMethods(t *testing.T) {
	setup := func(m grading.Method) *fixture {
		f := newFixture(m)
		f.schemes["s1"] = grading.Scheme{
			ID:         "s1",
			Method:     m,
			SubjectGPA: gpaBands([2]float64{90, 4.0}, [2]float64{50, 2.0}, [2]float64{0, 0}),
		}
		f.catalog.subjects.Compulsory = []catalog.Subject{
			subject("acc", "Accountancy", comp("TH", "41", 4)),
			subject("art", "Art", comp("TH", "51", 1)),
		}
		f.config("41", 100)
		f.config("51", 100)
		f.marks.marks["41"] = obtained(95)
		f.marks.marks["51"] = obtained(55)
		return f
	}
	if got := setup(grading.MethodSimpleAvg).compute(t).OverallGPA; got != 3.0 {
		t.Fatalf("simple avg = %v, want 3", got)
	}
	if got := setup(grading.MethodCreditWeighted).compute(t).OverallGPA; got != 3.6 {
		t.Fatalf("credit weighted = %v, want 3.6", got)
	}
}

func TestComputeZeroCreditCountsAsOne(t *testing.T) {
	f := newFixture(grading.MethodCreditWeighted)
	f.schemes["s1"] = grading.Scheme{ID: "s1", Method: grading.MethodCreditWeighted,
		SubjectGPA: gpaBands([2]float64{90, 4.0}, [2]float64{0, 2.0})}
	f.catalog.subjects.Compulsory = []catalog.Subject{
		subject("a", "A", catalog.Component{Type: "TH", Code: "1"}),
		subject("b", "B", comp("TH", "2", 3)),
	}
	f.config("1", 100)
	f.config("2", 100)
	f.marks.marks["1"] = obtained(95)
	f.marks.marks["2"] = obtained(10)
	// (4*1 + 2*3) / 4
	if got := f.compute(t).OverallGPA; got != 2.5 {
		t.Fatalf("overall = %v, want 2.5", got)
	}
}

func TestComputeIncompleteAndFail(t *testing.T) {
	f := newFixture(grading.MethodSimpleAvg)
	f.catalog.subjects.Compulsory = []catalog.Subject{
		subject("eng", "English", comp("TH", "21", 3), comp("IN", "22", 1)),
		subject("nep", "Nepali", comp("TH", "31", 4)),
	}
	f.config("21", 75)
	f.config("22", 25)
	f.config("31", 100)
	f.marks.marks["21"] = obtained(70)
	f.marks.marks["22"] = marks.Mark{IsAbsent: true}
	f.marks.marks["31"] = obtained(85)

	res := f.compute(t)
	eng := res.Subjects[0]
	if eng.Status != result.StatusIncomplete || !eng.AnyAbsent || !eng.AnyMissing {
		t.Fatalf("english = %+v", eng)
	}
	// incomplete subjects neither fail the result nor join the average
	if res.ResultStatus != result.StatusPass || res.OverallGPA != 3.6 {
		t.Fatalf("overall = %s %v", res.ResultStatus, res.OverallGPA)
	}

	f.marks.marks["31"] = obtained(10)
	res = f.compute(t)
	if res.Subjects[1].Status != result.StatusFail || res.ResultStatus != result.StatusFail {
		t.Fatalf("failing subject: %+v / %s", res.Subjects[1], res.ResultStatus)
	}
}

func TestComputeSkipsSubjectsWithoutEnabledComponents(t *testing.T) {
	f := newFixture(grading.MethodSimpleAvg)
	f.catalog.subjects.Compulsory = []catalog.Subject{
		subject("eng", "English", comp("TH", "21", 3)),
		subject("mus", "Music", comp("TH", "61", 2)),
	}
	f.config("21", 100)
	f.exams.configs["61"] = exam.ComponentConfig{Code: "61", FullMarks: 100, Enabled: false}
	res := f.compute(t)
	if len(res.Subjects) != 1 || res.Subjects[0].SubjectID != "eng" {
		t.Fatalf("subjects = %+v", res.Subjects)
	}
}

func TestComputeIncludesChosenOptionalSubject(t *testing.T) {
	f := newFixture(grading.MethodSimpleAvg)
	f.catalog.subjects = catalog.Subjects{
		Compulsory: []catalog.Subject{subject("eng", "English", comp("TH", "21", 3))},
		OptionalGroups: []catalog.Group{{Name: "Opt. I", Subjects: []catalog.Subject{
			subject("acc", "Accountancy", comp("TH", "41", 4)),
			subject("cs", "Computer Science", comp("TH", "45", 4)),
		}}},
	}
	f.config("21", 100)
	f.config("41", 100)
	f.config("45", 100)
	f.marks.choices = []marks.Choice{{GroupName: "Opt. I", SubjectID: "cs"}}
	res := f.compute(t)
	if len(res.Subjects) != 2 || res.Subjects[0].SubjectID != "cs" {
		t.Fatalf("subjects = %+v", res.Subjects)
	}
}

func TestComputeErrors(t *testing.T) {
	f := newFixture(grading.MethodSimpleAvg)
	c := result.NewComputer(f.exams, f.schemes, f.catalog, f.marks)
	ctx := context.Background()
	if _, err := c.Compute(ctx, "nope", "en1"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("missing exam: %v", err)
	}
	if _, err := c.Compute(ctx, "ex1", "nope"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("missing enrollment: %v", err)
	}
	f.exams.exams["ex2"] = exam.Exam{ID: "ex2"}
	if _, err := c.Compute(ctx, "ex2", "en1"); !apperr.Is(err, apperr.KindConfig) {
		t.Fatalf("no scheme: %v", err)
	}
}
