package grading_test

import (
	"context"
	"testing"

	"github.com/mind-engage/mindengage-results/internal/apperr"
	"github.com/mind-engage/mindengage-results/internal/db/dbtest"
	"github.com/mind-engage/mindengage-results/internal/grading"
)

func TestSQLStoreLoadScheme(t *testing.T) {
	d := dbtest.Open(t)
	dbtest.Scheme(t, d, "s1", "CREDIT_WEIGHTED",
		dbtest.Rule{Type: "SUBJECT_GPA", Min: 0, GPA: 0},
		dbtest.Rule{Type: "SUBJECT_GPA", Min: 90, GPA: 4},
		dbtest.Rule{Type: "SUBJECT_GRADE", Min: 90, Grade: "A+", GPA: -1},
		dbtest.Rule{Type: "FINAL_GRADE", Min: 3.6, Grade: "A", GPA: -1},
	)

	sc, err := grading.NewSQLStore(d).LoadScheme(context.Background(), "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Method != grading.MethodCreditWeighted {
		t.Fatalf("method = %s", sc.Method)
	}
	if len(sc.SubjectGPA) != 2 || sc.SubjectGPA[0].MinValue != 90 {
		t.Fatalf("subject gpa rules not sorted descending: %+v", sc.SubjectGPA)
	}
	if len(sc.SubjectGrade) != 1 || sc.SubjectGrade[0].GPA != nil {
		t.Fatalf("grade rule should carry no gpa: %+v", sc.SubjectGrade)
	}
	if len(sc.FinalGrade) != 1 || grading.GradeOf(&sc.FinalGrade[0]) != "A" {
		t.Fatalf("final grade rules: %+v", sc.FinalGrade)
	}
}

func TestSQLStoreUnknownSchemeIsConfigError(t *testing.T) {
	d := dbtest.Open(t)
	_, err := grading.NewSQLStore(d).LoadScheme(context.Background(), "missing")
	if !apperr.Is(err, apperr.KindConfig) {
		t.Fatalf("want config error, got %v", err)
	}
}
