// Package dbtest opens throwaway SQLite databases with the full schema and
// seeds catalog, exam and enrollment rows for tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mind-engage/mindengage-results/internal/db"
)

var seq atomic.Int64

// Open returns a private in-memory database, closed with the test.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))
	d, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// Exec runs each statement and fails the test on the first error.
func Exec(t *testing.T, d *sql.DB, stmts ...string) {
	t.Helper()
	for _, s := range stmts {
		if _, err := d.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", firstLine(s), err)
		}
	}
}

// Component seeds one subject component.
type Component struct {
	Type   string
	Code   string
	Credit float64
}

// Subject seeds a subject with its components.
func Subject(t *testing.T, d *sql.DB, id, name string, comps ...Component) {
	t.Helper()
	Exec(t, d, fmt.Sprintf(`INSERT INTO subjects (id, name) VALUES ('%s', '%s')`, id, name))
	for _, c := range comps {
		credit := "NULL"
		if c.Credit > 0 {
			credit = fmt.Sprint(c.Credit)
		}
		Exec(t, d, fmt.Sprintf(
			`INSERT INTO subject_components (subject_id, component_type, component_code, credit_hour) VALUES ('%s', '%s', '%s', %s)`,
			id, c.Type, c.Code, credit))
	}
}

// Group seeds a catalog group for year/class holding subjects in order.
func Group(t *testing.T, d *sql.DB, id, year, class, name string, order int, subjects ...string) {
	t.Helper()
	Exec(t, d, fmt.Sprintf(
		`INSERT INTO catalog_groups (id, academic_year, class, name, sort_order) VALUES ('%s', '%s', '%s', '%s', %d)`,
		id, year, class, name, order))
	for i, s := range subjects {
		Exec(t, d, fmt.Sprintf(
			`INSERT INTO catalog_group_subjects (group_id, subject_id, sort_order) VALUES ('%s', '%s', %d)`, id, s, i))
	}
}

// Rule is one grading band; Grade "" stores NULL and GPA < 0 stores NULL.
type Rule struct {
	Type  string
	Min   float64
	Grade string
	GPA   float64
}

func Scheme(t *testing.T, d *sql.DB, id, method string, rules ...Rule) {
	t.Helper()
	Exec(t, d, fmt.Sprintf(`INSERT INTO grading_schemes (id, overall_method) VALUES ('%s', '%s')`, id, method))
	for _, r := range rules {
		grade, gpa := "NULL", "NULL"
		if r.Grade != "" {
			grade = "'" + r.Grade + "'"
		}
		if r.GPA >= 0 {
			gpa = fmt.Sprint(r.GPA)
		}
		Exec(t, d, fmt.Sprintf(
			`INSERT INTO grading_rules (scheme_id, rule_type, min_value, grade, gpa) VALUES ('%s', '%s', %v, %s, %s)`,
			id, r.Type, r.Min, grade, gpa))
	}
}

// Exam seeds an unlocked exam for campus "main". scheme "" leaves it unset.
func Exam(t *testing.T, d *sql.DB, id, year, class, scheme string) {
	t.Helper()
	sc := "NULL"
	if scheme != "" {
		sc = "'" + scheme + "'"
	}
	Exec(t, d, fmt.Sprintf(
		`INSERT INTO exams (id, campus, academic_year, class, grading_scheme_id) VALUES ('%s', 'main', '%s', '%s', %s)`,
		id, year, class, sc))
}

func Config(t *testing.T, d *sql.DB, examID, code string, full float64, enabled bool) {
	t.Helper()
	Exec(t, d, fmt.Sprintf(
		`INSERT INTO exam_component_configs (exam_id, component_code, full_marks, pass_marks, is_enabled) VALUES ('%s', '%s', %v, 0, %d)`,
		examID, code, full, db.Bool(enabled)))
}

// Enroll seeds a student and an enrollment at campus "main". The student id
// is "stu-" + enrollmentID.
func Enroll(t *testing.T, d *sql.DB, enrollmentID, year, class, symbol string) {
	t.Helper()
	Exec(t, d,
		fmt.Sprintf(`INSERT INTO students (id, full_name) VALUES ('stu-%s', '')`, enrollmentID),
		fmt.Sprintf(`INSERT INTO enrollments (id, student_id, campus, academic_year, class, symbol_no) VALUES ('%s', 'stu-%s', 'main', '%s', '%s', '%s')`,
			enrollmentID, enrollmentID, year, class, symbol))
}

// Count returns SELECT COUNT(*) for the given where clause on table.
func Count(t *testing.T, d *sql.DB, table, where string, args ...any) int {
	t.Helper()
	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	if err := d.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
