package marks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-results/internal/apperr"
	"github.com/mind-engage/mindengage-results/internal/db"
	"github.com/mind-engage/mindengage-results/internal/rbac"
)

// Reader is the read side ResultComputer consumes.
type Reader interface {
	GetEnrollment(ctx context.Context, id string) (Enrollment, error)
	ForEnrollment(ctx context.Context, examID, enrollmentID string) (map[string]Mark, error)
	OptionalChoices(ctx context.Context, enrollmentID string) ([]Choice, error)
}

type SQLStore struct {
	q   db.Querier
	now func() time.Time
}

func NewSQLStore(q db.Querier) *SQLStore { return &SQLStore{q: q, now: time.Now} }

// Upsert inserts or updates the mark keyed by (exam, enrollment, code).
// Lock and range checks belong to the caller.
func (s *SQLStore) Upsert(ctx context.Context, actor rbac.Actor, m Mark) error {
	var obtained any
	if !m.IsAbsent && m.MarksObtained != nil {
		obtained = *m.MarksObtained
	}
	now := s.now().Unix()
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO marks (exam_id, enrollment_id, component_code, marks_obtained, is_absent, entered_by, updated_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$6,$7,$7)
		ON CONFLICT (exam_id, enrollment_id, component_code) DO UPDATE SET
			marks_obtained=EXCLUDED.marks_obtained,
			is_absent=EXCLUDED.is_absent,
			updated_by=EXCLUDED.updated_by,
			updated_at=EXCLUDED.updated_at`,
		m.ExamID, m.EnrollmentID, m.Code, obtained, db.Bool(m.IsAbsent), actor.ID, now)
	if err != nil {
		return fmt.Errorf("upsert mark %s/%s/%s: %w", m.ExamID, m.EnrollmentID, m.Code, err)
	}
	return nil
}

func (s *SQLStore) ForEnrollment(ctx context.Context, examID, enrollmentID string) (map[string]Mark, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT component_code, marks_obtained, is_absent
		  FROM marks WHERE exam_id=$1 AND enrollment_id=$2`, examID, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("marks: %w", err)
	}
	defer rows.Close()
	out := map[string]Mark{}
	for rows.Next() {
		m := Mark{ExamID: examID, EnrollmentID: enrollmentID}
		var obtained sql.NullFloat64
		if err := rows.Scan(&m.Code, &obtained, &m.IsAbsent); err != nil {
			return nil, err
		}
		if obtained.Valid && !m.IsAbsent {
			v := obtained.Float64
			m.MarksObtained = &v
		}
		out[m.Code] = m
	}
	return out, rows.Err()
}

func (s *SQLStore) GetEnrollment(ctx context.Context, id string) (Enrollment, error) {
	var (
		e   Enrollment
		fac sql.NullString
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT id, student_id, symbol_no, campus, academic_year, class, faculty
		  FROM enrollments WHERE id=$1`, id).
		Scan(&e.ID, &e.StudentID, &e.SymbolNo, &e.Campus, &e.AcademicYear, &e.Class, &fac)
	if errors.Is(err, sql.ErrNoRows) {
		return Enrollment{}, apperr.NotFound("enrollment %s not found", id)
	}
	if err != nil {
		return Enrollment{}, fmt.Errorf("get enrollment: %w", err)
	}
	if fac.Valid {
		e.Faculty = &fac.String
	}
	return e, nil
}

// Universe returns the enrollments in scope keyed by trimmed symbol number.
// Faculty narrows the scope only when the exam has one.
func (s *SQLStore) Universe(ctx context.Context, sc Scope) (map[string]Enrollment, error) {
	query := `
		SELECT id, student_id, symbol_no, faculty
		  FROM enrollments
		 WHERE campus=$1 AND academic_year=$2 AND class=$3`
	args := []any{sc.Campus, sc.AcademicYear, sc.Class}
	if sc.Faculty != nil {
		query += ` AND faculty=$4`
		args = append(args, *sc.Faculty)
	}
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("enrollment universe: %w", err)
	}
	defer rows.Close()
	out := map[string]Enrollment{}
	for rows.Next() {
		e := Enrollment{Campus: sc.Campus, AcademicYear: sc.AcademicYear, Class: sc.Class}
		var fac sql.NullString
		if err := rows.Scan(&e.ID, &e.StudentID, &e.SymbolNo, &fac); err != nil {
			return nil, err
		}
		if fac.Valid {
			e.Faculty = &fac.String
		}
		out[strings.TrimSpace(e.SymbolNo)] = e
	}
	return out, rows.Err()
}

func (s *SQLStore) OptionalChoices(ctx context.Context, enrollmentID string) ([]Choice, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT group_name, subject_id FROM student_optional_choices
		 WHERE enrollment_id=$1 ORDER BY group_name`, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("optional choices: %w", err)
	}
	defer rows.Close()
	var out []Choice
	for rows.Next() {
		var c Choice
		if err := rows.Scan(&c.GroupName, &c.SubjectID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReplaceOptionalChoices deletes every choice of the enrollment and inserts
// choices. Not safe against concurrent writers to the same enrollment.
func (s *SQLStore) ReplaceOptionalChoices(ctx context.Context, enrollmentID string, choices []Choice) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM student_optional_choices WHERE enrollment_id=$1`, enrollmentID); err != nil {
		return fmt.Errorf("clear optional choices: %w", err)
	}
	for _, c := range choices {
		if _, err := s.q.ExecContext(ctx,
			`INSERT INTO student_optional_choices (enrollment_id, group_name, subject_id) VALUES ($1,$2,$3)`,
			enrollmentID, c.GroupName, c.SubjectID); err != nil {
			return fmt.Errorf("insert optional choice: %w", err)
		}
	}
	return nil
}

// BackfillStudent fills profile fields present in cols, keeping the stored
// value wherever the new one is blank.
func (s *SQLStore) BackfillStudent(ctx context.Context, studentID string, p Profile, cols db.ColumnSet) error {
	var (
		sets []string
		args []any
	)
	add := func(col, val string) {
		if !cols.Has(col) || strings.TrimSpace(val) == "" {
			return
		}
		args = append(args, strings.TrimSpace(val))
		sets = append(sets, fmt.Sprintf("%s=COALESCE(NULLIF($%d,''), %s)", col, len(args), col))
	}
	add("full_name", p.FullName)
	add("regd_no", p.RegdNo)
	add("dob", p.DOB)
	if len(sets) == 0 {
		return nil
	}
	args = append(args, studentID)
	query := fmt.Sprintf(`UPDATE students SET %s WHERE id=$%d`, strings.Join(sets, ", "), len(args))
	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("backfill student %s: %w", studentID, err)
	}
	return nil
}
