package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/mindengage-results/internal/apperr"
	"github.com/mind-engage/mindengage-results/internal/db"
	"github.com/mind-engage/mindengage-results/internal/rbac"
)

var validate = validator.New()

// ValidateComponent checks a config write before it reaches storage.
func ValidateComponent(cfg ComponentConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return apperr.Wrap(apperr.KindInvalid, err, "invalid component config")
	}
	return nil
}

type SQLStore struct {
	q db.Querier
}

func NewSQLStore(q db.Querier) *SQLStore {
	return &SQLStore{q: q}
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	var (
		e               Exam
		faculty, scheme sql.NullString
		published       sql.NullInt64
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT id, campus, academic_year, class, faculty, grading_scheme_id, is_locked, published_at
		  FROM exams WHERE id=$1`, id).
		Scan(&e.ID, &e.Campus, &e.AcademicYear, &e.Class, &faculty, &scheme, &e.IsLocked, &published)
	if errors.Is(err, sql.ErrNoRows) {
		return Exam{}, apperr.NotFound("exam %s not found", id)
	}
	if err != nil {
		return Exam{}, fmt.Errorf("get exam: %w", err)
	}
	if faculty.Valid {
		e.Faculty = &faculty.String
	}
	if scheme.Valid && scheme.String != "" {
		e.GradingSchemeID = &scheme.String
	}
	if published.Valid {
		e.PublishedAt = &published.Int64
	}
	return e, nil
}

func (s *SQLStore) IsLocked(ctx context.Context, examID string) (bool, error) {
	var locked bool
	err := s.q.QueryRowContext(ctx, `SELECT is_locked FROM exams WHERE id=$1`, examID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, apperr.NotFound("exam %s not found", examID)
	}
	if err != nil {
		return false, fmt.Errorf("exam lock: %w", err)
	}
	return locked, nil
}

func (s *SQLStore) ConfigFor(ctx context.Context, examID string) (Configs, error) {
	if _, err := s.IsLocked(ctx, examID); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT component_code, full_marks, pass_marks, is_enabled
		  FROM exam_component_configs WHERE exam_id=$1`, examID)
	if err != nil {
		return nil, fmt.Errorf("component configs: %w", err)
	}
	defer rows.Close()
	out := Configs{}
	for rows.Next() {
		var c ComponentConfig
		if err := rows.Scan(&c.Code, &c.FullMarks, &c.PassMarks, &c.Enabled); err != nil {
			return nil, err
		}
		out[c.Code] = c
	}
	return out, rows.Err()
}

// SetComponent upserts one component config. Locked exams reject the write
// unless the actor holds the correction permission.
func (s *SQLStore) SetComponent(ctx context.Context, actor rbac.Actor, examID string, cfg ComponentConfig) error {
	if err := ValidateComponent(cfg); err != nil {
		return err
	}
	locked, err := s.IsLocked(ctx, examID)
	if err != nil {
		return err
	}
	if locked && !actor.Can("marks:correct") {
		return apperr.Conflict("exam %s is locked", examID)
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO exam_component_configs (exam_id, component_code, full_marks, pass_marks, is_enabled, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (exam_id, component_code) DO UPDATE SET
			full_marks=EXCLUDED.full_marks,
			pass_marks=EXCLUDED.pass_marks,
			is_enabled=EXCLUDED.is_enabled,
			updated_by=EXCLUDED.updated_by`,
		examID, cfg.Code, cfg.FullMarks, cfg.PassMarks, db.Bool(cfg.Enabled), actor.ID)
	if err != nil {
		return fmt.Errorf("set component: %w", err)
	}
	return nil
}

// Lock marks the exam published and locked.
func (s *SQLStore) Lock(ctx context.Context, examID string, publishedAt int64) error {
	res, err := s.q.ExecContext(ctx, `UPDATE exams SET is_locked=1, published_at=$1 WHERE id=$2`, publishedAt, examID)
	if err != nil {
		return fmt.Errorf("lock exam: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("exam %s not found", examID)
	}
	return nil
}
