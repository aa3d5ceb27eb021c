package grading

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-results/internal/apperr"
	"github.com/mind-engage/mindengage-results/internal/db"
)

type Method string

const (
	MethodSimpleAvg      Method = "SIMPLE_AVG"
	MethodCreditWeighted Method = "CREDIT_WEIGHTED"
)

// Scheme is a grading scheme with its three rule tables, each sorted
// descending by MinValue.
type Scheme struct {
	ID           string
	Method       Method
	SubjectGPA   []Rule
	SubjectGrade []Rule
	FinalGrade   []Rule
}

// Add appends r to the table matching its type. Callers re-sort with
// Sort after adding.
func (s *Scheme) Add(r Rule) {
	switch r.Type {
	case RuleSubjectGPA:
		s.SubjectGPA = append(s.SubjectGPA, r)
	case RuleSubjectGrade:
		s.SubjectGrade = append(s.SubjectGrade, r)
	case RuleFinalGrade:
		s.FinalGrade = append(s.FinalGrade, r)
	}
}

func (s *Scheme) Sort() {
	SortRules(s.SubjectGPA)
	SortRules(s.SubjectGrade)
	SortRules(s.FinalGrade)
}

type SchemeSource interface {
	LoadScheme(ctx context.Context, id string) (Scheme, error)
}

type SQLStore struct{ q db.Querier }

func NewSQLStore(q db.Querier) *SQLStore { return &SQLStore{q: q} }

func (s *SQLStore) LoadScheme(ctx context.Context, id string) (Scheme, error) {
	sc := Scheme{ID: id}
	var method string
	err := s.q.QueryRowContext(ctx, `SELECT overall_method FROM grading_schemes WHERE id=$1`, id).Scan(&method)
	if errors.Is(err, sql.ErrNoRows) {
		return Scheme{}, apperr.Config("grading scheme %s not found", id)
	}
	if err != nil {
		return Scheme{}, fmt.Errorf("load scheme: %w", err)
	}
	sc.Method = Method(method)

	rows, err := s.q.QueryContext(ctx,
		`SELECT rule_type, min_value, grade, gpa FROM grading_rules WHERE scheme_id=$1 ORDER BY min_value DESC, id`, id)
	if err != nil {
		return Scheme{}, fmt.Errorf("load rules: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			typ   string
			r     Rule
			grade sql.NullString
			gpa   sql.NullFloat64
		)
		if err := rows.Scan(&typ, &r.MinValue, &grade, &gpa); err != nil {
			return Scheme{}, err
		}
		r.Type = RuleType(typ)
		if grade.Valid {
			g := grade.String
			r.Grade = &g
		}
		if gpa.Valid {
			v := gpa.Float64
			r.GPA = &v
		}
		sc.Add(r)
	}
	if err := rows.Err(); err != nil {
		return Scheme{}, err
	}
	sc.Sort()
	return sc, nil
}
