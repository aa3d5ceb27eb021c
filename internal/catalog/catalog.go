package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/mind-engage/mindengage-results/internal/db"
)

const CompulsoryGroup = "COMPULSORY"

type ComponentType string

const (
	TypeTheory    ComponentType = "TH"
	TypeInternal  ComponentType = "IN"
	TypePractical ComponentType = "PR"
)

type Component struct {
	Type       ComponentType `json:"component_type"`
	Code       string        `json:"component_code"`
	Title      string        `json:"title"`
	CreditHour *float64      `json:"credit_hour,omitempty"`
}

type Subject struct {
	ID            string      `json:"subject_id"`
	Name          string      `json:"subject_name"`
	Components    []Component `json:"components"`
	CanonicalCode string      `json:"canonical_code"`
}

type Group struct {
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	Subjects  []Subject `json:"subjects"`
}

// Subjects is the catalog for one (academic year, class).
type Subjects struct {
	Compulsory     []Subject `json:"compulsory"`
	OptionalGroups []Group   `json:"optional_groups"`
}

type Resolver interface {
	SubjectsFor(ctx context.Context, academicYear, class string, faculty *string) (Subjects, error)
	SubjectsByID(ctx context.Context, ids []string) ([]Subject, error)
}

// IsOptionalGroup reports whether name denotes an optional group ("Opt. 1", "optional II").
func IsOptionalGroup(name string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(name)), "opt")
}

// CanonicalCode returns the TH component's code, falling back to the
// lexicographically smallest code.
func CanonicalCode(comps []Component) string {
	smallest := ""
	for _, c := range comps {
		if c.Type == TypeTheory {
			return c.Code
		}
		if smallest == "" || c.Code < smallest {
			smallest = c.Code
		}
	}
	return smallest
}

var typeOrder = map[ComponentType]int{TypeTheory: 0, TypeInternal: 1, TypePractical: 2}

func sortComponents(comps []Component) {
	sort.SliceStable(comps, func(i, j int) bool {
		oi, oj := typeOrder[comps[i].Type], typeOrder[comps[j].Type]
		if oi != oj {
			return oi < oj
		}
		return comps[i].Code < comps[j].Code
	})
}

type SQLResolver struct{ q db.Querier }

func NewSQLResolver(q db.Querier) *SQLResolver { return &SQLResolver{q: q} }

func (r *SQLResolver) SubjectsFor(ctx context.Context, academicYear, class string, faculty *string) (Subjects, error) {
	fac := ""
	if faculty != nil {
		fac = *faculty
	}
	rows, err := r.q.QueryContext(ctx, `
		SELECT g.id, g.name, g.sort_order, g.faculty
		  FROM catalog_groups g
		 WHERE g.academic_year=$1 AND g.class=$2
		   AND (g.faculty IS NULL OR g.faculty=$3)
		 ORDER BY g.sort_order, g.name`, academicYear, class, fac)
	if err != nil {
		return Subjects{}, fmt.Errorf("catalog groups: %w", err)
	}
	type groupRow struct {
		id, name string
		order    int
		shared   bool
	}
	var groups []groupRow
	for rows.Next() {
		var (
			g   groupRow
			fac sql.NullString
		)
		if err := rows.Scan(&g.id, &g.name, &g.order, &fac); err != nil {
			rows.Close()
			return Subjects{}, err
		}
		g.shared = !fac.Valid
		groups = append(groups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Subjects{}, err
	}

	var out Subjects
	for _, g := range groups {
		switch {
		case g.name == CompulsoryGroup && g.shared:
			subs, err := r.groupSubjects(ctx, g.id)
			if err != nil {
				return Subjects{}, err
			}
			out.Compulsory = append(out.Compulsory, subs...)
		case IsOptionalGroup(g.name):
			subs, err := r.groupSubjects(ctx, g.id)
			if err != nil {
				return Subjects{}, err
			}
			out.OptionalGroups = append(out.OptionalGroups, Group{Name: g.name, SortOrder: g.order, Subjects: subs})
		}
	}
	return out, nil
}

func (r *SQLResolver) groupSubjects(ctx context.Context, groupID string) ([]Subject, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT s.id, s.name
		  FROM catalog_group_subjects gs
		  JOIN subjects s ON s.id = gs.subject_id
		 WHERE gs.group_id=$1
		 ORDER BY gs.sort_order, s.name`, groupID)
	if err != nil {
		return nil, fmt.Errorf("group subjects: %w", err)
	}
	var subs []Subject
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			rows.Close()
			return nil, err
		}
		subs = append(subs, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range subs {
		comps, err := r.components(ctx, subs[i].ID)
		if err != nil {
			return nil, err
		}
		subs[i].Components = comps
		subs[i].CanonicalCode = CanonicalCode(comps)
	}
	return subs, nil
}

func (r *SQLResolver) SubjectsByID(ctx context.Context, ids []string) ([]Subject, error) {
	out := make([]Subject, 0, len(ids))
	for _, id := range ids {
		var s Subject
		err := r.q.QueryRowContext(ctx, `SELECT id, name FROM subjects WHERE id=$1`, id).Scan(&s.ID, &s.Name)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("subject %s: %w", id, err)
		}
		comps, err := r.components(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		s.Components = comps
		s.CanonicalCode = CanonicalCode(comps)
		out = append(out, s)
	}
	return out, nil
}

func (r *SQLResolver) components(ctx context.Context, subjectID string) ([]Component, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT component_type, component_code, title, credit_hour
		  FROM subject_components WHERE subject_id=$1`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("components: %w", err)
	}
	defer rows.Close()
	var comps []Component
	for rows.Next() {
		var (
			c      Component
			typ    string
			credit sql.NullFloat64
		)
		if err := rows.Scan(&typ, &c.Code, &c.Title, &credit); err != nil {
			return nil, err
		}
		c.Type = ComponentType(typ)
		if credit.Valid {
			v := credit.Float64
			c.CreditHour = &v
		}
		comps = append(comps, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortComponents(comps)
	return comps, nil
}
