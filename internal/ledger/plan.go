package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-results/internal/apperr"
	"github.com/mind-engage/mindengage-results/internal/exam"
	"github.com/mind-engage/mindengage-results/internal/marks"
)

// optionalSubject is one entry of the optional code map.
type optionalSubject struct {
	SubjectID string
	GroupName string
	Code      string
}

// planInput is everything the planner needs. It holds no connections.
type planInput struct {
	ExamID     string
	Configs    map[string]exam.ComponentConfig // enabled, by normalized code
	Universe   map[string]marks.Enrollment
	Compulsory []string
	Optional   map[string]optionalSubject // by normalized code
}

type choiceSet struct {
	EnrollmentID string
	Choices      []marks.Choice
}

type backfill struct {
	StudentID string
	Profile   marks.Profile
}

// Plan is the list of mutations one upload produces, plus the rows refused.
type Plan struct {
	Marks     []marks.Mark
	Choices   []choiceSet
	Backfills []backfill
	Errors    []RowError
	TotalRows int
}

func (p *Plan) reject(row int, format string, args ...any) {
	p.Errors = append(p.Errors, RowError{Row: row, Reason: fmt.Sprintf(format, args...)})
}

func errMissingHeader(msg string) error { return apperr.Structural("%s", msg) }

var absentTokens = map[string]bool{"AB": true, "ABS": true, "A": true, "ABSENT": true}

func isAbsentMark(raw string) bool {
	return absentTokens[strings.ToUpper(strings.TrimSpace(raw))]
}

func truthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "t", "yes", "y", "ab", "abs", "absent":
		return true
	}
	return false
}

// markFor validates raw against the enabled config of code. ok is false when
// the cell was rejected; the reason is already recorded.
func (in planInput) markFor(p *Plan, row int, en marks.Enrollment, code, raw, where string) (marks.Mark, bool) {
	cfg, found := in.Configs[exam.NormalizeCode(code)]
	if !found {
		p.reject(row, "%s: component %s not enabled for this exam", where, code)
		return marks.Mark{}, false
	}
	m := marks.Mark{ExamID: in.ExamID, EnrollmentID: en.ID, Code: cfg.Code}
	if isAbsentMark(raw) {
		m.IsAbsent = true
		return m, true
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		p.reject(row, "%s: %q is not a number", where, raw)
		return marks.Mark{}, false
	}
	if err := marks.CheckRange(cfg, v); err != nil {
		p.reject(row, "%s: %v", where, err)
		return marks.Mark{}, false
	}
	m.MarksObtained = &v
	return m, true
}

func planTabular(in planInput, rows []tabularRow) Plan {
	var p Plan
	for _, r := range rows {
		p.TotalRows++
		if r.Symbol == "" || r.Code == "" {
			p.reject(r.Row, "missing symbol_no or component_code")
			continue
		}
		en, ok := in.Universe[r.Symbol]
		if !ok {
			p.reject(r.Row, "unknown symbol_no %s", r.Symbol)
			continue
		}
		cfg, ok := in.Configs[exam.NormalizeCode(r.Code)]
		if !ok {
			p.reject(r.Row, "component %s not enabled for this exam", r.Code)
			continue
		}
		m := marks.Mark{ExamID: in.ExamID, EnrollmentID: en.ID, Code: cfg.Code}
		if truthy(r.Absent) || isAbsentMark(r.Marks) {
			m.IsAbsent = true
			p.Marks = append(p.Marks, m)
			continue
		}
		if r.Marks == "" {
			p.reject(r.Row, "marks_obtained required unless absent")
			continue
		}
		v, err := strconv.ParseFloat(r.Marks, 64)
		if err != nil {
			p.reject(r.Row, "marks_obtained %q is not a number", r.Marks)
			continue
		}
		if err := marks.CheckRange(cfg, v); err != nil {
			p.reject(r.Row, "%v", err)
			continue
		}
		m.MarksObtained = &v
		p.Marks = append(p.Marks, m)
	}
	return p
}

func planGrid(in planInput, l gridLayout, rows []gridRow) Plan {
	var p Plan
	for _, r := range rows {
		p.TotalRows++
		sym := r.identity(roleSymbol)
		if sym == "" {
			p.reject(r.Row, "missing symbol no")
			continue
		}
		en, ok := in.Universe[sym]
		if !ok {
			p.reject(r.Row, "unknown symbol no %s", sym)
			continue
		}
		prof := marks.Profile{
			FullName: r.identity(roleName),
			RegdNo:   r.identity(roleReg),
			DOB:      r.identity(roleDOB),
		}
		if !prof.Empty() {
			p.Backfills = append(p.Backfills, backfill{StudentID: en.StudentID, Profile: prof})
		}

		chosen := map[int]optionalSubject{}
		var choices []marks.Choice
		groups := map[string]bool{}
		for _, c := range r.Cells {
			oc, ok := c.(OptionalCodeCell)
			if !ok {
				continue
			}
			label := l.label(oc.Col)
			sub, known := in.Optional[exam.NormalizeCode(oc.Raw)]
			if !known {
				p.reject(r.Row, "%s: unrecognized optional subject code %s", label, oc.Raw)
				continue
			}
			if groups[sub.GroupName] {
				p.reject(r.Row, "%s: second choice for group %s", label, sub.GroupName)
				continue
			}
			groups[sub.GroupName] = true
			chosen[oc.Pair] = sub
			choices = append(choices, marks.Choice{GroupName: sub.GroupName, SubjectID: sub.SubjectID})
		}
		if len(choices) > 0 {
			p.Choices = append(p.Choices, choiceSet{EnrollmentID: en.ID, Choices: choices})
		}

		for _, c := range r.Cells {
			switch v := c.(type) {
			case CompulsoryMarkCell:
				if m, ok := in.markFor(&p, r.Row, en, v.Code, v.Raw, l.label(v.Col)); ok {
					p.Marks = append(p.Marks, m)
				}
			case OptionalMarkCell:
				sub, ok := chosen[v.Pair]
				if !ok {
					if !hasCodeCell(r, v.Pair) {
						p.reject(r.Row, "%s: mark without a subject code", l.label(l.Optional[v.Pair].CodeCol))
					}
					continue
				}
				if m, ok := in.markFor(&p, r.Row, en, sub.Code, v.Raw, l.label(l.Optional[v.Pair].CodeCol)); ok {
					p.Marks = append(p.Marks, m)
				}
			}
		}
	}
	return p
}

func hasCodeCell(r gridRow, pair int) bool {
	for _, c := range r.Cells {
		if oc, ok := c.(OptionalCodeCell); ok && oc.Pair == pair {
			return true
		}
	}
	return false
}
