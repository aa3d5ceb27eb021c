package grading

import (
	"math"
	"sort"
)

type RuleType string

const (
	RuleSubjectGPA   RuleType = "SUBJECT_GPA"
	RuleSubjectGrade RuleType = "SUBJECT_GRADE"
	RuleFinalGrade   RuleType = "FINAL_GRADE"
)

// NoGrade is reported when a rule set is empty.
const NoGrade = "NG"

// Rule is one threshold band. A value v falls in the band when
// v >= MinValue and no higher band also matches.
type Rule struct {
	Type     RuleType `json:"rule_type"`
	MinValue float64  `json:"min_value"`
	Grade    *string  `json:"grade,omitempty"`
	GPA      *float64 `json:"gpa,omitempty"`
}

// SortRules orders rules by MinValue descending. Equal thresholds keep
// their input order.
func SortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].MinValue > rules[j].MinValue })
}

// Resolve returns the first rule whose MinValue is satisfied by value.
// rules must already be sorted descending. When nothing matches the last
// (lowest) rule is returned as a catch-all; an empty set yields nil.
//
// Ties favor the higher grade band: with thresholds [90 70 40 0] a value
// of exactly 70 resolves to the 70 band.
func Resolve(rules []Rule, value float64) *Rule {
	if len(rules) == 0 {
		return nil
	}
	for i := range rules {
		if value >= rules[i].MinValue {
			return &rules[i]
		}
	}
	return &rules[len(rules)-1]
}

// GradeOf returns r's grade or NoGrade.
func GradeOf(r *Rule) string {
	if r == nil || r.Grade == nil {
		return NoGrade
	}
	return *r.Grade
}

// GPAOf returns r's gpa or 0.
func GPAOf(r *Rule) float64 {
	if r == nil || r.GPA == nil {
		return 0
	}
	return *r.GPA
}

// roundEpsilon absorbs binary representation error so that values such as
// 2.675 (stored as 2.67499999...) round up.
const roundEpsilon = 1e-9

// Round2 rounds x to two decimals, half away from zero.
func Round2(x float64) float64 {
	if x < 0 {
		return -Round2(-x)
	}
	return math.Floor(x*100+0.5+roundEpsilon) / 100
}
