package exam

import "strings"

type Exam struct {
	ID              string  `json:"id"`
	Campus          string  `json:"campus"`
	AcademicYear    string  `json:"academic_year"`
	Class           string  `json:"class"`
	Faculty         *string `json:"faculty,omitempty"`
	GradingSchemeID *string `json:"grading_scheme_id,omitempty"`
	IsLocked        bool    `json:"is_locked"`
	PublishedAt     *int64  `json:"published_at,omitempty"`
}

// ComponentConfig is the per-exam setting for one component code.
type ComponentConfig struct {
	Code      string  `json:"component_code" validate:"required,max=64"`
	FullMarks float64 `json:"full_marks" validate:"gt=0"`
	PassMarks float64 `json:"pass_marks" validate:"gte=0,ltefield=FullMarks"`
	Enabled   bool    `json:"is_enabled"`
}

// Configs maps component code to its config.
type Configs map[string]ComponentConfig

// Enabled returns only the codes offered in the exam.
func (c Configs) Enabled() Configs {
	out := make(Configs, len(c))
	for k, v := range c {
		if v.Enabled {
			out[k] = v
		}
	}
	return out
}

// Lookup returns the enabled config for code. Absent or disabled codes are
// not offered; full marks are never defaulted.
func (c Configs) Lookup(code string) (ComponentConfig, bool) {
	v, ok := c[code]
	if !ok || !v.Enabled {
		return ComponentConfig{}, false
	}
	return v, true
}

// NormalizeCode trims whitespace and leading zeros ("021" -> "21"). A code
// made only of zeros normalizes to "0".
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	trimmed := strings.TrimLeft(code, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// ByNormalizedCode indexes the enabled configs by NormalizeCode so spreadsheet
// codes and stored codes meet regardless of zero padding.
func (c Configs) ByNormalizedCode() map[string]ComponentConfig {
	out := make(map[string]ComponentConfig, len(c))
	for k, v := range c {
		if v.Enabled {
			out[NormalizeCode(k)] = v
		}
	}
	return out
}
