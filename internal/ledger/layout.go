package ledger

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/mindengage-results/internal/apperr"
)

// Shape names the detected layout of a sheet.
type Shape string

const (
	ShapeTabular Shape = "tabular"
	ShapeGrid    Shape = "grid"
)

type role string

const (
	roleSymbol role = "symbol"
	roleReg    role = "registration"
	roleDOB    role = "dob"
	roleName   role = "name"
)

type columnRule struct {
	role     role
	token    string
	required bool
}

// gridSchema is matched in order. Identity roles other than name are only
// looked for left of the name column.
var gridSchema = []columnRule{
	{role: roleName, token: "name", required: true},
	{role: roleSymbol, token: "symbol", required: true},
	{role: roleReg, token: "reg"},
	{role: roleDOB, token: "dob"},
}

// terminators end the compulsory run.
var terminators = []string{"opt", "grand total", "attendance"}

type optionalPair struct {
	Label   string
	CodeCol int
	MarkCol int
}

// gridLayout is the column map of a grid ledger.
type gridLayout struct {
	HeaderRow  int
	Identity   map[role]int
	Compulsory []int
	Optional   []optionalPair
	headers    []string
}

func (l gridLayout) col(r role) int {
	if c, ok := l.Identity[r]; ok {
		return c
	}
	return -1
}

func (l gridLayout) label(col int) string {
	if col >= 0 && col < len(l.headers) && l.headers[col] != "" {
		return l.headers[col]
	}
	return columnName(col)
}

// detectHeader returns the index of the first row carrying both a "symbol"
// and a "name" cell.
func detectHeader(rows [][]string) (int, bool) {
	for i, row := range rows {
		var sym, name bool
		for _, c := range row {
			h := normalizeHeader(c)
			sym = sym || strings.Contains(h, "symbol")
			name = name || strings.Contains(h, "name")
		}
		if sym && name {
			return i, true
		}
	}
	return -1, false
}

// resolveLayout validates the header and sub-header row against gridSchema.
func resolveLayout(headerRow int, header, sub []string) (gridLayout, error) {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = normalizeHeader(h)
	}
	l := gridLayout{HeaderRow: headerRow, Identity: map[role]int{}, headers: make([]string, len(header))}
	for i, h := range header {
		l.headers[i] = strings.TrimSpace(h)
	}

	for _, rule := range gridSchema {
		limit := len(norm)
		if rule.role != roleName {
			limit = l.col(roleName)
		}
		col := matchColumn(norm[:limit], rule, sub)
		if col < 0 {
			if rule.required {
				return gridLayout{}, apperr.Structural("ledger header has no %s column", rule.role)
			}
			continue
		}
		l.Identity[rule.role] = col
	}

	nameCol := l.col(roleName)
	i := nameCol + 1
	for ; i < len(norm); i++ {
		if norm[i] == "" || isTerminator(norm[i]) {
			break
		}
		l.Compulsory = append(l.Compulsory, i)
	}
	for ; i < len(norm); i++ {
		if strings.Contains(norm[i], "opt") {
			l.Optional = append(l.Optional, optionalPair{Label: l.headers[i], CodeCol: i, MarkCol: i + 1})
			i++
		}
	}
	return l, nil
}

func matchColumn(norm []string, rule columnRule, sub []string) int {
	first := -1
	for i, h := range norm {
		if !strings.Contains(h, rule.token) {
			continue
		}
		if rule.role != roleDOB {
			return i
		}
		if first < 0 {
			first = i
		}
		if strings.EqualFold(cellAt(sub, i), "AD") {
			return i
		}
	}
	return first
}

func isTerminator(h string) bool {
	for _, t := range terminators {
		if strings.Contains(h, t) {
			return true
		}
	}
	return false
}

// columnName renders a zero-based column index as a spreadsheet letter.
func columnName(col int) string {
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return fmt.Sprintf("#%d", col+1)
	}
	return name
}
