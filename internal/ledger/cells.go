package ledger

import "strings"

// Cell is one typed value read from a grid row.
type Cell interface{ isCell() }

type IdentityCell struct {
	Role  role
	Col   int
	Value string
}

// CompulsoryMarkCell is a mark under a compulsory column, already mapped to
// its subject's canonical component code.
type CompulsoryMarkCell struct {
	Col  int
	Code string
	Raw  string
}

// OptionalCodeCell holds the subject code a user typed into an optional pair.
type OptionalCodeCell struct {
	Pair int
	Col  int
	Raw  string
}

type OptionalMarkCell struct {
	Pair int
	Col  int
	Raw  string
}

func (IdentityCell) isCell()       {}
func (CompulsoryMarkCell) isCell() {}
func (OptionalCodeCell) isCell()   {}
func (OptionalMarkCell) isCell()   {}

// gridRow is a non-blank data row. Row is the 1-based sheet row.
type gridRow struct {
	Row   int
	Cells []Cell
}

func (r gridRow) identity(want role) string {
	for _, c := range r.Cells {
		if id, ok := c.(IdentityCell); ok && id.Role == want {
			return id.Value
		}
	}
	return ""
}

// hasData reports whether the row carries a name or any mark/code cell.
func (r gridRow) hasData() bool {
	for _, c := range r.Cells {
		switch v := c.(type) {
		case IdentityCell:
			if v.Role == roleName {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// parseGrid types every data row below the sub-header. Compulsory columns
// beyond len(codes) are dropped here.
func parseGrid(rows [][]string, l gridLayout, codes []string) []gridRow {
	var out []gridRow
	for i := l.HeaderRow + 2; i < len(rows); i++ {
		row := rows[i]
		r := gridRow{Row: i + 1}
		for _, id := range []role{roleSymbol, roleReg, roleDOB, roleName} {
			col := l.col(id)
			if v := cellAt(row, col); col >= 0 && v != "" {
				r.Cells = append(r.Cells, IdentityCell{Role: id, Col: col, Value: v})
			}
		}
		for n, col := range l.Compulsory {
			if n >= len(codes) {
				break
			}
			if v := gridValue(row, col); v != "" {
				r.Cells = append(r.Cells, CompulsoryMarkCell{Col: col, Code: codes[n], Raw: v})
			}
		}
		for n, p := range l.Optional {
			if v := gridValue(row, p.CodeCol); v != "" {
				r.Cells = append(r.Cells, OptionalCodeCell{Pair: n, Col: p.CodeCol, Raw: v})
			}
			if v := gridValue(row, p.MarkCol); v != "" {
				r.Cells = append(r.Cells, OptionalMarkCell{Pair: n, Col: p.MarkCol, Raw: v})
			}
		}
		if !r.hasData() || isFullMarksRow(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// placeholders are filler values typed into otherwise empty ledger cells.
var placeholders = map[string]bool{"-": true, "--": true, "n/a": true}

// gridValue is cellAt with placeholders read as empty.
func gridValue(row []string, col int) string {
	v := cellAt(row, col)
	if placeholders[strings.ToLower(v)] {
		return ""
	}
	return v
}

// isFullMarksRow matches the template's pre-filled full marks row.
func isFullMarksRow(r gridRow) bool {
	return r.identity(roleSymbol) == "" && strings.Contains(strings.ToLower(r.identity(roleName)), "full marks")
}

// tabularRow is one row of a tabular sheet.
type tabularRow struct {
	Row    int
	Symbol string
	Code   string
	Marks  string
	Absent string
}

type tabularField string

const (
	fieldSymbol tabularField = "symbol_no"
	fieldCode   tabularField = "component_code"
	fieldMarks  tabularField = "marks_obtained"
	fieldAbsent tabularField = "is_absent"
)

var tabularSchema = []struct {
	field    tabularField
	aliases  []string
	required bool
}{
	{fieldSymbol, []string{"symbol_no", "symbol", "symbol_number"}, true},
	{fieldCode, []string{"component_code", "code"}, true},
	{fieldMarks, []string{"marks_obtained", "marks"}, false},
	{fieldAbsent, []string{"is_absent", "absent"}, false},
}

// parseTabular reads the first non-blank row as the field header.
func parseTabular(rows [][]string) ([]tabularRow, error) {
	h := 0
	for h < len(rows) && blank(rows[h]) {
		h++
	}
	if h == len(rows) {
		return nil, errMissingHeader("sheet has no header row")
	}
	idx := map[string]int{}
	for i, c := range rows[h] {
		key := strings.ReplaceAll(normalizeHeader(c), " ", "_")
		if _, dup := idx[key]; !dup && key != "" {
			idx[key] = i
		}
	}
	cols := map[tabularField]int{}
	for _, f := range tabularSchema {
		cols[f.field] = -1
		for _, a := range f.aliases {
			if i, ok := idx[a]; ok {
				cols[f.field] = i
				break
			}
		}
		if cols[f.field] < 0 && f.required {
			return nil, errMissingHeader("tabular sheet has no " + string(f.field) + " column")
		}
	}

	var out []tabularRow
	for i := h + 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		out = append(out, tabularRow{
			Row:    i + 1,
			Symbol: cellAt(row, cols[fieldSymbol]),
			Code:   cellAt(row, cols[fieldCode]),
			Marks:  cellAt(row, cols[fieldMarks]),
			Absent: cellAt(row, cols[fieldAbsent]),
		})
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
