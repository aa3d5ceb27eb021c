package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/mindengage-results/internal/apperr"
)

// Workbook is an uploaded spreadsheet reduced to its first sheet.
type Workbook struct {
	FileName string
	Sheet    string
	Rows     [][]string
	Raw      []byte
}

var zipMagic = []byte("PK\x03\x04")

// ReadWorkbook parses data as xlsx when it carries a zip signature and as
// CSV otherwise. Only the first sheet is read.
func ReadWorkbook(fileName string, data []byte) (Workbook, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Workbook{}, apperr.Structural("empty file")
	}
	wb := Workbook{FileName: fileName, Raw: data}
	var err error
	if bytes.HasPrefix(data, zipMagic) {
		wb.Sheet, wb.Rows, err = readXLSX(data)
	} else {
		wb.Sheet = strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
		wb.Rows, err = readCSV(data)
	}
	if err != nil {
		return Workbook{}, apperr.Wrap(apperr.KindStructural, err, "unreadable workbook")
	}
	return wb, nil
}

func readXLSX(data []byte) (string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", nil, fmt.Errorf("sheet %q: %w", sheets[0], err)
	}
	return sheets[0], rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func normalizeHeader(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
