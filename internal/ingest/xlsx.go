package ingest

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"heat_sequencing/internal/models"
)

// ReadXLSX parses the first worksheet of an Excel workbook. Cells are read with their display
// format, except date and time columns holding Excel serials, which are rewritten as
// 2006-01-02 (date), 15:04 (time of day) or "2006-01-02 15:04" (date and time).
func ReadXLSX(r io.Reader) ([]models.RawRow, []models.ValidationError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptySheet
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read raw sheet %q: %w", sheets[0], err)
	}
	if len(records) > 0 {
		normalizeSerials(records, raw, date1904(f))
	}
	return FromRecords(records)
}

func date1904(f *excelize.File) bool {
	props, err := f.GetWorkbookProps()
	if err != nil || props.Date1904 == nil {
		return false
	}
	return *props.Date1904
}

// normalizeSerials replaces display text of serial-valued date/time cells in records.
func normalizeSerials(records, raw [][]string, use1904 bool) {
	kinds := map[int]string{}
	for i, h := range records[0] {
		switch n := NormalizeHeader(h); n {
		case colDate, colStart, colEnd:
			kinds[i] = n
		}
	}
	for r := 1; r < len(records) && r < len(raw); r++ {
		for col, kind := range kinds {
			if col >= len(records[r]) || col >= len(raw[r]) {
				continue
			}
			if text, ok := serialText(raw[r][col], kind, use1904); ok {
				records[r][col] = text
			}
		}
	}
}

func serialText(rawValue, kind string, use1904 bool) (string, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
	if err != nil || serial < 0 || math.IsInf(serial, 0) || math.IsNaN(serial) {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, use1904)
	if err != nil {
		return "", false
	}
	t = t.Round(time.Second)
	switch {
	case kind == colDate:
		return t.Format("2006-01-02"), true
	case serial < 1:
		return clockText(t), true
	default:
		return t.Format("2006-01-02") + " " + clockText(t), true
	}
}

func clockText(t time.Time) string {
	if t.Second() != 0 {
		return t.Format("15:04:05")
	}
	return t.Format("15:04")
}
