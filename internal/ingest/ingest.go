// Package ingest normalizes uploaded sheets into raw operation rows.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"heat_sequencing/internal/models"
)

var (
	ErrEmptySheet        = errors.New("sheet is empty or has no data rows")
	ErrMissingColumns    = errors.New("missing required columns")
	ErrUnsupportedFormat = errors.New("unsupported file format; use .csv or .xlsx")
)

const (
	msgNoHeatID    = "row has no heat id; skipped"
	msgPlaceholder = "placeholder row (unit '0' or 0:00 times); skipped"
)

// normalized header -> field
const (
	colDate     = "date"
	colHeatID   = "heatid"
	colGrade    = "steelgrade"
	colUnit     = "unit"
	colStart    = "starttime"
	colEnd      = "endtime"
	colSequence = "sequencenumber"
)

var requiredColumns = []string{colHeatID, colGrade, colUnit, colStart, colEnd}

// sheetRow is one data line with its 1-based position in the source sheet.
type sheetRow struct {
	line  int
	cells []string
}

// NormalizeHeader lower-cases a header and strips spaces and underscores.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", "")
	return strings.Join(strings.Fields(h), "")
}

// FromRecords converts a header-first table into raw rows. Record i is sheet row i+1.
func FromRecords(records [][]string) ([]models.RawRow, []models.ValidationError, error) {
	if len(records) < 2 {
		return nil, nil, ErrEmptySheet
	}
	rows := make([]sheetRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		rows = append(rows, sheetRow{line: i + 2, cells: rec})
	}
	return fromSheet(records[0], rows)
}

func fromSheet(header []string, data []sheetRow) ([]models.RawRow, []models.ValidationError, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := NormalizeHeader(h)
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	var (
		rows     []models.RawRow
		warnings []models.ValidationError
	)
	for _, sr := range data {
		if blank(sr.cells) {
			continue
		}
		cell := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(sr.cells) {
				return ""
			}
			return strings.TrimSpace(sr.cells[i])
		}
		r := models.RawRow{
			HeatID:     cell(colHeatID),
			SteelGrade: cell(colGrade),
			Unit:       cell(colUnit),
			DateStr:    cell(colDate),
			StartStr:   cell(colStart),
			EndStr:     cell(colEnd),
			SeqNum:     parseSequence(cell(colSequence)),
			RawIndex:   sr.line,
		}
		line := sr.line
		switch {
		case r.HeatID == "":
			warnings = append(warnings, models.ValidationError{
				HeatID: fmt.Sprintf("row %d", line), Kind: models.KindPlaceholder,
				Unit: r.Unit, Message: msgNoHeatID, RowIndex: &line,
			})
		case isPlaceholder(r):
			warnings = append(warnings, models.ValidationError{
				HeatID: r.HeatID, Kind: models.KindPlaceholder,
				Unit: r.Unit, Message: msgPlaceholder, RowIndex: &line,
			})
		default:
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 && len(warnings) == 0 {
		return nil, nil, ErrEmptySheet
	}
	return rows, warnings, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isPlaceholder(r models.RawRow) bool {
	return r.Unit == "0" || (isZeroClock(r.StartStr) && isZeroClock(r.EndStr))
}

func isZeroClock(s string) bool {
	switch s {
	case "0:00", "00:00", "0:00:00", "00:00:00":
		return true
	}
	return false
}

// parseSequence accepts integers and integral floats ("3", "3.0"); anything else is absent.
func parseSequence(s string) *int {
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return nil
	}
	n := int(f)
	return &n
}

// Read picks a reader by file extension.
func Read(name string, r io.Reader) ([]models.RawRow, []models.ValidationError, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx":
		return ReadXLSX(r)
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}
