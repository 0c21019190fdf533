package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"heat_sequencing/internal/models"
)

// ReadCSV parses a comma-separated sheet. Row numbers follow source lines,
// so blank lines the csv reader skips still count.
func ReadCSV(r io.Reader) ([]models.RawRow, []models.ValidationError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptySheet
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	header = stripBOM(header)

	var data []sheetRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		data = append(data, sheetRow{line: line, cells: rec})
	}
	if len(data) == 0 {
		return nil, nil, ErrEmptySheet
	}
	return fromSheet(header, data)
}

func stripBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header
}
