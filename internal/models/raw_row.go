package models

// RawRow is one reported operation occurrence as produced by the sheet normalizer.
type RawRow struct {
	HeatID     string `json:"heat_id"`
	SteelGrade string `json:"steel_grade"`
	Unit       string `json:"unit"`
	DateStr    string `json:"date,omitempty"` // optional calendar date, e.g. 2025-03-14
	StartStr   string `json:"start_time"`     // H:MM or HH:MM, optional :SS
	EndStr     string `json:"end_time"`
	SeqNum     *int   `json:"sequence_number,omitempty"`
	RawIndex   int    `json:"raw_index"` // 1-based sheet row, header is row 1
}
