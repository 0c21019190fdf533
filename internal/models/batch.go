package models

import "time"

// Batch is one reconciled upload together with its outcome.
type Batch struct {
	ID            string            `json:"id"`
	SourceName    string            `json:"source_name"`
	ReceivedAt    time.Time         `json:"received_at"`
	RowCount      int               `json:"row_count"`
	HeatCount     int               `json:"heat_count"`     // accepted heats
	ExcludedCount int               `json:"excluded_count"` // heats dropped by a fatal error
	ArchiveKey    string            `json:"archive_key,omitempty"`
	Heats         []Heat            `json:"heats"`
	Errors        []ValidationError `json:"errors"`
}

// BatchSummary is the listing view of a Batch.
type BatchSummary struct {
	ID            string            `json:"id"`
	SourceName    string            `json:"source_name"`
	ReceivedAt    time.Time         `json:"received_at"`
	RowCount      int               `json:"row_count"`
	HeatCount     int               `json:"heat_count"`
	ExcludedCount int               `json:"excluded_count"`
	ArchiveKey    string            `json:"archive_key,omitempty"`
	ErrorCounts   map[ErrorKind]int `json:"error_counts,omitempty"`
}

// Summary drops the heat and error payloads and counts errors per kind.
func (b Batch) Summary() BatchSummary {
	s := BatchSummary{
		ID:            b.ID,
		SourceName:    b.SourceName,
		ReceivedAt:    b.ReceivedAt,
		RowCount:      b.RowCount,
		HeatCount:     b.HeatCount,
		ExcludedCount: b.ExcludedCount,
		ArchiveKey:    b.ArchiveKey,
	}
	if len(b.Errors) > 0 {
		s.ErrorCounts = make(map[ErrorKind]int)
		for _, e := range b.Errors {
			s.ErrorCounts[e.Kind]++
		}
	}
	return s
}
