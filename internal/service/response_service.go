package service

import "time"

// UploadParams is one uploaded production sheet.
type UploadParams struct {
	Filename    string // extension picks the reader: .csv or .xlsx
	ContentType string
	Content     []byte
}

// BatchFilter narrows batch listings by receive time.
type BatchFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
}

// ErrorFilter selects the errors of one batch.
type ErrorFilter struct {
	BatchID string
	Kind    string // "", "UNIT", "FORMAT", "TIME", "ROUTING", "PLACEHOLDER"
}
