package models

// ErrorKind tags a ValidationError.
type ErrorKind string

const (
	KindUnit        ErrorKind = "UNIT"
	KindFormat      ErrorKind = "FORMAT"
	KindTime        ErrorKind = "TIME"
	KindRouting     ErrorKind = "ROUTING"
	KindPlaceholder ErrorKind = "PLACEHOLDER"
)

// Kinds lists every known kind in reporting order.
var Kinds = []ErrorKind{KindUnit, KindFormat, KindTime, KindRouting, KindPlaceholder}

// Fatal reports whether an error of this kind excludes its heat.
func (k ErrorKind) Fatal() bool {
	return k == KindFormat || k == KindRouting
}

// Valid reports whether k is one of the known kinds.
func (k ErrorKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ValidationError describes a row or heat problem found while reconciling a batch.
type ValidationError struct {
	HeatID   string    `json:"heat_id"`
	Kind     ErrorKind `json:"kind"`
	Unit     string    `json:"unit,omitempty"`
	Message  string    `json:"message"`
	RowIndex *int      `json:"row_index,omitempty"`
}

// Result is the output of one reconciliation pass.
type Result struct {
	ValidHeats []Heat            `json:"valid_heats"`
	Errors     []ValidationError `json:"errors"`
}
