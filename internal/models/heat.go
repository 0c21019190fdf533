package models

import "time"

// Operation is a resolved occurrence of a unit within a heat.
type Operation struct {
	Unit            string    `json:"unit"`
	Group           string    `json:"group"` // KR | BOF | LF | CASTER
	SequenceOrder   int       `json:"sequence_order"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_min"`
	IdleMinutes     int       `json:"idle_min"`
}

// Heat is the aggregate unit of validity: accepted or excluded as a whole.
type Heat struct {
	HeatID         string      `json:"heat_id"`
	SteelGrade     string      `json:"steel_grade"`
	Operations     []Operation `json:"operations"`
	IsComplete     bool        `json:"is_complete"`
	TotalDuration  int         `json:"total_duration_min"`
	TotalIdle      int         `json:"total_idle_min"`
	CastingUnit    string      `json:"casting_unit,omitempty"`
	CasterSequence int         `json:"caster_sequence,omitempty"` // 1-based, 0 = none
	ProductionDay  string      `json:"production_day,omitempty"`  // YYYY-MM-DD
}

// CasterOperation returns the heat's casting operation, if any.
func (h Heat) CasterOperation() (Operation, bool) {
	for _, op := range h.Operations {
		if op.Group == GroupCaster {
			return op, true
		}
	}
	return Operation{}, false
}

// Process groups.
const (
	GroupKR     = "KR"
	GroupBOF    = "BOF"
	GroupLF     = "LF"
	GroupCaster = "CASTER"
)
