package reconcile

import (
	"cmp"
	"slices"

	"heat_sequencing/internal/models"
)

// rowCompare is one link of the resolution-order chain. Zero means "undecided, ask the next link".
type rowCompare func(a, b models.RawRow) int

// resolutionChain orders rows by explicit sequence number, then by start clock, then by sheet row.
// Rows lacking a key sort after rows that have it, which keeps the chain transitive.
var resolutionChain = []rowCompare{
	bySequenceNumber,
	byStartClock,
	byRawIndex,
}

func bySequenceNumber(a, b models.RawRow) int {
	switch {
	case a.SeqNum != nil && b.SeqNum != nil:
		return cmp.Compare(*a.SeqNum, *b.SeqNum)
	case a.SeqNum != nil:
		return -1
	case b.SeqNum != nil:
		return 1
	}
	return 0
}

// byStartClock compares start text numerically. Starts that carry their own date sort first,
// by full timestamp; bare clocks compare by time of day only.
func byStartClock(a, b models.RawRow) int {
	ca, errA := parseClock(a.StartStr)
	cb, errB := parseClock(b.StartStr)
	switch {
	case errA == nil && errB == nil:
		return compareClocks(ca, cb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return 0
}

func compareClocks(a, b clock) int {
	datedA, datedB := !a.date.IsZero(), !b.date.IsZero()
	switch {
	case datedA && datedB:
		if c := a.date.Compare(b.date); c != 0 {
			return c
		}
	case datedA:
		return -1
	case datedB:
		return 1
	}
	return cmp.Compare(a.seconds(), b.seconds())
}

func byRawIndex(a, b models.RawRow) int {
	return cmp.Compare(a.RawIndex, b.RawIndex)
}

func compareRows(a, b models.RawRow) int {
	for _, c := range resolutionChain {
		if r := c(a, b); r != 0 {
			return r
		}
	}
	return 0
}

// ResolutionOrder returns a copy of rows in the order times are resolved in.
// The final order of a heat's operations is re-derived from resolved start times.
func ResolutionOrder(rows []models.RawRow) []models.RawRow {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, compareRows)
	return out
}
