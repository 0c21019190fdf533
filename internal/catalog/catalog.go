package catalog

import (
	"strings"

	"heat_sequencing/internal/models"
)

// Entry is the static routing information for one unit code.
type Entry struct {
	Group string
	Order int
}

// Catalog maps unit codes to their process group and default order.
// It is immutable once built; share it freely between batches.
type Catalog struct {
	entries map[string]Entry
}

// New builds a catalog from entries. Codes are upper-cased and trimmed.
func New(entries map[string]Entry) Catalog {
	m := make(map[string]Entry, len(entries))
	for code, e := range entries {
		m[normalizeCode(code)] = e
	}
	return Catalog{entries: m}
}

// Default returns the plant's unit table.
func Default() Catalog {
	return New(map[string]Entry{
		"KR1":  {Group: models.GroupKR, Order: 1},
		"KR2":  {Group: models.GroupKR, Order: 1},
		"BOF1": {Group: models.GroupBOF, Order: 2},
		"BOF2": {Group: models.GroupBOF, Order: 2},
		"BOF3": {Group: models.GroupBOF, Order: 2},
		"BOF4": {Group: models.GroupBOF, Order: 2},
		"BOF5": {Group: models.GroupBOF, Order: 2},
		"LF1":  {Group: models.GroupLF, Order: 3},
		"LF2":  {Group: models.GroupLF, Order: 3},
		"LF3":  {Group: models.GroupLF, Order: 3},
		"LF4":  {Group: models.GroupLF, Order: 3},
		"LF5":  {Group: models.GroupLF, Order: 3},
		"BCM1": {Group: models.GroupCaster, Order: 4},
		"TSC1": {Group: models.GroupCaster, Order: 4},
		"TSC2": {Group: models.GroupCaster, Order: 4},
	})
}

// Resolve looks up a unit code case-insensitively.
func (c Catalog) Resolve(code string) (Entry, bool) {
	e, ok := c.entries[normalizeCode(code)]
	return e, ok
}

// Len returns the number of known units.
func (c Catalog) Len() int { return len(c.entries) }

// Units returns the known unit codes of a group.
func (c Catalog) Units(group string) []string {
	var out []string
	for code, e := range c.entries {
		if e.Group == group {
			out = append(out, code)
		}
	}
	return out
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// knownGroup reports whether g is a process group the routing rules understand.
func knownGroup(g string) bool {
	switch g {
	case models.GroupKR, models.GroupBOF, models.GroupLF, models.GroupCaster:
		return true
	}
	return false
}
