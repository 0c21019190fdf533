package reconcile

import (
	"slices"
	"strings"
	"time"

	"heat_sequencing/internal/models"
)

// DefaultProductionDayStart is the hour a production day begins at.
const DefaultProductionDayStart = 8 * time.Hour

const dayLayout = "2006-01-02"

// ProductionDay returns the production day t belongs to. Times before dayStart
// count toward the previous calendar day.
func ProductionDay(t time.Time, dayStart time.Duration) string {
	return t.UTC().Add(-dayStart).Format(dayLayout)
}

type casterKey struct {
	unit string
	day  string
}

// AssignCasterSequences numbers accepted heats 1, 2, 3, ... per casting unit and production day,
// ordered by the start of their caster operation. Heats without a caster are left untouched.
func AssignCasterSequences(heats []models.Heat, dayStart time.Duration) {
	groups := make(map[casterKey][]int)
	var keys []casterKey
	for i := range heats {
		op, ok := heats[i].CasterOperation()
		if !ok {
			continue
		}
		k := casterKey{unit: strings.ToUpper(op.Unit), day: ProductionDay(op.StartTime, dayStart)}
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], i)
		heats[i].ProductionDay = k.day
	}

	for _, k := range keys {
		idx := groups[k]
		slices.SortStableFunc(idx, func(a, b int) int {
			oa, _ := heats[a].CasterOperation()
			ob, _ := heats[b].CasterOperation()
			return oa.StartTime.Compare(ob.StartTime)
		})
		for seq, i := range idx {
			heats[i].CasterSequence = seq + 1
		}
	}
}
