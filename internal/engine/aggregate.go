// internal/engine/aggregate.go
package engine

import (
	"strings"

	"github.com/tessera-labs/reportrun/internal/types"
)

/*
 * Grouping and aggregation.
 *
 * The group key is the string coercion of every row+column dimension value,
 * in declared order, joined by a reserved multi-character separator. One
 * output row is produced per distinct key, in first-seen order, so identical
 * inputs always yield identical output ordering before any sort applies.
 *
 * Each ValueSpec folds the numeric coercion of its source field across the
 * group's member records and lands on the output row under its Label - the
 * label namespace is what calculations and chart bindings reference.
 *
 * distinct_count counts distinct coerced numeric values, so two different
 * strings that coerce to the same number collapse into one. Preserved from
 * the original semantics; flagged in DESIGN.md.
 */

// groupKeySep joins group key parts. Control characters keep user-visible
// field values from colliding with the separator.
const groupKeySep = "\x1f|\x1f"

// Aggregate pivots rows into one output row per distinct combination of
// dimension values. Output rows carry each dimension field (first member's
// value) plus each ValueSpec aggregated under its label.
func Aggregate(rows []types.Record, dims []string, values []types.ValueSpec) []types.Record {
	order := make([]string, 0)
	groups := make(map[string][]types.Record)

	for _, rec := range rows {
		parts := make([]string, len(dims))
		for i, d := range dims {
			parts[i] = Text(rec[d])
		}
		key := strings.Join(parts, groupKeySep)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}

	out := make([]types.Record, 0, len(order))
	for _, key := range order {
		members := groups[key]
		row := make(types.Record, len(dims)+len(values))
		for _, d := range dims {
			row[d] = members[0][d]
		}
		for _, vs := range values {
			row[vs.Label] = fold(vs.Aggregation, members, vs.Field)
		}
		out = append(out, row)
	}
	return out
}

// fold reduces one measure over a group's member records. Aggregation is a
// pure function of the member set: identical inputs produce identical
// scalars. Empty inputs fold to 0 (never NaN), though grouping can only
// produce non-empty groups.
func fold(agg types.Aggregation, members []types.Record, field string) float64 {
	switch agg {
	case types.AggCount:
		// Counts tuples, not field presence.
		return float64(len(members))
	case types.AggDistinctCount:
		seen := make(map[float64]struct{}, len(members))
		for _, m := range members {
			seen[NumberField(m, field)] = struct{}{}
		}
		return float64(len(seen))
	case types.AggAvg:
		if len(members) == 0 {
			return 0
		}
		return fold(types.AggSum, members, field) / float64(len(members))
	case types.AggMin:
		var min float64
		for i, m := range members {
			v := NumberField(m, field)
			if i == 0 || v < min {
				min = v
			}
		}
		return min
	case types.AggMax:
		var max float64
		for i, m := range members {
			v := NumberField(m, field)
			if i == 0 || v > max {
				max = v
			}
		}
		return max
	default:
		// sum, and the degrade path for unrecognized aggregations.
		var total float64
		for _, m := range members {
			total += NumberField(m, field)
		}
		return total
	}
}
