// internal/engine/filter.go
package engine

import (
	"strings"

	"github.com/tessera-labs/reportrun/internal/types"
)

/*
 * Filter predicate evaluation.
 *
 * Evaluates one Filter against one Record. Operators:
 *   - eq/neq: equality over the Comparable projection
 *   - contains: case-insensitive substring match on string-coerced values
 *   - in: case-insensitive membership; accepts an array or a comma-separated
 *     string of values
 *   - gt/gte/lt/lte: numeric coercion of both operands
 *   - between: inclusive numeric range over exactly two bounds
 *
 * Permissive fallbacks (deliberate non-failure defaults, covered by tests):
 *   - between with fewer than two bounds passes the record through
 *   - an unknown operator passes the record through
 * A malformed filter widens the result set instead of aborting the run.
 *
 * Why function-based: one switch over nine operators is cleaner than nine
 * single-method implementations with minimal behavior variation.
 */

// Matches evaluates a single filter against a record.
func Matches(f types.Filter, rec types.Record) bool {
	v := rec[f.Field]

	switch f.Operator {
	case types.OpEq:
		return Comparable(v) == Comparable(f.Value)
	case types.OpNeq:
		return Comparable(v) != Comparable(f.Value)
	case types.OpContains:
		return strings.Contains(strings.ToLower(Text(v)), strings.ToLower(Text(f.Value)))
	case types.OpIn:
		for _, member := range valueList(f.Value) {
			if Comparable(v) == Comparable(member) {
				return true
			}
		}
		return false
	case types.OpGt:
		return Number(v) > Number(f.Value)
	case types.OpGte:
		return Number(v) >= Number(f.Value)
	case types.OpLt:
		return Number(v) < Number(f.Value)
	case types.OpLte:
		return Number(v) <= Number(f.Value)
	case types.OpBetween:
		bounds := valueList(f.Value)
		if len(bounds) < 2 {
			// Malformed bounds pass through rather than failing the run.
			return true
		}
		x := Number(v)
		return x >= Number(bounds[0]) && x <= Number(bounds[1])
	default:
		// Unknown operator passes through rather than failing the run.
		return true
	}
}

// MatchesAll reports whether a record passes every filter. Filters are
// AND-combined; an empty filter set passes everything.
func MatchesAll(filters []types.Filter, rec types.Record) bool {
	for _, f := range filters {
		if !Matches(f, rec) {
			return false
		}
	}
	return true
}

// FilterRows returns the records passing all filters, preserving input order.
func FilterRows(rows []types.Record, filters []types.Filter) []types.Record {
	if len(filters) == 0 {
		return rows
	}
	out := make([]types.Record, 0, len(rows))
	for _, rec := range rows {
		if MatchesAll(filters, rec) {
			out = append(out, rec)
		}
	}
	return out
}

// valueList normalizes a filter value into a list of candidate values.
// Arrays pass through element-wise; strings split on commas (trimmed);
// any other scalar is a single-element list.
func valueList(v any) []any {
	switch vv := v.(type) {
	case nil:
		return nil
	case []any:
		return vv
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out
	case []float64:
		out := make([]any, len(vv))
		for i, f := range vv {
			out[i] = f
		}
		return out
	case string:
		parts := strings.Split(vv, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	default:
		return []any{v}
	}
}
