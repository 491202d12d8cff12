// internal/engine/calc.go
package engine

import (
	"sort"

	"github.com/tessera-labs/reportrun/internal/types"
)

/*
 * Calculation pipeline over aggregated rows.
 *
 * Calculations apply strictly in declaration order; each one may read the
 * output field of any calculation declared earlier, never a later one.
 * Numeric types coerce missing or non-numeric inputs to 0 - a malformed
 * calculation degrades its output field rather than aborting the run.
 *
 * Degrade rules (each covered by a unit test):
 *   - numeric calculation with a missing config variant: output field set
 *     to 0 on every row
 *   - IF_CASE with a missing config variant: rows left unchanged
 *   - unknown calculation type: rows left unchanged
 *
 * Period calculations (MOM/QOQ/YOY/FOF) all delta against the row exactly
 * one position earlier in the current row order. They are aliases with
 * identical offset semantics; a calendar-aware implementation would bind
 * the offset to the granularity of an actual time field. Known fidelity
 * gap, recorded in DESIGN.md - the offset-1 behavior is load-bearing for
 * existing saved reports.
 */

// ApplyCalculations applies calcs in declaration order and returns derived
// rows. Input rows are cloned, never mutated.
func ApplyCalculations(rows []types.Record, calcs []types.Calculation) []types.Record {
	out := make([]types.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	for _, c := range calcs {
		applyCalculation(out, c)
	}
	return out
}

func applyCalculation(rows []types.Record, c types.Calculation) {
	switch c.Type {
	case types.CalcArithmetic:
		for _, row := range rows {
			row[c.OutputField] = EvalExpr(c.Expression, row)
		}

	case types.CalcVariance:
		if c.Variance == nil {
			assignZero(rows, c.OutputField)
			return
		}
		for _, row := range rows {
			row[c.OutputField] = NumberField(row, c.Variance.MinuendField) - NumberField(row, c.Variance.SubtrahendField)
		}

	case types.CalcVariancePct:
		if c.Variance == nil {
			assignZero(rows, c.OutputField)
			return
		}
		for _, row := range rows {
			minuend := NumberField(row, c.Variance.MinuendField)
			subtrahend := NumberField(row, c.Variance.SubtrahendField)
			if subtrahend == 0 {
				// Zero-safety: never NaN/Inf.
				row[c.OutputField] = float64(0)
				continue
			}
			row[c.OutputField] = (minuend - subtrahend) / subtrahend * 100
		}

	case types.CalcMoM, types.CalcQoQ, types.CalcYoY, types.CalcFoF:
		if c.Period == nil {
			assignZero(rows, c.OutputField)
			return
		}
		base := snapshot(rows, c.Period.BaseField)
		for i, row := range rows {
			if i < 1 {
				row[c.OutputField] = float64(0)
				continue
			}
			row[c.OutputField] = base[i] - base[i-1]
		}

	case types.CalcRolling:
		if c.Rolling == nil {
			assignZero(rows, c.OutputField)
			return
		}
		window := c.Rolling.Window
		if window <= 0 {
			window = 3
		}
		base := snapshot(rows, c.Rolling.BaseField)
		for i, row := range rows {
			var sum float64
			for j := i - window + 1; j <= i; j++ {
				if j >= 0 {
					sum += base[j]
				}
			}
			row[c.OutputField] = sum
		}

	case types.CalcYTD:
		if c.Cumulative == nil {
			assignZero(rows, c.OutputField)
			return
		}
		base := snapshot(rows, c.Cumulative.BaseField)
		var running float64
		for i, row := range rows {
			running += base[i]
			row[c.OutputField] = running
		}

	case types.CalcIfCase:
		if c.Condition == nil {
			return
		}
		cond := types.Filter{
			Field:    c.Condition.Field,
			Operator: c.Condition.Operator,
			Value:    c.Condition.CompareValue,
		}
		for _, row := range rows {
			if Matches(cond, row) {
				row[c.OutputField] = c.Condition.TrueValue
			} else {
				row[c.OutputField] = c.Condition.FalseValue
			}
		}

	case types.CalcRank:
		if c.Rank == nil {
			assignZero(rows, c.OutputField)
			return
		}
		applyRank(rows, c.Rank.Field, c.OutputField)

	default:
		// Unknown calculation type leaves rows unchanged.
	}
}

// applyRank assigns a dense 1-based rank by descending numeric value.
// Equal values share a rank; the next distinct value takes rank+1.
func applyRank(rows []types.Record, field, outputField string) {
	base := snapshot(rows, field)

	distinct := make([]float64, 0, len(base))
	seen := make(map[float64]struct{}, len(base))
	for _, v := range base {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			distinct = append(distinct, v)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(distinct)))

	rank := make(map[float64]float64, len(distinct))
	for i, v := range distinct {
		rank[v] = float64(i + 1)
	}
	for i, row := range rows {
		row[outputField] = rank[base[i]]
	}
}

// snapshot captures a field's numeric values before any assignment so a
// calculation whose output field shadows its base field still reads the
// pre-calculation values.
func snapshot(rows []types.Record, field string) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = NumberField(row, field)
	}
	return out
}

func assignZero(rows []types.Record, field string) {
	for _, row := range rows {
		row[field] = float64(0)
	}
}
