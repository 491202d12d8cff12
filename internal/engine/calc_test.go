// internal/engine/calc_test.go
package engine

import (
	"testing"

	"github.com/tessera-labs/reportrun/internal/types"
)

func rowsWithValues(values ...float64) []types.Record {
	rows := make([]types.Record, len(values))
	for i, v := range values {
		rows[i] = types.Record{"Actual": v, "Budget": v - 10}
	}
	return rows
}

func outputValues(rows []types.Record, field string) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = Number(r[field])
	}
	return out
}

func TestEvalExpr_LeftToRight(t *testing.T) {
	row := types.Record{"a": float64(2), "b": float64(3)}

	tests := []struct {
		expr string
		want float64
	}{
		{"a + b", 5},
		// No precedence: (2 + 3) * 10, not 2 + 30.
		{"a + b * 10", 50},
		{"a - b - 1", -2},
		{"a * b / 2", 3},
		{"missing + 5", 5},
		{"1,000 + a", 1002},
		{"a / 0", 0},
		{"", 0},
		{"a +", 2}, // trailing operator skipped
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := EvalExpr(tt.expr, row); got != tt.want {
				t.Errorf("EvalExpr(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestApplyCalculations_Arithmetic(t *testing.T) {
	rows := []types.Record{{"Actual": float64(120), "Budget": float64(100)}}
	calcs := []types.Calculation{{
		Type:        types.CalcArithmetic,
		OutputField: "Gap",
		Expression:  "Actual - Budget",
	}}

	got := ApplyCalculations(rows, calcs)
	if got[0]["Gap"] != float64(20) {
		t.Errorf("Gap = %v, want 20", got[0]["Gap"])
	}
	if _, ok := rows[0]["Gap"]; ok {
		t.Errorf("input rows were mutated")
	}
}

func TestApplyCalculations_Variance(t *testing.T) {
	rows := []types.Record{{"Actual": float64(120), "Budget": float64(100)}}
	calcs := []types.Calculation{{
		Type:        types.CalcVariance,
		OutputField: "Variance",
		Variance:    &types.VarianceConfig{MinuendField: "Actual", SubtrahendField: "Budget"},
	}}

	got := ApplyCalculations(rows, calcs)
	if got[0]["Variance"] != float64(20) {
		t.Errorf("Variance = %v, want 20", got[0]["Variance"])
	}
}

func TestApplyCalculations_VariancePctZeroSafety(t *testing.T) {
	rows := []types.Record{
		{"Actual": float64(120), "Budget": float64(100)},
		{"Actual": float64(50), "Budget": float64(0)},
	}
	calcs := []types.Calculation{{
		Type:        types.CalcVariancePct,
		OutputField: "VariancePct",
		Variance:    &types.VarianceConfig{MinuendField: "Actual", SubtrahendField: "Budget"},
	}}

	got := ApplyCalculations(rows, calcs)
	if got[0]["VariancePct"] != float64(20) {
		t.Errorf("VariancePct = %v, want 20", got[0]["VariancePct"])
	}
	// Subtrahend 0 yields exactly 0, never NaN or Inf.
	if got[1]["VariancePct"] != float64(0) {
		t.Errorf("VariancePct with zero subtrahend = %v, want 0", got[1]["VariancePct"])
	}
}

func TestApplyCalculations_PeriodDeltas(t *testing.T) {
	for _, calcType := range []types.CalcType{types.CalcMoM, types.CalcQoQ, types.CalcYoY, types.CalcFoF} {
		t.Run(string(calcType), func(t *testing.T) {
			rows := rowsWithValues(100, 120, 90)
			calcs := []types.Calculation{{
				Type:        calcType,
				OutputField: "Delta",
				Period:      &types.PeriodConfig{BaseField: "Actual"},
			}}

			got := outputValues(ApplyCalculations(rows, calcs), "Delta")
			want := []float64{0, 20, -30}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("Delta[%d] = %v, want %v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestApplyCalculations_Rolling(t *testing.T) {
	rows := rowsWithValues(10, 20, 30, 40)
	calcs := []types.Calculation{{
		Type:        types.CalcRolling,
		OutputField: "Rolling",
		Rolling:     &types.RollingConfig{BaseField: "Actual", Window: 2},
	}}

	got := outputValues(ApplyCalculations(rows, calcs), "Rolling")
	want := []float64{10, 30, 50, 70}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Rolling[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestApplyCalculations_RollingDefaultWindow(t *testing.T) {
	rows := rowsWithValues(10, 20, 30, 40)
	calcs := []types.Calculation{{
		Type:        types.CalcRolling,
		OutputField: "Rolling",
		Rolling:     &types.RollingConfig{BaseField: "Actual"},
	}}

	got := outputValues(ApplyCalculations(rows, calcs), "Rolling")
	// Default window 3.
	want := []float64{10, 30, 60, 90}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Rolling[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestApplyCalculations_YTD(t *testing.T) {
	rows := rowsWithValues(10, 20, 30)
	calcs := []types.Calculation{{
		Type:        types.CalcYTD,
		OutputField: "YTD",
		Cumulative:  &types.CumulativeConfig{BaseField: "Actual"},
	}}

	got := outputValues(ApplyCalculations(rows, calcs), "YTD")
	want := []float64{10, 30, 60}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("YTD[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestApplyCalculations_IfCase(t *testing.T) {
	rows := rowsWithValues(100, 20)
	calcs := []types.Calculation{{
		Type:        types.CalcIfCase,
		OutputField: "Status",
		Condition: &types.ConditionConfig{
			Field:        "Actual",
			Operator:     types.OpGte,
			CompareValue: float64(50),
			TrueValue:    "on track",
			FalseValue:   "behind",
		},
	}}

	got := ApplyCalculations(rows, calcs)
	if got[0]["Status"] != "on track" {
		t.Errorf("Status[0] = %v, want on track", got[0]["Status"])
	}
	if got[1]["Status"] != "behind" {
		t.Errorf("Status[1] = %v, want behind", got[1]["Status"])
	}
}

func TestApplyCalculations_RankDense(t *testing.T) {
	rows := rowsWithValues(100, 300, 100, 200)
	calcs := []types.Calculation{{
		Type:        types.CalcRank,
		OutputField: "Rank",
		Rank:        &types.RankConfig{Field: "Actual"},
	}}

	got := outputValues(ApplyCalculations(rows, calcs), "Rank")
	// Descending dense rank: 300 -> 1, 200 -> 2, 100 -> 3 (shared).
	want := []float64{3, 1, 3, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Rank[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestApplyCalculations_RankPermutation(t *testing.T) {
	rows := rowsWithValues(40, 10, 30, 20)
	calcs := []types.Calculation{{
		Type:        types.CalcRank,
		OutputField: "Rank",
		Rank:        &types.RankConfig{Field: "Actual"},
	}}

	got := outputValues(ApplyCalculations(rows, calcs), "Rank")
	seen := make(map[float64]bool)
	for _, r := range got {
		if r < 1 || r > 4 || seen[r] {
			t.Fatalf("ranks %v are not a permutation of 1..4", got)
		}
		seen[r] = true
	}
}

// Degrade paths: missing config and unknown types never abort the pipeline.
func TestApplyCalculations_Degrades(t *testing.T) {
	t.Run("numeric calc without config assigns 0", func(t *testing.T) {
		rows := rowsWithValues(100)
		calcs := []types.Calculation{{Type: types.CalcVariance, OutputField: "Variance"}}
		got := ApplyCalculations(rows, calcs)
		if got[0]["Variance"] != float64(0) {
			t.Errorf("Variance = %v, want 0", got[0]["Variance"])
		}
	})

	t.Run("if_case without config leaves rows unchanged", func(t *testing.T) {
		rows := rowsWithValues(100)
		calcs := []types.Calculation{{Type: types.CalcIfCase, OutputField: "Status"}}
		got := ApplyCalculations(rows, calcs)
		if _, ok := got[0]["Status"]; ok {
			t.Errorf("Status assigned despite missing config")
		}
	})

	t.Run("unknown type leaves rows unchanged", func(t *testing.T) {
		rows := rowsWithValues(100)
		calcs := []types.Calculation{{Type: "MEDIAN", OutputField: "Median"}}
		got := ApplyCalculations(rows, calcs)
		if _, ok := got[0]["Median"]; ok {
			t.Errorf("Median assigned despite unknown type")
		}
	})

	t.Run("non-numeric inputs coerce to 0", func(t *testing.T) {
		rows := []types.Record{{"Actual": "n/a", "Budget": float64(10)}}
		calcs := []types.Calculation{{
			Type:        types.CalcVariance,
			OutputField: "Variance",
			Variance:    &types.VarianceConfig{MinuendField: "Actual", SubtrahendField: "Budget"},
		}}
		got := ApplyCalculations(rows, calcs)
		if got[0]["Variance"] != float64(-10) {
			t.Errorf("Variance = %v, want -10", got[0]["Variance"])
		}
	})
}

// Later calculations read the output of earlier ones.
func TestApplyCalculations_DeclarationOrderChaining(t *testing.T) {
	rows := []types.Record{{"Actual": float64(120), "Budget": float64(100)}}
	calcs := []types.Calculation{
		{
			Type:        types.CalcVariance,
			OutputField: "Variance",
			Variance:    &types.VarianceConfig{MinuendField: "Actual", SubtrahendField: "Budget"},
		},
		{
			Type:        types.CalcArithmetic,
			OutputField: "DoubleVariance",
			Expression:  "Variance * 2",
		},
	}

	got := ApplyCalculations(rows, calcs)
	if got[0]["DoubleVariance"] != float64(40) {
		t.Errorf("DoubleVariance = %v, want 40", got[0]["DoubleVariance"])
	}
}
