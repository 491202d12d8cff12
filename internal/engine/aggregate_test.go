// internal/engine/aggregate_test.go
package engine

import (
	"testing"

	"github.com/tessera-labs/reportrun/internal/types"
)

func salesRows() []types.Record {
	return []types.Record{
		{"region": "East", "product": "A", "sales": float64(100)},
		{"region": "West", "product": "A", "sales": float64(300)},
		{"region": "East", "product": "B", "sales": float64(50)},
		{"region": "West", "product": "B", "sales": float64(150)},
	}
}

func TestAggregate_SumByRegion(t *testing.T) {
	got := Aggregate(salesRows(), []string{"region"}, []types.ValueSpec{
		{Field: "sales", Label: "Sales", Aggregation: types.AggSum},
	})

	if len(got) != 2 {
		t.Fatalf("got %d groups, want 2", len(got))
	}
	// First-seen order: East before West.
	if got[0]["region"] != "East" || got[0]["Sales"] != float64(150) {
		t.Errorf("group 0 = %v, want East/150", got[0])
	}
	if got[1]["region"] != "West" || got[1]["Sales"] != float64(450) {
		t.Errorf("group 1 = %v, want West/450", got[1])
	}
}

func TestAggregate_AllAggregations(t *testing.T) {
	rows := []types.Record{
		{"region": "East", "sales": float64(100)},
		{"region": "East", "sales": float64(300)},
		{"region": "East", "sales": float64(100)},
	}

	tests := []struct {
		agg  types.Aggregation
		want float64
	}{
		{types.AggSum, 500},
		{types.AggAvg, 500.0 / 3.0},
		{types.AggMin, 100},
		{types.AggMax, 300},
		{types.AggCount, 3},
		{types.AggDistinctCount, 2},
		// Unrecognized aggregations degrade to sum.
		{"median", 500},
	}

	for _, tt := range tests {
		t.Run(string(tt.agg), func(t *testing.T) {
			got := Aggregate(rows, []string{"region"}, []types.ValueSpec{
				{Field: "sales", Label: "Sales", Aggregation: tt.agg},
			})
			if len(got) != 1 {
				t.Fatalf("got %d groups, want 1", len(got))
			}
			if got[0]["Sales"] != tt.want {
				t.Errorf("Sales = %v, want %v", got[0]["Sales"], tt.want)
			}
		})
	}
}

func TestAggregate_MultipleDimensions(t *testing.T) {
	got := Aggregate(salesRows(), []string{"region", "product"}, []types.ValueSpec{
		{Field: "sales", Label: "Sales", Aggregation: types.AggSum},
	})

	if len(got) != 4 {
		t.Fatalf("got %d groups, want 4", len(got))
	}
	if got[0]["region"] != "East" || got[0]["product"] != "A" || got[0]["Sales"] != float64(100) {
		t.Errorf("group 0 = %v, want East/A/100", got[0])
	}
}

func TestAggregate_CountMissingField(t *testing.T) {
	// count counts tuples regardless of field presence.
	rows := []types.Record{
		{"region": "East", "sales": float64(100)},
		{"region": "East"},
	}
	got := Aggregate(rows, []string{"region"}, []types.ValueSpec{
		{Field: "sales", Label: "Orders", Aggregation: types.AggCount},
	})
	if got[0]["Orders"] != float64(2) {
		t.Errorf("Orders = %v, want 2", got[0]["Orders"])
	}
}

func TestAggregate_DistinctCountCoercedCollapse(t *testing.T) {
	// "1.0" and "1" coerce to the same number and collapse to one value.
	rows := []types.Record{
		{"region": "East", "code": "1.0"},
		{"region": "East", "code": "1"},
		{"region": "East", "code": "2"},
	}
	got := Aggregate(rows, []string{"region"}, []types.ValueSpec{
		{Field: "code", Label: "Codes", Aggregation: types.AggDistinctCount},
	})
	if got[0]["Codes"] != float64(2) {
		t.Errorf("Codes = %v, want 2", got[0]["Codes"])
	}
}

func TestAggregate_NoDimensionsSingleGroup(t *testing.T) {
	got := Aggregate(salesRows(), nil, []types.ValueSpec{
		{Field: "sales", Label: "Sales", Aggregation: types.AggSum},
	})
	if len(got) != 1 {
		t.Fatalf("got %d groups, want 1", len(got))
	}
	if got[0]["Sales"] != float64(600) {
		t.Errorf("Sales = %v, want 600", got[0]["Sales"])
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	got := Aggregate(nil, []string{"region"}, []types.ValueSpec{
		{Field: "sales", Label: "Sales", Aggregation: types.AggSum},
	})
	if len(got) != 0 {
		t.Errorf("got %d groups, want 0", len(got))
	}
}
