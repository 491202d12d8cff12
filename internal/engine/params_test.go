// internal/engine/params_test.go
package engine

import (
	"testing"

	"github.com/tessera-labs/reportrun/internal/types"
)

func TestSubstituteParams(t *testing.T) {
	params := map[string]string{"region": "East", "quarter": "Q3"}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"plain placeholder", "{{region}}", "East"},
		{"placeholder with spaces", "{{ region }}", "East"},
		{"embedded placeholder", "fy26-{{quarter}}", "fy26-Q3"},
		{"two placeholders", "{{region}}-{{quarter}}", "East-Q3"},
		{"unbound resolves empty", "{{nope}}", ""},
		{"non-string untouched", float64(42), float64(42)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SubstituteParams([]types.Filter{{Field: "f", Operator: types.OpEq, Value: tt.in}}, params)
			if got[0].Value != tt.want {
				t.Errorf("Value = %v, want %v", got[0].Value, tt.want)
			}
		})
	}
}

func TestSubstituteParams_ListValues(t *testing.T) {
	params := map[string]string{"a": "East", "b": "West"}
	got := SubstituteParams([]types.Filter{{
		Field:    "region",
		Operator: types.OpIn,
		Value:    []string{"{{a}}", "{{b}}", "North"},
	}}, params)

	list, ok := got[0].Value.([]any)
	if !ok {
		t.Fatalf("Value = %T, want []any", got[0].Value)
	}
	want := []any{"East", "West", "North"}
	for i := range want {
		if list[i] != want[i] {
			t.Errorf("list[%d] = %v, want %v", i, list[i], want[i])
		}
	}
}

func TestSubstituteParams_DoesNotMutateInput(t *testing.T) {
	in := []types.Filter{{Field: "region", Operator: types.OpEq, Value: "{{region}}"}}
	SubstituteParams(in, map[string]string{"region": "East"})
	if in[0].Value != "{{region}}" {
		t.Errorf("input filter mutated to %v", in[0].Value)
	}
}
