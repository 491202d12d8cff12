// internal/engine/params.go
package engine

import (
	"regexp"

	"github.com/tessera-labs/reportrun/internal/types"
)

// Placeholder tokens of the form {{name}} inside filter values.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// SubstituteParams resolves {{name}} placeholders in filter values against
// the runtime parameter map. Substitution happens before any evaluation;
// unbound names resolve to the empty string. Input filters are not mutated.
func SubstituteParams(filters []types.Filter, params map[string]string) []types.Filter {
	out := make([]types.Filter, len(filters))
	for i, f := range filters {
		f.Value = substituteValue(f.Value, params)
		out[i] = f
	}
	return out
}

func substituteValue(v any, params map[string]string) any {
	switch vv := v.(type) {
	case string:
		return placeholderPattern.ReplaceAllStringFunc(vv, func(match string) string {
			name := placeholderPattern.FindStringSubmatch(match)[1]
			return params[name]
		})
	case []any:
		out := make([]any, len(vv))
		for i, elem := range vv {
			out[i] = substituteValue(elem, params)
		}
		return out
	case []string:
		out := make([]any, len(vv))
		for i, elem := range vv {
			out[i] = substituteValue(elem, params)
		}
		return out
	default:
		return v
	}
}
