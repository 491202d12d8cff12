// internal/engine/coerce.go
package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tessera-labs/reportrun/internal/types"
)

/*
 * Scalar coercion for record field access.
 *
 * Every field read in the engine goes through these helpers so all callers
 * share identical coercion behavior. Three projections:
 *   - Number: lenient numeric coercion. Strings are parsed after stripping
 *     thousands separators; booleans count as 0/1; anything unparseable is 0.
 *   - Text: lenient stringification of any scalar.
 *   - Comparable: equality projection. Numbers stay numeric, booleans become
 *     0/1, everything else becomes a case-insensitive string.
 *
 * Malformed values never error here. A bad cell degrades to the projection's
 * zero value so a single malformed record cannot abort a run; structural
 * problems are caught earlier, at the configuration boundary.
 */

// Number coerces a scalar to float64.
// Strings are trimmed and stripped of thousands separators before parsing;
// non-numeric input coerces to 0.
func Number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// NumberField reads a record field as a number. Missing fields coerce to 0.
func NumberField(rec types.Record, field string) float64 {
	return Number(rec[field])
}

// IsNumeric reports whether v is a native numeric scalar. String-encoded
// numbers are not numeric here; sort ordering and metric-column selection
// depend on that distinction.
func IsNumeric(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64:
		return true
	default:
		return false
	}
}

// Text stringifies a scalar. Nil becomes the empty string.
func Text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", s)
	}
}

// Comparable projects a scalar into a value with well-defined equality:
// numbers compare numerically, booleans as 0/1, everything else as a
// case-insensitive string. Projections of different kinds never compare
// equal.
func Comparable(v any) any {
	switch {
	case IsNumeric(v):
		return Number(v)
	case v == nil:
		return ""
	default:
		if b, ok := v.(bool); ok {
			if b {
				return float64(1)
			}
			return float64(0)
		}
		return strings.ToLower(Text(v))
	}
}
