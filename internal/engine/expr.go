// internal/engine/expr.go
package engine

import (
	"strings"

	"github.com/tessera-labs/reportrun/internal/types"
)

/*
 * Minimal arithmetic expression evaluation for ARITHMETIC calculations.
 *
 * Grammar: whitespace-separated tokens, alternating operand and operator,
 * e.g. "actual - budget * 100". Evaluation is strictly left to right with
 * NO operator precedence - multiplication and division do not bind tighter
 * than addition. Saved reports depend on this evaluation order; do not
 * upgrade to a precedence-aware grammar.
 *
 * Operand resolution: a token naming a row field reads that field through
 * numeric coercion; any other token is parsed as a numeric literal; tokens
 * that are neither coerce to 0.
 */

// EvalExpr evaluates a token expression against one row.
// Division by zero degrades the accumulator to 0; a trailing operator or an
// unknown operator token is skipped.
func EvalExpr(expr string, row types.Record) float64 {
	tokens := strings.Fields(expr)
	if len(tokens) == 0 {
		return 0
	}

	acc := operand(tokens[0], row)
	for i := 1; i+1 < len(tokens); i += 2 {
		rhs := operand(tokens[i+1], row)
		switch tokens[i] {
		case "+":
			acc += rhs
		case "-":
			acc -= rhs
		case "*":
			acc *= rhs
		case "/":
			if rhs == 0 {
				acc = 0
			} else {
				acc /= rhs
			}
		}
	}
	return acc
}

func operand(token string, row types.Record) float64 {
	if v, ok := row[token]; ok {
		return Number(v)
	}
	return Number(token)
}
