// internal/engine/sort.go
package engine

import (
	"sort"
	"strings"

	"github.com/tessera-labs/reportrun/internal/types"
)

/*
 * Multi-key stable sort and pagination over the post-calculation row set.
 *
 * Sort rules apply as an ordered list: the first rule wins, later rules
 * break ties. Two natively numeric cells compare numerically; any other
 * pairing compares as case-insensitive strings. The sort is stable, so rows
 * equal under every rule keep their aggregation order.
 *
 * Pagination is 1-indexed and always applied after calculation and sort,
 * never pre-aggregation. An out-of-range page yields an empty page, not an
 * error.
 */

// SortRows sorts rows in place by the ordered rule list.
func SortRows(rows []types.Record, rules []types.SortRule) {
	if len(rules) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, rule := range rules {
			cmp := compareCells(rows[i][rule.Field], rows[j][rule.Field])
			if cmp == 0 {
				continue
			}
			if rule.Direction == types.SortDesc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// compareCells three-way compares two cells (-1/0/1).
func compareCells(a, b any) int {
	if IsNumeric(a) && IsNumeric(b) {
		na, nb := Number(a), Number(b)
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(strings.ToLower(Text(a)), strings.ToLower(Text(b)))
}

// Paginate slices the 1-indexed page [(page-1)*pageSize, page*pageSize).
// A non-positive page is treated as page 1; a non-positive pageSize returns
// the whole set; a page beyond the data yields an empty slice.
func Paginate(rows []types.Record, page, pageSize int) []types.Record {
	if pageSize <= 0 {
		return rows
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return []types.Record{}
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
