// Package types provides domain models shared across reportrun components.
//
// Zero-dependency design: types.go, report.go, and errors.go use only the
// standard library so the engine can be embedded without pulling in storage
// or transport dependencies. ID utilities in ids.go import uuid but are
// isolated for selective inclusion.
package types

import "time"

// Record is a single flat data row keyed by field name. A cell holds one of:
// string, float64, bool, nil. Integer values decoded from non-JSON sources
// are normalized through the engine's coercion layer, so callers may also
// store int/int64. The engine never mutates an input record in place;
// derived rows are always fresh maps.
type Record map[string]any

// Clone returns a copy of the record. Cell values are scalars, so a shallow
// copy is a full copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RunInput is a request to execute one view of a report definition.
// Runtime filters are AND-combined with the view's static filters; parameters
// resolve {{name}} placeholders in filter values before evaluation.
type RunInput struct {
	ViewID     string            `json:"viewId,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Filters    []Filter          `json:"filters,omitempty"`
	Page       int               `json:"page,omitempty"`
	PageSize   int               `json:"pageSize,omitempty"`
}

// Table is the pivoted, paginated tabular output of a run.
// Totals cover the entire sorted row set, not the current page.
type Table struct {
	Columns   []string           `json:"columns"`
	Rows      []Record           `json:"rows"`
	Totals    map[string]float64 `json:"totals"`
	Page      int                `json:"page"`
	PageSize  int                `json:"pageSize"`
	TotalRows int                `json:"totalRows"`
}

// ChartPoint is a single projected chart datum.
type ChartPoint struct {
	X      string  `json:"x"`
	Y      float64 `json:"y"`
	Series string  `json:"series,omitempty"`
}

// Chart is the render-ready projection of one visual binding.
type Chart struct {
	VisualID string       `json:"visualId"`
	Title    string       `json:"title"`
	Type     ChartType    `json:"type"`
	Data     []ChartPoint `json:"data"`
}

// InsightBullet is one heuristic-generated natural-language finding.
type InsightBullet struct {
	Kind     string `json:"kind"` // trend, driver, anomaly, forecast, quality
	Headline string `json:"headline"`
	Detail   string `json:"detail"`
}

// Insights is the narrative output of a run. The executive summary is the
// concatenated detail text of the first three bullets in production order
// (trend, driver, anomaly, forecast, quality); that order is load-bearing
// for deterministic summaries.
type Insights struct {
	Bullets          []InsightBullet `json:"bullets"`
	ExecutiveSummary string          `json:"executiveSummary"`
}

// RunResult is the disposable value returned by one engine run. RawRows holds
// the filtered pre-aggregation records so export paths can re-derive a
// non-pivoted CSV without re-running the engine.
type RunResult struct {
	RunID             RunID             `json:"runId"`
	View              View              `json:"view"`
	AppliedFilters    []Filter          `json:"appliedFilters"`
	AppliedParameters map[string]string `json:"appliedParameters"`
	GeneratedAt       time.Time         `json:"generatedAt"`
	Table             Table             `json:"table"`
	Charts            []Chart           `json:"charts"`
	Insights          Insights          `json:"insights"`
	RawRows           []Record          `json:"rawRows"`
}
