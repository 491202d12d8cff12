// internal/engine/run.go
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tessera-labs/reportrun/internal/types"
)

/*
 * Run orchestration.
 *
 * Pipeline per run:
 *   1. Load permission-filtered rows through the RowLoader collaborator
 *   2. Resolve the requested view (fall back to the first declared view)
 *   3. Merge static view filters with runtime filters (concatenation - both
 *      participate in the AND) and substitute {{name}} parameters
 *   4. Filter rows
 *   5. Group by row-dims + column-dims and aggregate declared measures
 *   6. Apply calculations in declaration order
 *   7. Sort, then paginate the post-calculation set
 *   8. Project charts and generate insights from the FULL sorted set
 *
 * Everything after the loader call is synchronous pure computation over
 * freshly allocated intermediate structures, so concurrent runs are safe by
 * construction. The only side effect is reading the clock for generatedAt,
 * which is injectable for deterministic tests.
 *
 * Error policy: the engine errors only for structural problems (zero
 * permitted datasets, a definition with no views, a failed load). Malformed
 * per-row data degrades inside the pipeline stages instead.
 */

// RowLoader loads the materialized, permission-filtered records for a run.
// Implementations must apply row-level permission filtering for the
// principal; the engine trusts the records it receives. fiscalStartMonth is
// passed through from the dataset registry; the engine does not interpret
// fiscal semantics itself.
type RowLoader interface {
	LoadRows(ctx context.Context, principal string, datasetIDs []types.DatasetID, fiscalStartMonth int) ([]types.Record, error)
}

// defaultPageSize applies when neither the run input nor the view sets one.
const defaultPageSize = 50

// Option configures an Engine via functional options.
type Option func(*Engine)

// WithClock injects the wall-clock source for generatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDefaultPageSize overrides the fallback page size.
func WithDefaultPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// Engine executes report definitions against loader-provided records.
// Stateless between runs; safe for concurrent use.
type Engine struct {
	loader   RowLoader
	now      func() time.Time
	pageSize int
}

// New creates an engine backed by the given row loader.
func New(loader RowLoader, opts ...Option) *Engine {
	e := &Engine{
		loader:   loader,
		now:      time.Now,
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one view of a report definition and assembles the RunResult.
func (e *Engine) Run(ctx context.Context, principal string, def types.ReportDefinition, in types.RunInput) (*types.RunResult, error) {
	if len(def.DatasetIDs) == 0 {
		return nil, fmt.Errorf("report %s: %w", def.ID, types.ErrNoDatasets)
	}

	records, err := e.loader.LoadRows(ctx, principal, def.DatasetIDs, def.FiscalYearStartMonth)
	if err != nil {
		return nil, fmt.Errorf("load rows for report %s: %w", def.ID, err)
	}

	view, err := resolveView(def, in.ViewID)
	if err != nil {
		return nil, err
	}

	params := in.Parameters
	if params == nil {
		params = map[string]string{}
	}

	// Static + runtime filters concatenate; parameter substitution happens
	// before any predicate runs.
	merged := make([]types.Filter, 0, len(view.Filters)+len(in.Filters))
	merged = append(merged, view.Filters...)
	merged = append(merged, in.Filters...)
	applied := SubstituteParams(merged, params)

	raw := FilterRows(records, applied)

	dims := make([]string, 0, len(view.RowFields)+len(view.ColumnFields))
	dims = append(dims, view.RowFields...)
	dims = append(dims, view.ColumnFields...)

	aggregated := Aggregate(raw, dims, view.Values)
	calculated := ApplyCalculations(aggregated, def.Calculations)
	SortRows(calculated, view.Sort)

	columns := outputColumns(dims, view.Values, def.Calculations)

	page := in.Page
	if page < 1 {
		page = 1
	}
	pageSize := in.PageSize
	if pageSize <= 0 {
		pageSize = view.PageSize
	}
	if pageSize <= 0 {
		pageSize = e.pageSize
	}

	runID := types.NewRunID()
	log.Printf("run id=%s report=%s view=%s rows=%d filtered=%d groups=%d", runID, def.ID, view.ID, len(records), len(raw), len(calculated))

	result := &types.RunResult{
		RunID:             runID,
		View:              view,
		AppliedFilters:    applied,
		AppliedParameters: params,
		GeneratedAt:       e.now().UTC(),
		Table: types.Table{
			Columns:   columns,
			Rows:      Paginate(calculated, page, pageSize),
			Totals:    columnTotals(calculated, view.Values, def.Calculations),
			Page:      page,
			PageSize:  pageSize,
			TotalRows: len(calculated),
		},
		Charts:   ProjectCharts(view.Visuals, calculated),
		Insights: GenerateInsights(calculated, columns, raw),
		RawRows:  raw,
	}
	return result, nil
}

// resolveView matches the requested view id, falling back to the first
// declared view for an absent or unmatched id. A definition with no views is
// a configuration error.
func resolveView(def types.ReportDefinition, viewID string) (types.View, error) {
	if len(def.Views) == 0 {
		return types.View{}, fmt.Errorf("report %s: %w", def.ID, types.ErrViewNotFound)
	}
	if viewID != "" {
		for _, v := range def.Views {
			if v.ID == viewID {
				return v, nil
			}
		}
	}
	return def.Views[0], nil
}

// outputColumns lists the table columns in output order: dimensions, then
// measure labels, then calculation output fields, deduplicated first-wins.
func outputColumns(dims []string, values []types.ValueSpec, calcs []types.Calculation) []string {
	seen := make(map[string]struct{}, len(dims)+len(values)+len(calcs))
	out := make([]string, 0, len(dims)+len(values)+len(calcs))
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, d := range dims {
		add(d)
	}
	for _, vs := range values {
		add(vs.Label)
	}
	for _, c := range calcs {
		add(c.OutputField)
	}
	return out
}

// columnTotals sums every measure label and calculation output over the
// ENTIRE sorted set. Totals are pagination-invariant by construction.
func columnTotals(rows []types.Record, values []types.ValueSpec, calcs []types.Calculation) map[string]float64 {
	totals := make(map[string]float64, len(values)+len(calcs))
	sumColumn := func(name string) {
		if name == "" {
			return
		}
		if _, ok := totals[name]; ok {
			return
		}
		var sum float64
		for _, row := range rows {
			sum += NumberField(row, name)
		}
		totals[name] = sum
	}
	for _, vs := range values {
		sumColumn(vs.Label)
	}
	for _, c := range calcs {
		sumColumn(c.OutputField)
	}
	return totals
}
