// internal/types/report.go
package types

/*
 * Report definition types.
 *
 * Provides ReportDefinition, View, ValueSpec, Filter, SortRule, Calculation,
 * and Visual structures consumed by internal/engine. These types are
 * wire-format agnostic - the store persists them as JSON documents and an
 * upstream schema layer validates field existence and type ranges before
 * they reach the engine.
 *
 * Key types:
 *   - View: one named pivot configuration (rows/columns/measures/filters/
 *     sort/visuals)
 *   - ValueSpec: source field + aggregation, exposed under an output label
 *   - Filter: single field predicate; values may carry {{name}} placeholders
 *   - Calculation: post-aggregation derived field with one typed config
 *     variant per calculation type
 *
 * Dependencies: None (standard library only)
 */

// Aggregation selects how a ValueSpec folds a group's member values.
type Aggregation string

const (
	AggSum           Aggregation = "sum"
	AggAvg           Aggregation = "avg"
	AggMin           Aggregation = "min"
	AggMax           Aggregation = "max"
	AggCount         Aggregation = "count"
	AggDistinctCount Aggregation = "distinct_count"
)

// Operator is a filter comparison operator.
type Operator string

const (
	OpEq       Operator = "eq"
	OpNeq      Operator = "neq"
	OpContains Operator = "contains"
	OpIn       Operator = "in"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpBetween  Operator = "between"
)

// CalcType identifies a calculation's semantics.
type CalcType string

const (
	CalcArithmetic  CalcType = "ARITHMETIC"
	CalcVariance    CalcType = "VARIANCE"
	CalcVariancePct CalcType = "VARIANCE_PCT"
	CalcMoM         CalcType = "MOM"
	CalcQoQ         CalcType = "QOQ"
	CalcYoY         CalcType = "YOY"
	CalcFoF         CalcType = "FOF"
	CalcRolling     CalcType = "ROLLING"
	CalcYTD         CalcType = "YTD"
	CalcIfCase      CalcType = "IF_CASE"
	CalcRank        CalcType = "RANK"
)

// ChartType identifies a visual's rendering.
type ChartType string

const (
	ChartTable      ChartType = "table"
	ChartLine       ChartType = "line"
	ChartBar        ChartType = "bar"
	ChartStackedBar ChartType = "stacked_bar"
	ChartArea       ChartType = "area"
	ChartScatter    ChartType = "scatter"
	ChartDonut      ChartType = "donut"
	ChartPie        ChartType = "pie"
	ChartKPI        ChartType = "kpi"
	ChartHeatmap    ChartType = "heatmap"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ValueSpec declares one measure: a source field aggregated under an output
// label. Calculations and chart bindings reference aggregated output by
// Label, never by Field - the label is a second namespace resolved once
// after aggregation.
type ValueSpec struct {
	Field       string      `json:"field"`
	Label       string      `json:"label"`
	Aggregation Aggregation `json:"aggregation"`
	Format      string      `json:"format,omitempty"`
}

// Filter is a single field predicate. Value may be a scalar, an array (for
// in/between), or a string carrying {{name}} parameter placeholders that are
// resolved against the runtime parameter map before evaluation.
type Filter struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// SortRule orders output rows; later rules break ties of earlier ones.
type SortRule struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// Visual binds a chart over the aggregated result. Field selectors reference
// output column names (dimension fields or measure labels).
type Visual struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Type        ChartType `json:"type"`
	XField      string    `json:"xField,omitempty"`
	YField      string    `json:"yField,omitempty"`
	SeriesField string    `json:"seriesField,omitempty"`
	MetricField string    `json:"metricField,omitempty"`
}

// View is one named pivot configuration within a report definition.
type View struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	RowFields    []string   `json:"rowFields"`
	ColumnFields []string   `json:"columnFields"`
	Values       []ValueSpec `json:"values"`
	Filters      []Filter   `json:"filters,omitempty"`
	Sort         []SortRule `json:"sort,omitempty"`
	PageSize     int        `json:"pageSize,omitempty"`
	Visuals      []Visual   `json:"visuals,omitempty"`
}

// Calculation is a post-aggregation derived field. Calculations apply in
// declaration order; each may read the OutputField of any earlier one.
// Exactly one config variant should be set, matching Type; missing config
// degrades the output field to zero values rather than failing the run.
type Calculation struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        CalcType `json:"type"`
	OutputField string   `json:"outputField"`

	// ARITHMETIC: whitespace-separated tokens evaluated left to right.
	Expression string `json:"expression,omitempty"`

	Variance   *VarianceConfig   `json:"variance,omitempty"`   // VARIANCE, VARIANCE_PCT
	Period     *PeriodConfig     `json:"period,omitempty"`     // MOM, QOQ, YOY, FOF
	Rolling    *RollingConfig    `json:"rolling,omitempty"`    // ROLLING
	Cumulative *CumulativeConfig `json:"cumulative,omitempty"` // YTD
	Condition  *ConditionConfig  `json:"condition,omitempty"`  // IF_CASE
	Rank       *RankConfig       `json:"rank,omitempty"`       // RANK
}

// VarianceConfig computes minuend - subtrahend (or its percentage form).
type VarianceConfig struct {
	MinuendField    string `json:"minuendField"`
	SubtrahendField string `json:"subtrahendField"`
}

// PeriodConfig computes a delta against the row one position earlier in the
// current row order. All four period calculation types share offset 1; a
// calendar-aware offset would need a bound time dimension.
type PeriodConfig struct {
	BaseField string `json:"baseField"`
}

// RollingConfig computes a trailing-window sum inclusive of the current row.
type RollingConfig struct {
	BaseField string `json:"baseField"`
	Window    int    `json:"window,omitempty"` // default 3
}

// CumulativeConfig computes a running sum from row 0 through the current row.
// Row order is the time axis; the view's sort should put the time dimension
// first for sensible output.
type CumulativeConfig struct {
	BaseField string `json:"baseField"`
}

// ConditionConfig assigns TrueValue or FalseValue per row based on a
// filter-shaped condition.
type ConditionConfig struct {
	Field        string   `json:"field"`
	Operator     Operator `json:"operator"`
	CompareValue any      `json:"compareValue"`
	TrueValue    any      `json:"trueValue"`
	FalseValue   any      `json:"falseValue"`
}

// RankConfig assigns a dense 1-based rank by descending numeric value.
type RankConfig struct {
	Field string `json:"field"`
}

// ReportDefinition is the read-only definition a run executes against.
// Views, calculations, and visuals are owned by the report; the engine never
// persists or mutates them.
type ReportDefinition struct {
	ID                   ReportID      `json:"id"`
	Name                 string        `json:"name"`
	OwnerPrincipal       string        `json:"ownerPrincipal,omitempty"`
	DatasetIDs           []DatasetID   `json:"datasetIds"`
	FiscalYearStartMonth int           `json:"fiscalYearStartMonth,omitempty"`
	Views                []View        `json:"views"`
	Calculations         []Calculation `json:"calculations,omitempty"`
}
