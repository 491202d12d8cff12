// internal/engine/charts.go
package engine

import (
	"strings"

	"github.com/tessera-labs/reportrun/internal/types"
)

/*
 * Chart projection.
 *
 * Projects the fully aggregated, sorted, UNPAGINATED row set into
 * render-ready points per visual, using the visual's xField/yField/
 * seriesField/metricField selectors against output column names.
 *
 * pie and donut visuals get a second, chart-specific aggregation: rows are
 * re-summed by xField category so a pivot with extra dimensions still
 * collapses into one slice per category. This layers on top of the table
 * aggregation; it is not a duplicate of it.
 */

// ProjectCharts builds one Chart per visual from the full sorted row set.
func ProjectCharts(visuals []types.Visual, rows []types.Record) []types.Chart {
	charts := make([]types.Chart, 0, len(visuals))
	for _, v := range visuals {
		charts = append(charts, types.Chart{
			VisualID: v.ID,
			Title:    v.Title,
			Type:     v.Type,
			Data:     projectVisual(v, rows),
		})
	}
	return charts
}

func projectVisual(v types.Visual, rows []types.Record) []types.ChartPoint {
	switch v.Type {
	case types.ChartPie, types.ChartDonut:
		return projectCategoryCollapse(v, rows)
	case types.ChartKPI:
		return projectKPI(v, rows)
	case types.ChartTable:
		// The table binding renders RunResult.Table directly; no points.
		return []types.ChartPoint{}
	default:
		return projectXY(v, rows)
	}
}

// projectXY emits one point per row for line/bar/stacked_bar/area/scatter/
// heatmap visuals.
func projectXY(v types.Visual, rows []types.Record) []types.ChartPoint {
	points := make([]types.ChartPoint, 0, len(rows))
	for _, row := range rows {
		p := types.ChartPoint{
			X: Text(row[v.XField]),
			Y: NumberField(row, v.YField),
		}
		if v.SeriesField != "" {
			p.Series = Text(row[v.SeriesField])
		}
		points = append(points, p)
	}
	return points
}

// projectCategoryCollapse re-aggregates rows by summing yField grouped by
// xField, in first-seen category order.
func projectCategoryCollapse(v types.Visual, rows []types.Record) []types.ChartPoint {
	order := make([]string, 0)
	totals := make(map[string]float64)
	for _, row := range rows {
		category := Text(row[v.XField])
		if _, ok := totals[category]; !ok {
			order = append(order, category)
		}
		totals[category] += NumberField(row, v.YField)
	}

	points := make([]types.ChartPoint, 0, len(order))
	for _, category := range order {
		points = append(points, types.ChartPoint{X: category, Y: totals[category]})
	}
	return points
}

// projectKPI emits a single point summing the metric field (falling back to
// yField) across all rows.
func projectKPI(v types.Visual, rows []types.Record) []types.ChartPoint {
	field := v.MetricField
	if field == "" {
		field = v.YField
	}
	var total float64
	for _, row := range rows {
		total += NumberField(row, field)
	}
	label := v.Title
	if label == "" {
		label = strings.TrimSpace(field)
	}
	return []types.ChartPoint{{X: label, Y: total}}
}
