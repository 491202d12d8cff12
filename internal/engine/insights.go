// internal/engine/insights.go
package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tessera-labs/reportrun/internal/types"
)

/*
 * Narrative insight generation.
 *
 * Five independent heuristics over the final table (plus the filtered
 * pre-aggregation rows for the data-quality check), emitted in fixed
 * production order: trend, driver, anomaly, forecast, quality. The order is
 * load-bearing: the executive summary concatenates the detail text of the
 * first three bullets, so reordering changes every summary.
 *
 * A heuristic that cannot produce a sound finding (too few points, zero
 * variance, degenerate regression) omits its bullet entirely - never a
 * partial or garbage bullet.
 */

// qualityNoRows is the exact bullet text for a run where zero rows survived
// filtering. Downstream insight feeds match on it.
const qualityNoRows = "No rows matched the applied filters."

// Anomaly detection bounds. The z threshold is the 95% two-tailed normal
// critical value; a plain 2.0 cutoff misses canonical outliers that land a
// fraction under it (population stddev pulls the score down).
const (
	anomalyMinRows    = 4
	anomalyZThreshold = 1.96
	anomalyMaxFlagged = 2
)

// GenerateInsights produces narrative bullets from the final table rows and
// the filtered pre-aggregation row set.
func GenerateInsights(table []types.Record, columns []string, rawRows []types.Record) types.Insights {
	bullets := make([]types.InsightBullet, 0, 5)

	metricCol := pickMetricColumn(columns, table)
	if metricCol != "" {
		series := metricSeries(table, metricCol)
		labelCol := pickLabelColumn(columns, metricCol)

		if b, ok := trendBullet(metricCol, series); ok {
			bullets = append(bullets, b)
		}
		if b, ok := driverBullet(metricCol, labelCol, table, series); ok {
			bullets = append(bullets, b)
		}
		if b, ok := anomalyBullet(metricCol, labelCol, table, series); ok {
			bullets = append(bullets, b)
		}
		if b, ok := forecastBullet(metricCol, series); ok {
			bullets = append(bullets, b)
		}
	}

	bullets = append(bullets, qualityBullet(rawRows))

	return types.Insights{
		Bullets:          bullets,
		ExecutiveSummary: executiveSummary(bullets),
	}
}

// pickMetricColumn selects the primary metric: the first column that is not
// an id- or year-named field and holds at least one natively numeric value.
// Returns "" when no column qualifies, which skips every numeric heuristic.
func pickMetricColumn(columns []string, rows []types.Record) string {
	for _, col := range columns {
		lower := strings.ToLower(col)
		if lower == "id" || strings.HasSuffix(lower, "_id") || strings.Contains(lower, "year") {
			continue
		}
		for _, row := range rows {
			if IsNumeric(row[col]) {
				return col
			}
		}
	}
	return ""
}

// pickLabelColumn selects the dimension label for driver/anomaly wording:
// the first column that is not the metric column.
func pickLabelColumn(columns []string, metricCol string) string {
	for _, col := range columns {
		if col != metricCol {
			return col
		}
	}
	return metricCol
}

func metricSeries(rows []types.Record, col string) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = NumberField(row, col)
	}
	return out
}

// trendBullet compares the first and last value of the series. Percentage
// change is computed against |first| (0 when first is 0).
func trendBullet(metricCol string, series []float64) (types.InsightBullet, bool) {
	if len(series) < 2 {
		return types.InsightBullet{}, false
	}
	first, last := series[0], series[len(series)-1]
	change := last - first

	var pct float64
	if first != 0 {
		pct = change / math.Abs(first) * 100
	}

	direction := "increased"
	if change < 0 {
		direction = "decreased"
	}

	return types.InsightBullet{
		Kind:     "trend",
		Headline: fmt.Sprintf("%s %s %.1f%%", metricCol, direction, math.Abs(pct)),
		Detail: fmt.Sprintf("%s %s %.1f%% over the period, from %s to %s.",
			metricCol, direction, math.Abs(pct), formatMetric(first), formatMetric(last)),
	}, true
}

// driverBullet ranks rows by absolute metric value and reports the top 3.
func driverBullet(metricCol, labelCol string, rows []types.Record, series []float64) (types.InsightBullet, bool) {
	if len(series) == 0 {
		return types.InsightBullet{}, false
	}

	idx := make([]int, len(series))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return math.Abs(series[idx[a]]) > math.Abs(series[idx[b]])
	})

	top := len(idx)
	if top > 3 {
		top = 3
	}
	parts := make([]string, 0, top)
	for _, i := range idx[:top] {
		parts = append(parts, fmt.Sprintf("%s (%s)", Text(rows[i][labelCol]), formatMetric(series[i])))
	}

	return types.InsightBullet{
		Kind:     "driver",
		Headline: fmt.Sprintf("Top drivers of %s", metricCol),
		Detail:   fmt.Sprintf("Largest contributors to %s: %s.", metricCol, strings.Join(parts, ", ")),
	}, true
}

// anomalyBullet flags up to two rows whose z-score magnitude clears the
// critical value. Skipped for fewer than 4 rows or a zero standard deviation.
func anomalyBullet(metricCol, labelCol string, rows []types.Record, series []float64) (types.InsightBullet, bool) {
	if len(series) < anomalyMinRows {
		return types.InsightBullet{}, false
	}
	mean := seriesMean(series)
	stddev := seriesStdDev(series, mean)
	if stddev == 0 {
		return types.InsightBullet{}, false
	}

	parts := make([]string, 0, anomalyMaxFlagged)
	for i, v := range series {
		z := (v - mean) / stddev
		if math.Abs(z) >= anomalyZThreshold {
			parts = append(parts, fmt.Sprintf("%s (%s, z=%.1f)", Text(rows[i][labelCol]), formatMetric(v), z))
			if len(parts) == anomalyMaxFlagged {
				break
			}
		}
	}
	if len(parts) == 0 {
		return types.InsightBullet{}, false
	}

	return types.InsightBullet{
		Kind:     "anomaly",
		Headline: fmt.Sprintf("Unusual %s values detected", metricCol),
		Detail:   fmt.Sprintf("Outliers in %s: %s.", metricCol, strings.Join(parts, ", ")),
	}, true
}

// forecastBullet projects one step beyond the series via ordinary
// least-squares regression over the row index. Skipped for fewer than 2
// points or a degenerate regression.
func forecastBullet(metricCol string, series []float64) (types.InsightBullet, bool) {
	slope, intercept, ok := linearRegression(series)
	if !ok {
		return types.InsightBullet{}, false
	}
	next := slope*float64(len(series)) + intercept

	return types.InsightBullet{
		Kind:     "forecast",
		Headline: fmt.Sprintf("Next-period %s projected at %s", metricCol, formatMetric(next)),
		Detail: fmt.Sprintf("Linear projection puts next-period %s at %s (trend %s per period).",
			metricCol, formatMetric(next), formatMetric(slope)),
	}, true
}

// qualityBullet scans the RAW pre-aggregation rows for missing cells (null or
// empty string) and zero-valued numeric cells. A run where no rows matched
// the filters emits the explicit no-rows bullet instead.
func qualityBullet(rawRows []types.Record) types.InsightBullet {
	if len(rawRows) == 0 {
		return types.InsightBullet{
			Kind:     "quality",
			Headline: "No data",
			Detail:   qualityNoRows,
		}
	}

	var missing, zeros int
	for _, row := range rawRows {
		for _, v := range row {
			if v == nil || v == "" {
				missing++
				continue
			}
			if IsNumeric(v) && Number(v) == 0 {
				zeros++
			}
		}
	}

	return types.InsightBullet{
		Kind:     "quality",
		Headline: "Data quality",
		Detail: fmt.Sprintf("Scanned %d rows: %d missing cells, %d zero-valued numeric cells.",
			len(rawRows), missing, zeros),
	}
}

// executiveSummary concatenates the detail text of the first three bullets
// in production order.
func executiveSummary(bullets []types.InsightBullet) string {
	n := len(bullets)
	if n > 3 {
		n = 3
	}
	parts := make([]string, 0, n)
	for _, b := range bullets[:n] {
		parts = append(parts, b.Detail)
	}
	return strings.Join(parts, " ")
}

func seriesMean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

// seriesStdDev is the population standard deviation.
func seriesStdDev(series []float64, mean float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range series {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(series)))
}

// linearRegression fits y = slope*x + intercept over x = 0..n-1.
// ok is false for fewer than 2 points or a zero denominator.
func linearRegression(series []float64) (slope, intercept float64, ok bool) {
	n := float64(len(series))
	if len(series) < 2 {
		return 0, 0, false
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, 0, false
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept, true
}

func formatMetric(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
