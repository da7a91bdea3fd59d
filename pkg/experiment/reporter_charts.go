package experiment

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

const chartLabelWidth = 14

// MetricChart renders one horizontal bar per row for the named metric,
// scaled to the largest value. Rows without a numeric value get an empty
// bar and "-". barWidth is clamped to [10, 40].
func (r *Reporter) MetricChart(rows []ReportRow, metric string, barWidth int) string {
	if len(rows) == 0 {
		return ""
	}
	barWidth = min(max(barWidth, 10), 40)

	values := make([]float64, len(rows))
	present := make([]bool, len(rows))
	var maxValue float64
	for i, row := range rows {
		v, ok := Float64(row.Run.Metrics[metric])
		if !ok {
			continue
		}
		values[i], present[i] = v, true
		maxValue = max(maxValue, v)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", metric)
	for i, row := range rows {
		label := row.Ref
		if label == "" {
			label = displayName(row.Run.Name)
		}
		label = runewidth.FillRight(runewidth.Truncate(label, chartLabelWidth, "…"), chartLabelWidth)

		valueStr := "-"
		bar := strings.Repeat("░", barWidth)
		if present[i] {
			valueStr = formatValue(values[i])
			bar = buildBar(values[i], maxValue, barWidth)
		}
		fmt.Fprintf(&b, "%s %s %s\n", label, bar, valueStr)
	}
	return b.String()
}

// ChartBarWidth sizes bars for a terminal of the given width.
func ChartBarWidth(terminalWidth int) int {
	// Label + space + bar + space + value (~10)
	return min(max(terminalWidth-chartLabelWidth-12, 10), 40)
}

func buildBar(value, maxValue float64, width int) string {
	if maxValue <= 0 || value <= 0 {
		return strings.Repeat("░", width)
	}

	filled := min(int(value/maxValue*float64(width)), width)
	if filled == 0 {
		filled = 1 // Minimum visibility
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
