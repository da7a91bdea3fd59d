package experiment

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Reporter formats experiment runs for humans.
type Reporter struct{}

// NewReporter creates a Reporter instance.
func NewReporter() *Reporter {
	return &Reporter{}
}

// ReportRow pairs a run with the commit reference it was read from.
type ReportRow struct {
	Ref     string
	Summary string
	Run     Run
}

// RunMarkdown renders a markdown report for a single run.
func (r *Reporter) RunMarkdown(row ReportRow) string {
	run := row.Run

	var b strings.Builder
	fmt.Fprintf(&b, "# Experiment: %s\n\n", displayName(run.Name))
	if row.Ref != "" {
		fmt.Fprintf(&b, "- **Commit:** %s\n", row.Ref)
	}
	if row.Summary != "" {
		fmt.Fprintf(&b, "- **Summary:** %s\n", row.Summary)
	}
	fmt.Fprintf(&b, "- **Run:** %s\n", run.RunID)
	if !run.Timestamp.IsZero() {
		fmt.Fprintf(&b, "- **Recorded:** %s\n", FormatTimestamp(run.Timestamp))
	}
	b.WriteString("\n")

	writeSection(&b, "Hyperparameters", run.Hyperparameters)
	writeSection(&b, "Metrics", run.Metrics)
	writeSection(&b, "Artifacts", run.Artifacts)
	writeSection(&b, "Annotations", run.Annotations)

	return b.String()
}

// ComparisonMarkdown renders one row per run with a column per metric.
func (r *Reporter) ComparisonMarkdown(rows []ReportRow) string {
	if len(rows) == 0 {
		return ""
	}

	keys := unionKeys(rows)

	var b strings.Builder
	b.WriteString("| Commit | Name |")
	for _, key := range keys {
		fmt.Fprintf(&b, " %s |", escapeCell(key))
	}
	b.WriteString("\n|--------|------|")
	for range keys {
		b.WriteString("------|")
	}
	b.WriteString("\n")

	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %s |", escapeCell(row.Ref), escapeCell(displayName(row.Run.Name)))
		for _, key := range keys {
			value, ok := row.Run.Metrics[key]
			cell := "-"
			if ok {
				cell = formatValue(value)
			}
			fmt.Fprintf(&b, " %s |", escapeCell(cell))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeSection(b *strings.Builder, title string, values map[string]any) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	b.WriteString("| Name | Value |\n")
	b.WriteString("|------|-------|\n")
	for _, key := range sortedKeys(values) {
		fmt.Fprintf(b, "| %s | %s |\n", escapeCell(key), escapeCell(formatValue(values[key])))
	}
	b.WriteString("\n")
}

func unionKeys(rows []ReportRow) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for key := range row.Run.Metrics {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

func escapeCell(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.ReplaceAll(value, "|", "\\|")
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "(unnamed)"
	}
	return name
}
