package reports

import (
	"fmt"
	"strings"

	"windscope/internal/models"
)

// SummaryMarkdown renders the scalar sections of an analysis result as GFM tables
func SummaryMarkdown(result *models.AnalysisResult) string {
	var b strings.Builder
	b.WriteString("## Analysis Summary\n\n")
	if result == nil {
		b.WriteString("_No analysis loaded._\n")
		return b.String()
	}
	if result.Method != "" {
		fmt.Fprintf(&b, "Method: **%s**", escapeCell(result.Method))
		if result.RatedPowerKW > 0 {
			fmt.Fprintf(&b, ", rated power **%s kW**", models.FormatKey(result.RatedPowerKW))
		}
		b.WriteString("\n\n")
	}

	writeTable(&b, "Summary", result.Summary)
	writeTable(&b, "Data Quality", result.DataQuality)
	writeTable(&b, "Loss Breakdown", result.LossBreakdown)
	return b.String()
}

// writeTable emits one two-column table; maps without scalar values are left out
func writeTable(b *strings.Builder, title string, values map[string]interface{}) {
	var rows []string
	for _, k := range sortedKeys(values) {
		v, ok := FormatValue(values[k])
		if !ok {
			continue
		}
		rows = append(rows, fmt.Sprintf("| %s | %s |", escapeCell(HumanizeKey(k)), escapeCell(v)))
	}
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n| Metric | Value |\n|---|---:|\n", title)
	b.WriteString(strings.Join(rows, "\n"))
	b.WriteString("\n\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
