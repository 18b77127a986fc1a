package chartview

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// ExportVisible writes the visible slice as CSV: the key column first, then the columns of every
// visible series whose data exists. Missing values are empty cells. Output is deterministic for a
// given state.
func (v *cartesianView) ExportVisible() (string, error) {
	keyField := v.cfg.KeyField
	if v.data != nil && v.data.KeyField != "" {
		keyField = v.data.KeyField
	}

	columns := []string{keyField}
	seen := map[string]bool{keyField: true}
	if v.data != nil {
		for _, d := range v.series.visibleItems(v.data) {
			for _, field := range d.Fields() {
				if seen[field] || !v.data.HasField(field) {
					continue
				}
				seen[field] = true
				columns = append(columns, field)
			}
		}
	}

	rows := [][]string{columns}
	for _, i := range v.visibleIndices() {
		p := v.data.Points[i]
		row := make([]string, len(columns))
		row[0] = p.Key
		for c, field := range columns[1:] {
			if val, ok := p.Value(field); ok {
				row[c+1] = formatValue(val)
			}
		}
		rows = append(rows, row)
	}
	return writeCSV(rows)
}

func writeCSV(rows [][]string) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("failed to write csv: %w", err)
	}
	return b.String(), nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
