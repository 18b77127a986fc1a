package reports

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// ToTitleCase converts a string to title case (first letter of each word capitalized)
func ToTitleCase(s string) string {
	if s == "" {
		return s
	}

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			runes := []rune(word)
			runes[0] = unicode.ToUpper(runes[0])
			for j := 1; j < len(runes); j++ {
				runes[j] = unicode.ToLower(runes[j])
			}
			words[i] = string(runes)
		}
	}
	return strings.Join(words, " ")
}

// unitSuffixes maps analysis key suffixes to display units
var unitSuffixes = []struct {
	suffix string
	unit   string
}{
	{"_pct", "%"},
	{"_percent", "%"},
	{"_ms", "m/s"},
	{"_kw", "kW"},
	{"_kwh", "kWh"},
	{"_mwh", "MWh"},
	{"_days", "days"},
}

// HumanizeKey turns an analysis key such as "mean_power_kw" into "Mean Power (kW)"
func HumanizeKey(key string) string {
	unit := ""
	for _, u := range unitSuffixes {
		if strings.HasSuffix(key, u.suffix) {
			key = strings.TrimSuffix(key, u.suffix)
			unit = u.unit
			break
		}
	}
	label := ToTitleCase(strings.ReplaceAll(key, "_", " "))
	if unit != "" {
		label += " (" + unit + ")"
	}
	return label
}

// FormatValue renders a summary value for a table cell. Nested values are skipped by the caller.
func FormatValue(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int, int64, int32:
		return fmt.Sprintf("%d", t), true
	case bool:
		return strconv.FormatBool(t), true
	case string:
		return t, true
	default:
		return "", false
	}
}

// sortedKeys returns map keys in a stable order
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
