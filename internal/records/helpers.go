package records

import (
	"slices"
	"strconv"
)

// FormatFloat renders a score with four decimals.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// FormatInt renders an identifier.
func FormatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
