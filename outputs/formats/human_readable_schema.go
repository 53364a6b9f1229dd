package formats

import (
	"fmt"
)

// ColumnNames returns a unique, non-empty name for each column of a table with numColumns columns.
// Absent or empty names default to column_i, and repeated names get a numeric suffix.
func ColumnNames(numColumns int, names []string) []string {
	out := make([]string, numColumns)
	for i := range out {
		if i < len(names) && names[i] != "" {
			out[i] = names[i]
		} else {
			out[i] = fmt.Sprintf("column_%d", i)
		}
	}

	nameCount := map[string]int{}
	for i := range out {
		nameCount[out[i]]++
	}
	used := map[string]bool{}
	for name, count := range nameCount {
		if count == 1 {
			used[name] = true
		}
	}
	for i := range out {
		if nameCount[out[i]] == 1 {
			continue
		}
		name := out[i]
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", out[i], n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}
