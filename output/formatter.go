package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Formatter writes query results.
//
// Columns fixes the order of fields in each record. When it is empty the
// union of the row keys is used, sorted.
type Formatter interface {
	// Format writes rows in the formatter's specific format
	Format(rows []map[string]interface{}, columns []string) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// New returns the formatter registered under name: "jsonl" (or "json"),
// "csv" or "table".
func New(name string, w io.Writer) (Formatter, error) {
	switch strings.ToLower(name) {
	case "jsonl", "json", "":
		return NewJSONFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "table":
		return NewTableFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}

// resolveColumns returns columns, or the sorted keys of every row when
// columns is empty.
func resolveColumns(rows []map[string]interface{}, columns []string) []string {
	if len(columns) > 0 {
		return columns
	}
	columnSet := make(map[string]bool)
	for _, row := range rows {
		for col := range row {
			columnSet[col] = true
		}
	}
	out := make([]string, 0, len(columnSet))
	for col := range columnSet {
		out = append(out, col)
	}
	sort.Strings(out)
	return out
}
