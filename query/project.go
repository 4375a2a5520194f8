package query

import (
	"github.com/vegasq/insight/dataset"
)

// ApplyColumns returns fresh rows holding exactly columns. A column missing
// from a source row is an error.
func ApplyColumns(rows []dataset.Row, columns []string) ([]dataset.Row, error) {
	result := make([]dataset.Row, len(rows))
	for i, row := range rows {
		out := make(dataset.Row, len(columns))
		for _, col := range columns {
			v, ok := row[col]
			if !ok {
				return nil, invalidf("column %q missing from row", col)
			}
			out[col] = v
		}
		result[i] = out
	}
	return result, nil
}
