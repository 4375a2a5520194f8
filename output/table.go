package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableFormatter outputs rows as an aligned text table
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (t *TableFormatter) SetOutput(w io.Writer) {
	t.writer = w
}

// Format writes rows as a table with a header row. Nothing is written for
// an empty result.
func (t *TableFormatter) Format(rows []map[string]interface{}, columns []string) error {
	if len(rows) == 0 {
		return nil
	}
	columns = resolveColumns(rows, columns)

	table := tablewriter.NewWriter(t.writer)
	table.SetHeader(columns)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = plainValue(row[col])
		}
		table.Append(record)
	}
	table.Render()
	return nil
}
