// Package output provides formatters for query results.
//
// Currently supported formats:
//   - JSON Lines: One JSON object per line, keys in column order
//   - CSV: Comma-separated values with a header row
//   - Table: An aligned text table for terminals
//
// Example usage:
//
//	formatter, err := output.New("csv", os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := formatter.Format(result.Rows, result.Columns); err != nil {
//	    log.Fatal(err)
//	}
package output
