// Package query validates and executes JSON query documents against a single
// dataset.
//
// A document has the shape
//
//	{
//	  "WHERE": {"GT": {"courses_avg": 97}},
//	  "OPTIONS": {
//	    "COLUMNS": ["courses_dept", "courses_avg"],
//	    "ORDER": {"dir": "DOWN", "keys": ["courses_avg"]}
//	  },
//	  "TRANSFORMATIONS": {
//	    "GROUP": ["courses_dept"],
//	    "APPLY": [{"maxAvg": {"MAX": "courses_avg"}}]
//	  }
//	}
//
// WHERE may be empty to match every row. ORDER and TRANSFORMATIONS are
// optional. Every qualified name must belong to the same dataset, which is
// chosen from the first qualified name in COLUMNS (or else GROUP).
//
// # Pipeline
//
// Execution runs in a fixed order and stops at the first error:
//
//  1. Shape check and dataset lookup
//  2. Parse into a plan (Query); all field, type and wildcard errors are
//     found here, before any row is read
//  3. ApplyFilter
//  4. ApplyTransformation, when TRANSFORMATIONS is present
//  5. ApplyColumns
//  6. ApplyOrder, when ORDER is present
//  7. Row cap
//
// # Basic Usage
//
//	engine := query.NewEngine(store, query.DefaultLimits(), logger)
//	result, err := engine.ExecuteJSON(ctx, body)
//	if err != nil {
//	    fmt.Println(query.Kind(err), err)
//	    return
//	}
//	for _, row := range result.Rows {
//	    fmt.Println(row)
//	}
//
// # Errors
//
// Every rejected query wraps ErrInvalidQuery; a valid query whose result
// would exceed Limits.MaxResultRows wraps ErrResultTooLarge. Kind maps an
// error to the name reported to clients.
//
// SUM and AVG are computed with decimal arithmetic and rounded half away
// from zero to two places.
package query
