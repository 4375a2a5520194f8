package query

import (
	"fmt"
	"strings"

	"github.com/vegasq/insight/dataset"
)

// Matches evaluates f against one row. And and Or stop at the first child
// that decides the result. A comparison against a missing or mistyped row
// value is an error, never a non-match.
func Matches(f Filter, row dataset.Row) (bool, error) {
	switch f := f.(type) {
	case MatchAll:
		return true, nil
	case And:
		for _, child := range f.Filters {
			ok, err := Matches(child, row)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case Or:
		for _, child := range f.Filters {
			ok, err := Matches(child, row)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	case Not:
		ok, err := Matches(f.Filter, row)
		return !ok && err == nil, err
	case NumericComparison:
		v, ok := row[f.Field].(float64)
		if !ok {
			return false, invalidf("%s: %q is not a number in row", f.Op, f.Field)
		}
		return compareNumbers(v, f.Op, f.Value), nil
	case TextComparison:
		v, ok := row[f.Field].(string)
		if !ok {
			return false, invalidf("IS: %q is not a string in row", f.Field)
		}
		return matchPattern(v, f.Pattern), nil
	default:
		return false, fmt.Errorf("%w: unhandled filter %T", ErrInvalidQuery, f)
	}
}

func compareNumbers(left float64, op Comparator, right float64) bool {
	switch op {
	case LT:
		return left < right
	case GT:
		return left > right
	case EQ:
		return left == right
	default:
		return false
	}
}

// matchPattern matches s against a pattern whose only wildcards are a
// leading and/or trailing '*'.
func matchPattern(s, pattern string) bool {
	if pattern == "" {
		return s == ""
	}
	leading := strings.HasPrefix(pattern, wildcard)
	trailing := strings.HasSuffix(pattern, wildcard)
	literal := strings.ReplaceAll(pattern, wildcard, "")

	switch {
	case leading && trailing:
		return strings.Contains(s, literal)
	case leading:
		return strings.HasSuffix(s, literal)
	case trailing:
		return strings.HasPrefix(s, literal)
	default:
		return s == literal
	}
}

// ApplyFilter returns the rows matching f, in input order. Rows are shared,
// not copied.
func ApplyFilter(rows []dataset.Row, f Filter) ([]dataset.Row, error) {
	if _, ok := f.(MatchAll); ok {
		return rows, nil
	}
	result := make([]dataset.Row, 0)
	for _, row := range rows {
		ok, err := Matches(f, row)
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, row)
		}
	}
	return result, nil
}
