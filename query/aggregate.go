package query

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vegasq/insight/dataset"
)

// roundPlaces is the precision of SUM and AVG.
const roundPlaces = 2

// group is a bucket of rows sharing one grouping-key tuple.
type group struct {
	values map[string]interface{}
	rows   []dataset.Row
}

// ApplyTransformation partitions rows by t.Group and emits one row per
// bucket holding the group values and every APPLY output. Buckets appear in
// order of first discovery.
func ApplyTransformation(rows []dataset.Row, t *Transformation) ([]dataset.Row, error) {
	groups := make(map[string]*group)
	var order []string

	for _, row := range rows {
		key, values, err := computeGroupKey(row, t.Group)
		if err != nil {
			return nil, err
		}
		if g, ok := groups[key]; ok {
			g.rows = append(g.rows, row)
			continue
		}
		groups[key] = &group{values: values, rows: []dataset.Row{row}}
		order = append(order, key)
	}

	result := make([]dataset.Row, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		out := make(dataset.Row, len(g.values)+len(t.Apply))
		for k, v := range g.values {
			out[k] = v
		}
		for _, spec := range t.Apply {
			v, err := evaluateAggregate(spec, g.rows)
			if err != nil {
				return nil, err
			}
			out[spec.Name] = v
		}
		result = append(result, out)
	}
	return result, nil
}

// computeGroupKey builds a key that is equal for two rows exactly when their
// grouping values are equal.
func computeGroupKey(row dataset.Row, columns []string) (string, map[string]interface{}, error) {
	var keyBuilder strings.Builder
	values := make(map[string]interface{}, len(columns))

	for i, col := range columns {
		value, ok := row[col]
		if !ok {
			return "", nil, invalidf("%s key %q missing from row", keyGroup, col)
		}
		if i > 0 {
			keyBuilder.WriteString("\x00||\x00")
		}
		keyBuilder.WriteString(fmt.Sprintf("%#v", value))
		values[col] = value
	}
	return keyBuilder.String(), values, nil
}

func evaluateAggregate(spec ApplySpec, rows []dataset.Row) (float64, error) {
	switch spec.Op {
	case Max:
		return evaluateExtreme(spec, rows, func(a, b float64) bool { return a > b })
	case Min:
		return evaluateExtreme(spec, rows, func(a, b float64) bool { return a < b })
	case Sum:
		sum, err := decimalSum(spec, rows)
		if err != nil {
			return 0, err
		}
		return sum.Round(roundPlaces).InexactFloat64(), nil
	case Avg:
		if len(rows) == 0 {
			return 0, nil
		}
		sum, err := decimalSum(spec, rows)
		if err != nil {
			return 0, err
		}
		return sum.Div(decimal.NewFromInt(int64(len(rows)))).Round(roundPlaces).InexactFloat64(), nil
	case Count:
		distinct := make(map[interface{}]struct{}, len(rows))
		for _, row := range rows {
			v, ok := row[spec.Field]
			if !ok {
				return 0, invalidf("%s %q: %q missing from row", keyApply, spec.Name, spec.Field)
			}
			distinct[v] = struct{}{}
		}
		return float64(len(distinct)), nil
	default:
		return 0, invalidf("%s %q: unknown operator %q", keyApply, spec.Name, spec.Op)
	}
}

func numericValue(spec ApplySpec, row dataset.Row) (float64, error) {
	v, ok := row[spec.Field].(float64)
	if !ok {
		return 0, invalidf("%s %q: %s over non-numeric %q", keyApply, spec.Name, spec.Op, spec.Field)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalidf("%s %q: %s over non-finite value %v of %q", keyApply, spec.Name, spec.Op, v, spec.Field)
	}
	return v, nil
}

func evaluateExtreme(spec ApplySpec, rows []dataset.Row, better func(a, b float64) bool) (float64, error) {
	var result float64
	for i, row := range rows {
		v, err := numericValue(spec, row)
		if err != nil {
			return 0, err
		}
		if i == 0 || better(v, result) {
			result = v
		}
	}
	return result, nil
}

// decimalSum adds the field exactly, so the result does not depend on the
// order of the rows.
func decimalSum(spec ApplySpec, rows []dataset.Row) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, row := range rows {
		v, err := numericValue(spec, row)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum, nil
}
