package query

import (
	"math"
	"sort"

	"github.com/vegasq/insight/dataset"
)

// ApplyOrder sorts rows in place and returns them.
//
// A single plain key is a stable ascending sort. A hierarchical order
// partitions by its first key, orders each partition by the remaining keys
// and concatenates the partitions in ascending order of the first key; a
// descending direction reverses the whole sequence once at the end.
//
// numeric reports whether a column compares numerically in hierarchical
// ordering; other columns compare lexically.
func ApplyOrder(rows []dataset.Row, o *Order, numeric func(column string) bool) ([]dataset.Row, error) {
	if o == nil || len(o.Keys) == 0 {
		return rows, nil
	}
	if !o.Hierarchical {
		return orderSingle(rows, o.Keys[0])
	}

	sorted, err := orderHierarchical(rows, o.Keys, numeric)
	if err != nil {
		return nil, err
	}
	if o.Descending {
		for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
			sorted[i], sorted[j] = sorted[j], sorted[i]
		}
	}
	return sorted, nil
}

func orderSingle(rows []dataset.Row, key string) ([]dataset.Row, error) {
	// Values must share one type across the whole result.
	var numbers, texts int
	for _, row := range rows {
		switch v := row[key].(type) {
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, invalidf("%s key %q holds non-finite number %v", keyOrder, key, v)
			}
			numbers++
		case string:
			texts++
		default:
			return nil, invalidf("%s key %q has unsortable value %v", keyOrder, key, row[key])
		}
	}
	if numbers > 0 && texts > 0 {
		return nil, invalidf("%s key %q mixes numbers and strings", keyOrder, key)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return compareValues(rows[i][key], rows[j][key]) < 0
	})
	return rows, nil
}

// partition is the run of rows sharing one value of an ORDER key.
type partition struct {
	value interface{}
	rows  []dataset.Row
}

func orderHierarchical(rows []dataset.Row, keys []string, numeric func(string) bool) ([]dataset.Row, error) {
	if len(keys) == 0 || len(rows) == 0 {
		return rows, nil
	}
	key := keys[0]
	isNumeric := numeric(key)

	index := make(map[interface{}]int)
	var parts []*partition
	for _, row := range rows {
		v, ok := row[key]
		if !ok {
			return nil, invalidf("%s key %q missing from row", keyOrder, key)
		}
		if err := checkOrderValue(key, v, isNumeric); err != nil {
			return nil, err
		}
		if i, ok := index[v]; ok {
			parts[i].rows = append(parts[i].rows, row)
			continue
		}
		index[v] = len(parts)
		parts = append(parts, &partition{value: v, rows: []dataset.Row{row}})
	}

	for _, p := range parts {
		sorted, err := orderHierarchical(p.rows, keys[1:], numeric)
		if err != nil {
			return nil, err
		}
		p.rows = sorted
	}

	sort.SliceStable(parts, func(i, j int) bool {
		return compareValues(parts[i].value, parts[j].value) < 0
	})

	result := make([]dataset.Row, 0, len(rows))
	for _, p := range parts {
		result = append(result, p.rows...)
	}
	return result, nil
}

func checkOrderValue(key string, v interface{}, numeric bool) error {
	switch n := v.(type) {
	case float64:
		if !numeric {
			return invalidf("%s key %q is textual but holds number %v", keyOrder, key, v)
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return invalidf("%s key %q holds non-finite number %v", keyOrder, key, n)
		}
	case string:
		if numeric {
			return invalidf("%s key %q is numeric but holds string %q", keyOrder, key, v)
		}
	default:
		return invalidf("%s key %q has unsortable value %v", keyOrder, key, v)
	}
	return nil
}

// compareValues orders two values of the same type: numbers numerically,
// strings lexically.
func compareValues(a, b interface{}) int {
	switch av := a.(type) {
	case float64:
		bv, _ := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	case string:
		bv, _ := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	}
	return 0
}
