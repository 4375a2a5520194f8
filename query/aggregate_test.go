package query

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/insight/dataset"
)

func TestApplyTransformation_Grouping(t *testing.T) {
	ds := createCoursesDataset(t, "courses", sampleSections(200, 30))
	trans := &Transformation{
		Group: []string{"courses_dept", "courses_year"},
		Apply: []ApplySpec{{Name: "n", Op: Count, Field: "courses_uuid"}},
	}

	got, err := ApplyTransformation(ds.Rows, trans)
	require.NoError(t, err)

	distinct := make(map[string]int)
	for _, row := range ds.Rows {
		distinct[fmt.Sprint(row["courses_dept"], "|", row["courses_year"])]++
	}
	require.Len(t, got, len(distinct))

	// uuids are unique, so the counts cover every input row exactly once.
	var total float64
	for _, row := range got {
		key := fmt.Sprint(row["courses_dept"], "|", row["courses_year"])
		assert.Equal(t, float64(distinct[key]), row["n"])
		assert.Len(t, row, 3)
		total += row["n"].(float64)
	}
	assert.Equal(t, float64(len(ds.Rows)), total)
}

func TestApplyTransformation_Aggregates(t *testing.T) {
	ds := createCoursesDataset(t, "courses", []section{
		{Dept: "cpsc", Instructor: "a", Avg: 0.1, Pass: 10},
		{Dept: "cpsc", Instructor: "b", Avg: 0.2, Pass: 20},
		{Dept: "cpsc", Instructor: "a", Avg: 0.2, Pass: 30},
		{Dept: "math", Instructor: "c", Avg: 1.005, Pass: 5},
	})
	trans := &Transformation{
		Group: []string{"courses_dept"},
		Apply: []ApplySpec{
			{Name: "maxAvg", Op: Max, Field: "courses_avg"},
			{Name: "minAvg", Op: Min, Field: "courses_avg"},
			{Name: "sumAvg", Op: Sum, Field: "courses_avg"},
			{Name: "avgPass", Op: Avg, Field: "courses_pass"},
			{Name: "meanAvg", Op: Avg, Field: "courses_avg"},
			{Name: "profs", Op: Count, Field: "courses_instructor"},
			{Name: "avgs", Op: Count, Field: "courses_avg"},
		},
	}

	got, err := ApplyTransformation(ds.Rows, trans)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byDept := map[string]dataset.Row{}
	for _, row := range got {
		byDept[row["courses_dept"].(string)] = row
	}

	cpsc := byDept["cpsc"]
	assert.Equal(t, 0.2, cpsc["maxAvg"])
	assert.Equal(t, 0.1, cpsc["minAvg"])
	assert.Equal(t, 0.5, cpsc["sumAvg"])
	assert.Equal(t, 20.0, cpsc["avgPass"])
	assert.Equal(t, 0.17, cpsc["meanAvg"])
	assert.Equal(t, 2.0, cpsc["profs"])
	assert.Equal(t, 2.0, cpsc["avgs"])

	// 1.005 rounds half away from zero.
	math := byDept["math"]
	assert.Equal(t, 1.01, math["sumAvg"])
	assert.Equal(t, 1.01, math["meanAvg"])
}

func TestApplyTransformation_RoundingIsOrderIndependent(t *testing.T) {
	values := []float64{0.1, 0.7, 0.3, 1e-3, 12.345, 99.995, 0.2}
	var rows []dataset.Row
	for _, v := range values {
		rows = append(rows, dataset.Row{"courses_dept": "x", "courses_avg": v})
	}
	reversed := make([]dataset.Row, len(rows))
	for i := range rows {
		reversed[len(rows)-1-i] = rows[i]
	}
	trans := &Transformation{
		Group: []string{"courses_dept"},
		Apply: []ApplySpec{
			{Name: "s", Op: Sum, Field: "courses_avg"},
			{Name: "a", Op: Avg, Field: "courses_avg"},
		},
	}

	forward, err := ApplyTransformation(rows, trans)
	require.NoError(t, err)
	backward, err := ApplyTransformation(reversed, trans)
	require.NoError(t, err)
	assert.Equal(t, forward, backward)

	for _, name := range []string{"s", "a"} {
		d := decimal.NewFromFloat(forward[0][name].(float64))
		assert.True(t, d.Equal(d.Round(2)), "%s=%v has more than two places", name, d)
	}
	assert.Equal(t, 113.64, forward[0]["s"])
	assert.Equal(t, 16.23, forward[0]["a"])
}

func TestApplyTransformation_NonNumericValue(t *testing.T) {
	rows := []dataset.Row{{"courses_dept": "x", "courses_avg": "high"}}
	_, err := ApplyTransformation(rows, &Transformation{
		Group: []string{"courses_dept"},
		Apply: []ApplySpec{{Name: "s", Op: Sum, Field: "courses_avg"}},
	})
	assert.True(t, errors.Is(err, ErrInvalidQuery))
}

func TestEvaluateAggregate_EmptyBucketAverage(t *testing.T) {
	v, err := evaluateAggregate(ApplySpec{Name: "a", Op: Avg, Field: "courses_avg"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestApplyTransformation_NonFiniteValue(t *testing.T) {
	for _, op := range []Aggregator{Sum, Avg, Max, Min} {
		for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			rows := []dataset.Row{
				{"rooms_shortname": "DMP", "rooms_seats": 40.0},
				{"rooms_shortname": "DMP", "rooms_seats": v},
			}
			_, err := ApplyTransformation(rows, &Transformation{
				Group: []string{"rooms_shortname"},
				Apply: []ApplySpec{{Name: "s", Op: op, Field: "rooms_seats"}},
			})
			assert.True(t, errors.Is(err, ErrInvalidQuery), "%s over %v: %v", op, v, err)
		}
	}
}
