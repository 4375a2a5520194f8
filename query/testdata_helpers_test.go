package query

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegasq/insight/dataset"
	"github.com/vegasq/insight/schema"
)

// memSource serves datasets from memory.
type memSource map[string]*dataset.Dataset

func (m memSource) View(_ context.Context, id string, fn func(*dataset.Dataset) error) error {
	ds, ok := m[id]
	if !ok {
		return fmt.Errorf("%w: %q", dataset.ErrNotFound, id)
	}
	return fn(ds)
}

// section describes one course row in tests.
type section struct {
	Dept, ID, Instructor, Title string
	Avg, Pass, Fail, Audit     float64
	Year                       float64
}

func courseRow(id string, uuid int, s section) dataset.Row {
	q := func(f string) string { return schema.Qualify(id, f) }
	return dataset.Row{
		q("dept"):       s.Dept,
		q("id"):         s.ID,
		q("instructor"): s.Instructor,
		q("title"):      s.Title,
		q("uuid"):       fmt.Sprint(uuid),
		q("avg"):        s.Avg,
		q("pass"):       s.Pass,
		q("fail"):       s.Fail,
		q("audit"):      s.Audit,
		q("year"):       s.Year,
	}
}

func createCoursesDataset(t *testing.T, id string, sections []section) *dataset.Dataset {
	t.Helper()
	ds := &dataset.Dataset{ID: id, Kind: schema.KindCourses}
	for i, s := range sections {
		ds.Rows = append(ds.Rows, courseRow(id, i+1, s))
	}
	require.NoError(t, ds.Validate())
	return ds
}

// room describes one room row in tests.
type room struct {
	Shortname, Number, Type, Furniture string
	Seats                              float64
}

func createRoomsDataset(t *testing.T, id string, rooms []room) *dataset.Dataset {
	t.Helper()
	ds := &dataset.Dataset{ID: id, Kind: schema.KindRooms}
	for _, r := range rooms {
		q := func(f string) string { return schema.Qualify(id, f) }
		ds.Rows = append(ds.Rows, dataset.Row{
			q("fullname"):  r.Shortname + " Building",
			q("shortname"): r.Shortname,
			q("number"):    r.Number,
			q("name"):      r.Shortname + "_" + r.Number,
			q("address"):   "1 Main Mall",
			q("type"):      r.Type,
			q("furniture"): r.Furniture,
			q("href"):      "http://example.com/" + r.Shortname + "-" + r.Number,
			q("lat"):       49.26,
			q("lon"):       -123.25,
			q("seats"):     r.Seats,
		})
	}
	require.NoError(t, ds.Validate())
	return ds
}

// sampleSections returns n sections; the first highAvg of them have an
// average above 97, the rest at or below 90.
func sampleSections(n, highAvg int) []section {
	depts := []string{"cpsc", "math", "phys", "chem"}
	sections := make([]section, 0, n)
	for i := 0; i < n; i++ {
		avg := 60 + float64(i%30)
		if i < highAvg {
			avg = 97.5 + float64(i%5)*0.5
		}
		sections = append(sections, section{
			Dept:       depts[i%len(depts)],
			ID:         fmt.Sprint(100 + i%7),
			Instructor: fmt.Sprintf("prof %d", i%11),
			Title:      fmt.Sprintf("course %d", i%7),
			Avg:        avg,
			Pass:       float64(20 + i%13),
			Fail:       float64(i % 5),
			Audit:      float64(i % 2),
			Year:       float64(2010 + i%8),
		})
	}
	return sections
}

func parseDoc(t *testing.T, src string) interface{} {
	t.Helper()
	var doc interface{}
	require.NoError(t, json.Unmarshal([]byte(src), &doc))
	return doc
}

func coursesResolver(t *testing.T) *schema.Resolver {
	t.Helper()
	r, err := schema.NewResolver("courses", schema.KindCourses)
	require.NoError(t, err)
	return r
}
