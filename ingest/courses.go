package ingest

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-kit/log/level"
	"github.com/klauspost/compress/zip"

	"github.com/vegasq/insight/dataset"
	"github.com/vegasq/insight/schema"
)

const (
	coursesDir = "courses/"

	// overallYear replaces the year of "overall" sections, which aggregate
	// every offering of a course.
	overallYear = 1900
)

// sectionTypes is the JSON type every kept section field must have.
var sectionTypes = map[string]string{
	"Subject":   "string",
	"Course":    "string",
	"Avg":       "number",
	"Professor": "string",
	"Title":     "string",
	"Pass":      "number",
	"Fail":      "number",
	"Audit":     "number",
	"id":        "number",
	"Year":      "string",
}

var leadingInt = regexp.MustCompile(`^\s*[+-]?\d+`)

func (l *Loader) courses(zr *zip.Reader, id string) ([]dataset.Row, error) {
	var rows []dataset.Row
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, coursesDir) || f.Name == coursesDir || f.FileInfo().IsDir() {
			continue
		}
		data, err := readFile(f)
		if err != nil {
			return nil, err
		}
		sections, ok := parseSections(data)
		if !ok {
			level.Debug(l.logger).Log("msg", "skipping unparseable course file", "file", f.Name)
			continue
		}
		for _, s := range sections {
			if row, ok := sectionRow(s, id); ok {
				rows = append(rows, row)
			}
		}
	}
	return rows, nil
}

func parseSections(data []byte) ([]map[string]interface{}, bool) {
	var file struct {
		Result []json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &file); err != nil || file.Result == nil {
		return nil, false
	}
	sections := make([]map[string]interface{}, 0, len(file.Result))
	for _, raw := range file.Result {
		var s map[string]interface{}
		if err := json.Unmarshal(raw, &s); err != nil || s == nil {
			continue
		}
		sections = append(sections, s)
	}
	return sections, true
}

func jsonType(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	default:
		return "other"
	}
}

// sectionRow converts one section, or reports false when a field is missing
// or mistyped.
func sectionRow(s map[string]interface{}, id string) (dataset.Row, bool) {
	for field, want := range sectionTypes {
		if jsonType(s[field]) != want {
			return nil, false
		}
	}

	year := float64(overallYear)
	if section, _ := s["Section"].(string); section != "overall" {
		m := leadingInt.FindString(s["Year"].(string))
		if m == "" {
			return nil, false
		}
		y, err := strconv.Atoi(strings.TrimSpace(m))
		if err != nil {
			return nil, false
		}
		year = float64(y)
	}

	q := func(name string) string { return schema.Qualify(id, name) }
	return dataset.Row{
		q("dept"):       s["Subject"],
		q("id"):         s["Course"],
		q("avg"):        s["Avg"],
		q("instructor"): s["Professor"],
		q("title"):      s["Title"],
		q("pass"):       s["Pass"],
		q("fail"):       s["Fail"],
		q("audit"):      s["Audit"],
		q("uuid"):       strconv.FormatFloat(s["id"].(float64), 'f', -1, 64),
		q("year"):       year,
	}, true
}
