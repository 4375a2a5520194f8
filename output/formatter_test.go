package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleRows = []map[string]interface{}{
	{"rooms_shortname": "DMP", "maxSeats": 160.0},
	{"rooms_shortname": "=cmd", "maxSeats": 503.0},
}

func TestNew(t *testing.T) {
	for _, name := range []string{"jsonl", "json", "csv", "table", "CSV", ""} {
		f, err := New(name, &bytes.Buffer{})
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}
	_, err := New("xml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestJSONFormatter_ColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf).Format(sampleRows, []string{"rooms_shortname", "maxSeats"}))

	assert.Equal(t,
		`{"rooms_shortname":"DMP","maxSeats":160}`+"\n"+
			`{"rooms_shortname":"=cmd","maxSeats":503}`+"\n",
		buf.String())
}

func TestJSONFormatter_DefaultColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf).Format(sampleRows[:1], nil))
	assert.Equal(t, `{"maxSeats":160,"rooms_shortname":"DMP"}`+"\n", buf.String())
}

func TestCSVFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVFormatter(&buf).Format(sampleRows, []string{"rooms_shortname", "maxSeats"}))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"rooms_shortname", "maxSeats"},
		{"DMP", "160"},
		{"'=cmd", "503"},
	}, records)
}

func TestCSVFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVFormatter(&buf).Format(nil, []string{"a"}))
	assert.Empty(t, buf.String())
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"string", "cpsc", "cpsc"},
		{"formula", "=SUM(A1)", "'=SUM(A1)"},
		{"formula with quotes", "+'x'", "'+''x''"},
		{"negative looking text", "-1", "'-1"},
		{"float", 97.25, "97.25"},
		{"whole float", 1900.0, "1900"},
		{"negative float", -123.24807, "-123.24807"},
		{"int", int64(3), "3"},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.in))
		})
	}
}

func TestTableFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(&bytes.Buffer{})
	f.SetOutput(&buf)
	require.NoError(t, f.Format(sampleRows, []string{"rooms_shortname", "maxSeats"}))

	out := buf.String()
	assert.Contains(t, out, "rooms_shortname")
	assert.Contains(t, out, "maxSeats")
	assert.Contains(t, out, "DMP")
	assert.Contains(t, out, "=cmd")
	assert.Less(t, strings.Index(out, "DMP"), strings.Index(out, "=cmd"))

	buf.Reset()
	require.NoError(t, f.Format(nil, []string{"x"}))
	assert.Empty(t, buf.String())
}
