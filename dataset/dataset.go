// Package dataset holds loaded datasets, the in-memory cache that owns them
// and the parquet files they are persisted to.
//
// Rows are maps from qualified field name to a float64 (numeric fields) or a
// string (textual fields). A row is never mutated once its dataset has been
// added.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/vegasq/insight/schema"
)

var (
	// ErrNotFound is returned when no dataset has the requested id.
	ErrNotFound = errors.New("dataset not found")

	// ErrExists is returned when adding a dataset whose id is taken.
	ErrExists = errors.New("dataset already exists")

	// ErrInvalidID is returned for ids that are empty, blank, or contain the
	// field separator or a path separator.
	ErrInvalidID = errors.New("invalid dataset id")
)

// Row is one record of a dataset.
type Row = map[string]interface{}

// Dataset is a named, typed collection of rows.
type Dataset struct {
	ID   string
	Kind schema.Kind
	Rows []Row
}

// Info summarises a dataset for listings.
type Info struct {
	ID      string      `json:"id"`
	Kind    schema.Kind `json:"kind"`
	NumRows int         `json:"numRows"`
}

// Info returns the listing entry of d.
func (d *Dataset) Info() Info {
	return Info{ID: d.ID, Kind: d.Kind, NumRows: len(d.Rows)}
}

// ValidateID checks that id can name a dataset.
func ValidateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: id is empty", ErrInvalidID)
	case strings.Contains(id, schema.Separator):
		return fmt.Errorf("%w: %q contains %q", ErrInvalidID, id, schema.Separator)
	case strings.ContainsAny(id, `/\`), id == ".", id == "..":
		return fmt.Errorf("%w: %q is not a valid file name", ErrInvalidID, id)
	}
	return nil
}

// Validate checks the id and that every row carries every field of the
// dataset's schema with its declared type.
func (d *Dataset) Validate() error {
	if err := ValidateID(d.ID); err != nil {
		return err
	}
	s, err := schema.For(d.Kind)
	if err != nil {
		return err
	}
	for i, row := range d.Rows {
		if err := validRow(row, d.ID, s); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

func validRow(row Row, id string, s schema.Schema) error {
	for field := range s.Numeric {
		key := schema.Qualify(id, field)
		v, ok := row[key].(float64)
		if !ok {
			return fmt.Errorf("field %q: want number, got %T", key, row[key])
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("field %q: want finite number, got %v", key, v)
		}
	}
	for field := range s.Textual {
		key := schema.Qualify(id, field)
		if _, ok := row[key].(string); !ok {
			return fmt.Errorf("field %q: want string, got %T", key, row[key])
		}
	}
	return nil
}
