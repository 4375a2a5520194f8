// Package ingest turns source archives into datasets.
//
// A courses archive holds JSON files under courses/; a rooms archive holds an
// HTML index of buildings at rooms/index.htm and one HTML page per building.
// Building addresses are resolved to coordinates with a Geocoder.
package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/klauspost/compress/zip"
	pkgerrors "github.com/pkg/errors"

	"github.com/vegasq/insight/dataset"
	"github.com/vegasq/insight/schema"
)

// ErrNoValidRows is returned when an archive yields no valid row.
var ErrNoValidRows = errors.New("archive contains no valid rows")

// Loader builds datasets from archives.
type Loader struct {
	geocoder    Geocoder
	concurrency int
	logger      log.Logger
}

// NewLoader returns a loader that geocodes at most concurrency buildings at
// a time.
func NewLoader(geocoder Geocoder, concurrency int, logger log.Logger) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{
		geocoder:    geocoder,
		concurrency: concurrency,
		logger:      log.With(logger, "component", "ingest"),
	}
}

// Load parses content, a zip archive given raw or base64 encoded, into a
// dataset of the given kind. Rows are keyed by fields qualified with id.
func (l *Loader) Load(ctx context.Context, id string, kind schema.Kind, content []byte) (*dataset.Dataset, error) {
	if err := dataset.ValidateID(id); err != nil {
		return nil, err
	}
	if _, err := schema.For(kind); err != nil {
		return nil, err
	}

	start := time.Now()
	zr, err := openArchive(content)
	if err != nil {
		return nil, err
	}

	var rows []dataset.Row
	switch kind {
	case schema.KindCourses:
		rows, err = l.courses(zr, id)
	case schema.KindRooms:
		rows, err = l.rooms(ctx, zr, id)
	default:
		err = fmt.Errorf("no ingester for dataset kind %q", kind)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, pkgerrors.Wrapf(ErrNoValidRows, "%s archive for %q", kind, id)
	}

	ds := &dataset.Dataset{ID: id, Kind: kind, Rows: rows}
	if err := ds.Validate(); err != nil {
		return nil, pkgerrors.Wrap(err, "ingested rows")
	}
	level.Info(l.logger).Log("msg", "archive ingested", "id", id, "kind", kind, "rows", len(rows), "duration", time.Since(start))
	return ds, nil
}

// openArchive opens a zip archive. Content that is not a zip archive is
// decoded as base64 first.
func openArchive(content []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err == nil {
		return zr, nil
	}

	decoded, decErr := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(content)))
	if decErr != nil {
		return nil, pkgerrors.Wrap(err, "open zip archive")
	}
	zr, err = zip.NewReader(bytes.NewReader(decoded), int64(len(decoded)))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open base64 zip archive")
	}
	return zr, nil
}

// readFile returns the content of one archive entry.
func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open %s", f.Name)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "read %s", f.Name)
	}
	return data, nil
}

// findFile returns the archive entry with the given name.
func findFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
