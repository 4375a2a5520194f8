package dataset

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
	pkgerrors "github.com/pkg/errors"

	"github.com/vegasq/insight/schema"
)

const (
	fileExt = ".parquet"

	// kindMetadataKey is the parquet key/value metadata entry holding the
	// dataset kind.
	kindMetadataKey = "insight.kind"
)

// ParquetDir persists each dataset as one parquet file in a directory.
//
// The dataset kind is stored in the file's key/value metadata so that
// listings need only the footer, never the rows.
type ParquetDir struct {
	dir string
}

// NewParquetDir returns a persister rooted at dir, creating it if needed.
func NewParquetDir(dir string) (*ParquetDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pkgerrors.Wrapf(err, "create storage dir %s", dir)
	}
	return &ParquetDir{dir: dir}, nil
}

func (p *ParquetDir) path(id string) string {
	return filepath.Join(p.dir, id+fileExt)
}

// Save writes ds atomically: rows go to a temporary file that is renamed
// into place once closed.
func (p *ParquetDir) Save(_ context.Context, ds *Dataset) error {
	tmp, err := os.CreateTemp(p.dir, ds.ID+".*.tmp")
	if err != nil {
		return pkgerrors.Wrap(err, "create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	switch ds.Kind {
	case schema.KindCourses:
		err = writeRecords(tmp, toCourseRecords(ds), ds.Kind)
	case schema.KindRooms:
		err = writeRecords(tmp, toRoomRecords(ds), ds.Kind)
	default:
		err = unsupportedKind(ds.Kind)
	}
	if err != nil {
		_ = tmp.Close()
		return pkgerrors.Wrapf(err, "write dataset %s", ds.ID)
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrap(err, "close temp file")
	}
	return pkgerrors.Wrap(os.Rename(tmp.Name(), p.path(ds.ID)), "rename dataset file")
}

func writeRecords[T any](w io.Writer, records []T, kind schema.Kind) error {
	writer := parquet.NewGenericWriter[T](w, parquet.KeyValueMetadata(kindMetadataKey, string(kind)))
	if _, err := writer.Write(records); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// Load reads the dataset with the given id.
func (p *ParquetDir) Load(_ context.Context, id string) (*Dataset, error) {
	file, pqFile, err := p.open(id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	kind, err := fileKind(pqFile)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "dataset %s", id)
	}

	ds := &Dataset{ID: id, Kind: kind}
	switch kind {
	case schema.KindCourses:
		records, err := readRecords[courseRecord](file, pqFile.NumRows())
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "read dataset %s", id)
		}
		ds.Rows = make([]Row, len(records))
		for i, r := range records {
			ds.Rows[i] = r.row(id)
		}
	case schema.KindRooms:
		records, err := readRecords[roomRecord](file, pqFile.NumRows())
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "read dataset %s", id)
		}
		ds.Rows = make([]Row, len(records))
		for i, r := range records {
			ds.Rows[i] = r.row(id)
		}
	default:
		return nil, unsupportedKind(kind)
	}
	return ds, nil
}

func readRecords[T any](r io.ReaderAt, numRows int64) ([]T, error) {
	reader := parquet.NewGenericReader[T](r)
	defer func() { _ = reader.Close() }()

	records := make([]T, 0, numRows)
	buf := make([]T, 512)
	for {
		n, err := reader.Read(buf)
		records = append(records, buf[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	return records, nil
}

// open opens the file of a dataset and its parquet footer.
func (p *ParquetDir) open(id string) (*os.File, *parquet.File, error) {
	file, err := os.Open(p.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, pkgerrors.Wrapf(ErrNotFound, "%q", id)
		}
		return nil, nil, pkgerrors.Wrap(err, "open dataset file")
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, pkgerrors.Wrap(err, "stat dataset file")
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, nil, pkgerrors.Wrap(err, "open parquet file")
	}
	return file, pqFile, nil
}

func fileKind(f *parquet.File) (schema.Kind, error) {
	v, ok := f.Lookup(kindMetadataKey)
	if !ok {
		return "", errors.New("missing dataset kind metadata")
	}
	return schema.ParseKind(v)
}

// Remove deletes the file of a dataset.
func (p *ParquetDir) Remove(_ context.Context, id string) error {
	if err := os.Remove(p.path(id)); err != nil {
		if os.IsNotExist(err) {
			return pkgerrors.Wrapf(ErrNotFound, "%q", id)
		}
		return pkgerrors.Wrap(err, "remove dataset file")
	}
	return nil
}

// Exists reports whether a dataset file is present.
func (p *ParquetDir) Exists(_ context.Context, id string) (bool, error) {
	_, err := os.Stat(p.path(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, pkgerrors.Wrap(err, "stat dataset file")
}

// List returns the id, kind and row count of every dataset file, read from
// the parquet footers.
func (p *ParquetDir) List(_ context.Context) ([]Info, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "read storage dir")
	}

	infos := make([]Info, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), fileExt)
		file, pqFile, err := p.open(id)
		if err != nil {
			return nil, err
		}
		kind, err := fileKind(pqFile)
		_ = file.Close()
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "dataset %s", id)
		}
		infos = append(infos, Info{ID: id, Kind: kind, NumRows: int(pqFile.NumRows())})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}
