package dataset

import (
	"fmt"

	"github.com/vegasq/insight/schema"
)

// courseRecord is the on-disk layout of a course section.
type courseRecord struct {
	Dept       string  `parquet:"dept"`
	ID         string  `parquet:"id"`
	Instructor string  `parquet:"instructor"`
	Title      string  `parquet:"title"`
	UUID       string  `parquet:"uuid"`
	Avg        float64 `parquet:"avg"`
	Pass       float64 `parquet:"pass"`
	Fail       float64 `parquet:"fail"`
	Audit      float64 `parquet:"audit"`
	Year       float64 `parquet:"year"`
}

// roomRecord is the on-disk layout of a room.
type roomRecord struct {
	Fullname  string  `parquet:"fullname"`
	Shortname string  `parquet:"shortname"`
	Number    string  `parquet:"number"`
	Name      string  `parquet:"name"`
	Address   string  `parquet:"address"`
	Type      string  `parquet:"type"`
	Furniture string  `parquet:"furniture"`
	Href      string  `parquet:"href"`
	Lat       float64 `parquet:"lat"`
	Lon       float64 `parquet:"lon"`
	Seats     float64 `parquet:"seats"`
}

// fields reads qualified values out of a validated row.
type fields struct {
	id  string
	row Row
}

func (f fields) str(name string) string {
	s, _ := f.row[schema.Qualify(f.id, name)].(string)
	return s
}

func (f fields) num(name string) float64 {
	n, _ := f.row[schema.Qualify(f.id, name)].(float64)
	return n
}

func toCourseRecords(ds *Dataset) []courseRecord {
	records := make([]courseRecord, len(ds.Rows))
	for i, row := range ds.Rows {
		f := fields{id: ds.ID, row: row}
		records[i] = courseRecord{
			Dept:       f.str("dept"),
			ID:         f.str("id"),
			Instructor: f.str("instructor"),
			Title:      f.str("title"),
			UUID:       f.str("uuid"),
			Avg:        f.num("avg"),
			Pass:       f.num("pass"),
			Fail:       f.num("fail"),
			Audit:      f.num("audit"),
			Year:       f.num("year"),
		}
	}
	return records
}

func (r courseRecord) row(id string) Row {
	q := func(name string) string { return schema.Qualify(id, name) }
	return Row{
		q("dept"):       r.Dept,
		q("id"):         r.ID,
		q("instructor"): r.Instructor,
		q("title"):      r.Title,
		q("uuid"):       r.UUID,
		q("avg"):        r.Avg,
		q("pass"):       r.Pass,
		q("fail"):       r.Fail,
		q("audit"):      r.Audit,
		q("year"):       r.Year,
	}
}

func toRoomRecords(ds *Dataset) []roomRecord {
	records := make([]roomRecord, len(ds.Rows))
	for i, row := range ds.Rows {
		f := fields{id: ds.ID, row: row}
		records[i] = roomRecord{
			Fullname:  f.str("fullname"),
			Shortname: f.str("shortname"),
			Number:    f.str("number"),
			Name:      f.str("name"),
			Address:   f.str("address"),
			Type:      f.str("type"),
			Furniture: f.str("furniture"),
			Href:      f.str("href"),
			Lat:       f.num("lat"),
			Lon:       f.num("lon"),
			Seats:     f.num("seats"),
		}
	}
	return records
}

func (r roomRecord) row(id string) Row {
	q := func(name string) string { return schema.Qualify(id, name) }
	return Row{
		q("fullname"):  r.Fullname,
		q("shortname"): r.Shortname,
		q("number"):    r.Number,
		q("name"):      r.Name,
		q("address"):   r.Address,
		q("type"):      r.Type,
		q("furniture"): r.Furniture,
		q("href"):      r.Href,
		q("lat"):       r.Lat,
		q("lon"):       r.Lon,
		q("seats"):     r.Seats,
	}
}

func unsupportedKind(kind schema.Kind) error {
	return fmt.Errorf("no on-disk layout for dataset kind %q", kind)
}
