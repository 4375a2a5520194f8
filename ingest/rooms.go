package ingest

import (
	"bytes"
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/go-kit/log/level"
	"github.com/klauspost/compress/zip"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/vegasq/insight/dataset"
	"github.com/vegasq/insight/schema"
)

const (
	roomsIndex = "rooms/index.htm"

	classBuildingCode    = "views-field views-field-field-building-code"
	classBuildingTitle   = "views-field views-field-title"
	classBuildingAddress = "views-field views-field-field-building-address"
	classRoomNumber      = "views-field views-field-field-room-number"
	classRoomCapacity    = "views-field views-field-field-room-capacity"
	classRoomFurniture   = "views-field views-field-field-room-furniture"
	classRoomType        = "views-field views-field-field-room-type"
)

// building is one geocoded row of the rooms index.
type building struct {
	shortname string
	fullname  string
	address   string
	path      string
	location  Location
}

// buildingEntry is a row of the rooms index before geocoding.
type buildingEntry struct {
	shortname, fullname, address, path string
}

func (l *Loader) rooms(ctx context.Context, zr *zip.Reader, id string) ([]dataset.Row, error) {
	index := findFile(zr, roomsIndex)
	if index == nil {
		return nil, pkgerrors.Errorf("archive has no %s", roomsIndex)
	}
	data, err := readFile(index)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "parse rooms index")
	}

	buildings, err := l.buildings(ctx, indexEntries(doc))
	if err != nil {
		return nil, err
	}

	var rows []dataset.Row
	for _, b := range buildings {
		f := findFile(zr, b.path)
		if f == nil {
			level.Debug(l.logger).Log("msg", "building page missing from archive", "building", b.shortname, "path", b.path)
			continue
		}
		data, err := readFile(f)
		if err != nil {
			return nil, err
		}
		page, err := html.Parse(bytes.NewReader(data))
		if err != nil {
			level.Warn(l.logger).Log("msg", "skipping unparseable building page", "path", b.path, "err", err)
			continue
		}
		rows = append(rows, buildingRooms(page, b, id)...)
	}
	return rows, nil
}

// indexEntries reads the building rows of the first table of the index.
func indexEntries(doc *html.Node) []buildingEntry {
	table := firstElement(doc, "table")
	if table == nil {
		return nil
	}
	var entries []buildingEntry
	for _, tr := range allElements(table, "tr") {
		title := elementWithClass(tr, "td", classBuildingTitle)
		if title == nil {
			continue
		}
		path, ok := anchorHref(title)
		if !ok || path == "" {
			continue
		}
		shortname, okCode := firstText(elementWithClass(tr, "td", classBuildingCode))
		fullname, okName := firstText(title)
		address, okAddr := firstText(elementWithClass(tr, "td", classBuildingAddress))
		if !okCode || !okName || !okAddr {
			continue
		}
		entries = append(entries, buildingEntry{
			shortname: shortname,
			fullname:  fullname,
			address:   address,
			path:      strings.Replace(path, "./", "rooms/", 1),
		})
	}
	return entries
}

// buildings geocodes entries concurrently. A failed lookup drops only its
// building; the result keeps index order.
func (l *Loader) buildings(ctx context.Context, entries []buildingEntry) ([]building, error) {
	located := make([]*building, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			loc, err := l.geocoder.Geocode(ctx, e.address)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				level.Warn(l.logger).Log("msg", "geocoding failed, dropping building", "building", e.shortname, "address", e.address, "err", err)
				return nil
			}
			located[i] = &building{
				shortname: e.shortname,
				fullname:  e.fullname,
				address:   e.address,
				path:      e.path,
				location:  loc,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]building, 0, len(entries))
	for _, b := range located {
		if b != nil {
			out = append(out, *b)
		}
	}
	return out, nil
}

// buildingRooms reads the room rows of the first table of a building page.
// Rooms missing any field are dropped.
func buildingRooms(page *html.Node, b building, id string) []dataset.Row {
	table := firstElement(page, "table")
	if table == nil {
		return nil
	}

	q := func(name string) string { return schema.Qualify(id, name) }
	var rows []dataset.Row
	for _, tr := range allElements(table, "tr") {
		numberTd := elementWithClass(tr, "td", classRoomNumber)
		number, ok := firstText(numberTd)
		if !ok {
			continue
		}
		href, ok := anchorHref(numberTd)
		if !ok {
			continue
		}
		capacity, ok := firstText(elementWithClass(tr, "td", classRoomCapacity))
		if !ok {
			continue
		}
		seats, err := strconv.ParseFloat(capacity, 64)
		if err != nil || math.IsNaN(seats) || math.IsInf(seats, 0) {
			continue
		}
		furniture, ok := firstText(elementWithClass(tr, "td", classRoomFurniture))
		if !ok {
			continue
		}
		roomType, _ := firstText(elementWithClass(tr, "td", classRoomType))

		rows = append(rows, dataset.Row{
			q("fullname"):  b.fullname,
			q("shortname"): b.shortname,
			q("address"):   b.address,
			q("lat"):       b.location.Lat,
			q("lon"):       b.location.Lon,
			q("number"):    number,
			q("name"):      b.shortname + "_" + number,
			q("seats"):     seats,
			q("type"):      roomType,
			q("furniture"): furniture,
			q("href"):      href,
		})
	}
	return rows
}
