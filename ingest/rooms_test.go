package ingest

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/vegasq/insight/schema"
)

const roomsIndexHTML = `<!DOCTYPE html>
<html><head><title>Buildings</title></head>
<body>
<table class="views-table">
  <thead><tr>
    <th class="views-field views-field-field-building-code">Code</th>
    <th class="views-field views-field-title">Building</th>
    <th class="views-field views-field-field-building-address">Address</th>
  </tr></thead>
  <tbody>
    <tr>
      <td class="views-field views-field-field-building-code"> DMP </td>
      <td class="views-field views-field-title"><a href="./campus/discover/buildings-and-classrooms/DMP.htm">Hugh Dempster Pavilion</a></td>
      <td class="views-field views-field-field-building-address">6245 Agronomy Road V6T 1Z4</td>
    </tr>
    <tr>
      <td class="views-field views-field-field-building-code">NOWHERE</td>
      <td class="views-field views-field-title"><a href="./campus/discover/buildings-and-classrooms/NOWHERE.htm">Lost Hall</a></td>
      <td class="views-field views-field-field-building-address">1 Unknown Street</td>
    </tr>
    <tr>
      <td class="views-field views-field-field-building-code">NOPAGE</td>
      <td class="views-field views-field-title"><a href="./campus/discover/buildings-and-classrooms/NOPAGE.htm">Missing Page</a></td>
      <td class="views-field views-field-field-building-address">2 Main Mall</td>
    </tr>
    <tr>
      <td class="views-field views-field-field-building-code">NOLINK</td>
      <td class="views-field views-field-title">No Link Hall</td>
      <td class="views-field views-field-field-building-address">3 Main Mall</td>
    </tr>
  </tbody>
</table>
</body></html>`

const dmpHTML = `<html><body>
<div id="building-info"><h2>Hugh Dempster Pavilion</h2></div>
<table class="views-table">
  <thead><tr>
    <th class="views-field views-field-field-room-number">Room</th>
    <th class="views-field views-field-field-room-capacity">Capacity</th>
  </tr></thead>
  <tbody>
    <tr>
      <td class="views-field views-field-field-room-number"><a href="http://students.ubc.ca/room/DMP-110">110</a></td>
      <td class="views-field views-field-field-room-capacity">120</td>
      <td class="views-field views-field-field-room-furniture">Classroom-Fixed Tables/Movable Chairs</td>
      <td class="views-field views-field-field-room-type">Tiered Large Group</td>
    </tr>
    <tr>
      <td class="views-field views-field-field-room-number"><a href="http://students.ubc.ca/room/DMP-201">201</a></td>
      <td class="views-field views-field-field-room-capacity">40</td>
      <td class="views-field views-field-field-room-furniture">Classroom-Movable Tables &amp; Chairs</td>
      <td class="views-field views-field-field-room-type"></td>
    </tr>
    <tr>
      <td class="views-field views-field-field-room-number"><a href="http://students.ubc.ca/room/DMP-999">999</a></td>
      <td class="views-field views-field-field-room-capacity">lots</td>
      <td class="views-field views-field-field-room-furniture">None</td>
      <td class="views-field views-field-field-room-type">Closet</td>
    </tr>
    <tr>
      <td class="views-field views-field-field-room-number"><a href="http://students.ubc.ca/room/DMP-301">301</a></td>
      <td class="views-field views-field-field-room-capacity">NaN</td>
      <td class="views-field views-field-field-room-furniture">None</td>
      <td class="views-field views-field-field-room-type">Closet</td>
    </tr>
    <tr>
      <td class="views-field views-field-field-room-number"><a href="http://students.ubc.ca/room/DMP-302">302</a></td>
      <td class="views-field views-field-field-room-capacity">+Inf</td>
      <td class="views-field views-field-field-room-furniture">None</td>
      <td class="views-field views-field-field-room-type">Closet</td>
    </tr>
  </tbody>
</table>
</body></html>`

func roomsArchive(t *testing.T) []byte {
	return buildArchive(t, map[string]string{
		"rooms/index.htm": roomsIndexHTML,
		"rooms/campus/discover/buildings-and-classrooms/DMP.htm":     dmpHTML,
		"rooms/campus/discover/buildings-and-classrooms/NOWHERE.htm": dmpHTML,
	})
}

func TestLoad_Rooms(t *testing.T) {
	geo := StaticGeocoder{
		"6245 Agronomy Road V6T 1Z4": {Lat: 49.26125, Lon: -123.24807},
		"2 Main Mall":                {Lat: 49.2, Lon: -123.2},
	}
	l := NewLoader(geo, 4, log.NewNopLogger())

	ds, err := l.Load(context.Background(), "campus", schema.KindRooms, roomsArchive(t))
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)

	sort.Slice(ds.Rows, func(i, j int) bool {
		return ds.Rows[i]["campus_name"].(string) < ds.Rows[j]["campus_name"].(string)
	})

	first := ds.Rows[0]
	assert.Equal(t, "DMP", first["campus_shortname"])
	assert.Equal(t, "Hugh Dempster Pavilion", first["campus_fullname"])
	assert.Equal(t, "6245 Agronomy Road V6T 1Z4", first["campus_address"])
	assert.Equal(t, "DMP_110", first["campus_name"])
	assert.Equal(t, "110", first["campus_number"])
	assert.Equal(t, 120.0, first["campus_seats"])
	assert.Equal(t, "Tiered Large Group", first["campus_type"])
	assert.Equal(t, "Classroom-Fixed Tables/Movable Chairs", first["campus_furniture"])
	assert.Equal(t, "http://students.ubc.ca/room/DMP-110", first["campus_href"])
	assert.Equal(t, 49.26125, first["campus_lat"])
	assert.Equal(t, -123.24807, first["campus_lon"])

	second := ds.Rows[1]
	assert.Equal(t, "DMP_201", second["campus_name"])
	assert.Equal(t, "", second["campus_type"])
	assert.Equal(t, "Classroom-Movable Tables & Chairs", second["campus_furniture"])
}

func TestLoad_RoomsNoneGeocoded(t *testing.T) {
	l := NewLoader(StaticGeocoder{}, 4, log.NewNopLogger())
	_, err := l.Load(context.Background(), "campus", schema.KindRooms, roomsArchive(t))
	assert.True(t, errors.Is(err, ErrNoValidRows))
}

func TestLoad_RoomsMissingIndex(t *testing.T) {
	archive := buildArchive(t, map[string]string{"rooms/other.htm": dmpHTML})
	_, err := newTestLoader().Load(context.Background(), "campus", schema.KindRooms, archive)
	assert.Error(t, err)
}

func TestLoad_RoomsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewLoader(cancelledGeocoder{}, 1, log.NewNopLogger())
	_, err := l.Load(ctx, "campus", schema.KindRooms, roomsArchive(t))
	assert.True(t, errors.Is(err, context.Canceled))
}

type cancelledGeocoder struct{}

func (cancelledGeocoder) Geocode(ctx context.Context, _ string) (Location, error) {
	return Location{}, ctx.Err()
}

func TestBuildingRooms_DropsNonFiniteCapacity(t *testing.T) {
	page, err := html.Parse(strings.NewReader(dmpHTML))
	require.NoError(t, err)

	rows := buildingRooms(page, building{shortname: "DMP", fullname: "Hugh Dempster Pavilion"}, "campus")
	var names []string
	for _, r := range rows {
		seats := r["campus_seats"].(float64)
		assert.False(t, math.IsNaN(seats) || math.IsInf(seats, 0), "room %v has seats %v", r["campus_name"], seats)
		names = append(names, r["campus_name"].(string))
	}
	assert.Equal(t, []string{"DMP_110", "DMP_201"}, names)
}
