package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// Location is a geocoded address.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocoder resolves a street address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Location, error)
}

// HTTPGeocoder queries a service answering GET <base>/<escaped address>
// with {"lat": n, "lon": n} or {"error": msg}.
type HTTPGeocoder struct {
	base   string
	client *http.Client
}

// NewHTTPGeocoder returns a geocoder for the service at base.
func NewHTTPGeocoder(base string, timeout time.Duration) *HTTPGeocoder {
	return &HTTPGeocoder{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

type geoResponse struct {
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Error string   `json:"error"`
}

// Geocode implements Geocoder.
func (g *HTTPGeocoder) Geocode(ctx context.Context, address string) (Location, error) {
	if g.base == "" {
		return Location{}, fmt.Errorf("no geocoder configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.base+"/"+url.PathEscape(address), nil)
	if err != nil {
		return Location{}, pkgerrors.Wrap(err, "build geocoder request")
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return Location{}, pkgerrors.Wrap(err, "geocoder request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Location{}, pkgerrors.Wrap(err, "read geocoder response")
	}
	var gr geoResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return Location{}, pkgerrors.Wrapf(err, "decode geocoder response (status %d)", resp.StatusCode)
	}
	if gr.Error != "" {
		return Location{}, fmt.Errorf("geocoder: %s", gr.Error)
	}
	if gr.Lat == nil || gr.Lon == nil {
		return Location{}, fmt.Errorf("geocoder: response without coordinates (status %d)", resp.StatusCode)
	}
	return Location{Lat: *gr.Lat, Lon: *gr.Lon}, nil
}

// StaticGeocoder serves coordinates from a fixed table. It is used for
// offline ingestion and tests.
type StaticGeocoder map[string]Location

// Geocode implements Geocoder.
func (s StaticGeocoder) Geocode(_ context.Context, address string) (Location, error) {
	loc, ok := s[address]
	if !ok {
		return Location{}, fmt.Errorf("unknown address %q", address)
	}
	return loc, nil
}
