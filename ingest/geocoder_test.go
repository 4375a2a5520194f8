package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGeocoder(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		switch r.URL.Path {
		case "/api/6245 Agronomy Road V6T 1Z4":
			_, _ = w.Write([]byte(`{"lat": 49.26125, "lon": -123.24807}`))
		case "/api/nowhere":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": "address not found"}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	g := NewHTTPGeocoder(srv.URL+"/api/", time.Second)
	ctx := context.Background()

	loc, err := g.Geocode(ctx, "6245 Agronomy Road V6T 1Z4")
	require.NoError(t, err)
	assert.Equal(t, Location{Lat: 49.26125, Lon: -123.24807}, loc)
	assert.Equal(t, "/api/6245%20Agronomy%20Road%20V6T%201Z4", gotPath)

	_, err = g.Geocode(ctx, "nowhere")
	assert.ErrorContains(t, err, "address not found")

	_, err = g.Geocode(ctx, "empty")
	assert.ErrorContains(t, err, "without coordinates")
}

func TestHTTPGeocoder_Unconfigured(t *testing.T) {
	_, err := NewHTTPGeocoder("", time.Second).Geocode(context.Background(), "x")
	assert.Error(t, err)
}

func TestStaticGeocoder(t *testing.T) {
	g := StaticGeocoder{"a": {Lat: 1, Lon: 2}}
	loc, err := g.Geocode(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, Location{Lat: 1, Lon: 2}, loc)

	_, err = g.Geocode(context.Background(), "b")
	assert.Error(t, err)
}
