package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "강남역", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(`[{"lat":"37.4979","lon":"127.0276","display_name":"Gangnam Station"}]`))
	}))
	defer srv.Close()

	p, name, err := NewGeocoder(srv.URL+"/").Geocode(context.Background(), " 강남역 ")
	require.NoError(t, err)
	assert.InDelta(t, 37.4979, p.Lat, 1e-9)
	assert.InDelta(t, 127.0276, p.Lng, 1e-9)
	assert.Equal(t, "Gangnam Station", name)
}

func TestGeocodeNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, _, err := NewGeocoder(srv.URL).Geocode(context.Background(), "nowhere")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlaceNotFound))
}

func TestGeocodeStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, _, err := NewGeocoder(srv.URL).Geocode(context.Background(), "somewhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
