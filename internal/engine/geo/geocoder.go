package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rendis/mealspin/internal/model"
)

// ErrPlaceNotFound is returned when the geocoder has no match for an address.
var ErrPlaceNotFound = errors.New("place not found")

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocoder resolves a free-text meeting place to coordinates using the
// OSM Nominatim API.
type Geocoder struct {
	baseURL string
	http    *http.Client
}

func NewGeocoder(baseURL string) *Geocoder {
	return &Geocoder{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Geocode returns the best match for address and its display name.
func (g *Geocoder) Geocode(ctx context.Context, address string) (model.GeoPoint, string, error) {
	q := strings.TrimSpace(address)
	if q == "" {
		return model.GeoPoint{}, "", fmt.Errorf("empty address")
	}

	u := g.baseURL + "/search?" + url.Values{
		"q":      {q},
		"format": {"json"},
		"limit":  {"1"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.GeoPoint{}, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "mealspin/0.1 (restaurant roulette)")

	resp, err := g.http.Do(req)
	if err != nil {
		return model.GeoPoint{}, "", fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.GeoPoint{}, "", fmt.Errorf("geocoding returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return model.GeoPoint{}, "", fmt.Errorf("decoding geocoding response: %w", err)
	}
	if len(results) == 0 {
		return model.GeoPoint{}, "", fmt.Errorf("%w: %q", ErrPlaceNotFound, q)
	}

	// Nominatim returns coordinates as strings
	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return model.GeoPoint{}, "", fmt.Errorf("invalid latitude from geocoder: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return model.GeoPoint{}, "", fmt.Errorf("invalid longitude from geocoder: %w", err)
	}

	return model.GeoPoint{Lat: lat, Lng: lng}, results[0].DisplayName, nil
}
