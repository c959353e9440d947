package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rendis/mealspin/internal/config"
	"github.com/rendis/mealspin/internal/model"
)

const yogiyoPage = `{
  "restaurants": [
    {"id": 1001, "name": "BBQ 강남점", "categories": ["치킨", "1인분주문"], "review_avg": 4.9, "estimated_delivery_time": "30~40분", "is_open": true, "lat": 37.5, "lng": 127.03},
    {"id": "1002", "name": "늦은 피자", "categories": ["피자양식"], "review_avg": 4.8, "estimated_delivery_time": "50~65분", "is_open": true},
    {"id": 1003, "name": "닫은 식당", "categories": ["한식"], "review_avg": 4.95, "is_open": false},
    {"id": 1004, "name": "시간 미정", "categories": ["중식"], "review_avg": "4.2"},
    {"id": 1005, "name": "곧 도착 분식", "categories": ["분식"], "review_avg": 4.8, "estimated_delivery_time": "곧 도착", "is_open": true}
  ]
}`

func TestParseYogiyoResponse(t *testing.T) {
	venues, n, err := ParseYogiyoResponse([]byte(yogiyoPage), 45)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.Len(t, venues, 2, "no-number estimates are dropped under a limit")

	assert.Equal(t, "1001", venues[0].ProviderID)
	assert.Equal(t, "치킨, 1인분주문", venues[0].RawCategory)
	assert.Equal(t, model.KindDelivery, venues[0].Kind)
	assert.InDelta(t, 4.9, venues[0].Rating, 1e-9)

	assert.Equal(t, "1004", venues[1].ProviderID)
	assert.InDelta(t, 4.2, venues[1].Rating, 1e-9)
}

func TestParseYogiyoNoDeliveryLimit(t *testing.T) {
	venues, _, err := ParseYogiyoResponse([]byte(yogiyoPage), 0)
	require.NoError(t, err)
	require.Len(t, venues, 4)
	assert.Equal(t, "1005", venues[3].ProviderID)
}

func TestWithinDeliveryTime(t *testing.T) {
	assert.True(t, withinDeliveryTime("30~40분", 40))
	assert.False(t, withinDeliveryTime("30~41분", 40))
	assert.False(t, withinDeliveryTime("곧 도착", 10))
	assert.True(t, withinDeliveryTime("곧 도착", 0))
	assert.True(t, withinDeliveryTime("", 10))
	assert.True(t, withinDeliveryTime("90분", 0))
}

func TestYogiyoSearchDelivery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/restaurants", r.URL.Path)
		assert.Equal(t, "auth", r.Header.Get("Authorization"))
		assert.Equal(t, "key", r.Header.Get("X-ApiKey"))
		assert.Equal(t, "sec", r.Header.Get("X-ApiSecret"))
		q := r.URL.Query()
		assert.Equal(t, "0", q.Get("page"))
		assert.Equal(t, "rank", q.Get("order"))
		assert.Equal(t, "20", q.Get("items_per_page"))
		w.Write([]byte(yogiyoPage))
	}))
	defer srv.Close()

	y := NewYogiyo(config.Yogiyo{BaseURL: srv.URL, Auth: "auth", APIKey: "key", APISecret: "sec"}, 3, zaptest.NewLogger(t))
	venues, err := y.SearchDelivery(context.Background(), model.GeoPoint{Lat: 37.5, Lng: 127.03}, 0)
	require.NoError(t, err)
	// short first page stops paging
	assert.Len(t, venues, 4)
}

func TestYogiyoNotConfigured(t *testing.T) {
	y := NewYogiyo(config.Yogiyo{BaseURL: "http://unused"}, 1, nil)
	_, err := y.SearchDelivery(context.Background(), model.GeoPoint{}, 0)
	assert.True(t, errors.Is(err, ErrProviderUnavailable))
}
