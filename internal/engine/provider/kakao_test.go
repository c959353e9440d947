package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rendis/mealspin/internal/config"
	"github.com/rendis/mealspin/internal/engine/geo"
	"github.com/rendis/mealspin/internal/model"
)

const kakaoPage = `{
  "documents": [
    {"id":"42","place_name":"교촌치킨 역삼점","category_name":"음식점 > 치킨 > 교촌치킨","distance":"418","x":"127.0301","y":"37.4995","address_name":"서울 강남구 역삼동 1","road_address_name":"서울 강남구 테헤란로 1","place_url":"http://place.map.kakao.com/42"},
    {"id":"","place_name":"no id"},
    {"id":"43","place_name":"  ","category_name":"음식점"}
  ],
  "meta": {"is_end": false, "pageable_count": 45, "total_count": 120}
}`

func newTestKakao(t *testing.T, h http.HandlerFunc) *Kakao {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	k := NewKakao(config.Kakao{BaseURL: srv.URL, APIKey: "secret"}, zaptest.NewLogger(t))
	k.client.backoff = 0
	return k
}

func testRegion() model.SearchRegion {
	return geo.Partition(model.GeoPoint{Lat: 37.4979, Lng: 127.0276}, 1000, 8, 2)[0]
}

func TestKakaoCategorySearch(t *testing.T) {
	k := newTestKakao(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/local/search/category.json", r.URL.Path)
		assert.Equal(t, "KakaoAK secret", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "FD6", q.Get("category_group_code"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "15", q.Get("size"))
		assert.Equal(t, "127.0276", q.Get("x"))
		assert.Equal(t, "37.4979", q.Get("y"))
		assert.Len(t, strings.Split(q.Get("rect"), ","), 4)
		w.Write([]byte(kakaoPage))
	})

	page, err := k.Search(context.Background(), Query{Region: testRegion()}, 2)
	require.NoError(t, err)
	assert.True(t, page.HasNext)
	require.Len(t, page.Venues, 1)

	v := page.Venues[0]
	assert.Equal(t, "42", v.ProviderID)
	assert.Equal(t, "교촌치킨 역삼점", v.Name)
	assert.Equal(t, "음식점 > 치킨 > 교촌치킨", v.RawCategory)
	assert.Equal(t, model.KindMap, v.Kind)
	assert.InDelta(t, 418, v.Distance, 1e-9)
	assert.InDelta(t, 37.4995, v.Lat, 1e-9)
	assert.InDelta(t, 127.0301, v.Lng, 1e-9)
	assert.Equal(t, "서울 강남구 테헤란로 1", v.Address)
	assert.NotEmpty(t, v.Raw)
	assert.Equal(t, 15, k.PageSize())
}

func TestKakaoKeywordSearch(t *testing.T) {
	k := newTestKakao(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/local/search/keyword.json", r.URL.Path)
		assert.Equal(t, "맛집", r.URL.Query().Get("query"))
		w.Write([]byte(`{"documents":[],"meta":{"is_end":true}}`))
	})

	page, err := k.Search(context.Background(), Query{Region: testRegion(), Keyword: "맛집"}, 1)
	require.NoError(t, err)
	assert.False(t, page.HasNext)
	assert.Empty(t, page.Venues)
}

func TestKakaoMissingKey(t *testing.T) {
	k := NewKakao(config.Kakao{BaseURL: "http://unused"}, nil)
	_, err := k.Search(context.Background(), Query{Region: testRegion()}, 1)
	assert.True(t, errors.Is(err, ErrProviderUnavailable))
}

func TestKakaoProviderError(t *testing.T) {
	k := newTestKakao(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errorType":"AccessDeniedError"}`))
	})

	_, err := k.Search(context.Background(), Query{Region: testRegion()}, 1)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
	assert.Contains(t, pe.Error(), "AccessDeniedError")
}

func TestParseKakaoResponseRejectsGarbage(t *testing.T) {
	_, _, err := ParseKakaoResponse([]byte(`<html>`))
	assert.Error(t, err)
}

func TestKakaoCountsRateLimits(t *testing.T) {
	var throttled bool
	k := newTestKakao(t, func(w http.ResponseWriter, r *http.Request) {
		if !throttled {
			throttled = true
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(kakaoPage))
	})

	_, err := k.Search(context.Background(), Query{Region: testRegion()}, 1)
	require.NoError(t, err)

	var counter RateLimitCounter = k
	assert.Equal(t, int64(1), counter.RateLimits())
}
