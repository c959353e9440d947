package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rendis/mealspin/internal/config"
	"github.com/rendis/mealspin/internal/engine/geo"
	"github.com/rendis/mealspin/internal/model"
)

const (
	kakaoPageSize  = 15
	kakaoMaxPage   = 45
	kakaoFoodGroup = "FD6"
)

// Kakao searches restaurants through the Kakao Local API.
type Kakao struct {
	baseURL string
	apiKey  string
	client  *jsonClient
}

// RateLimits returns how many throttled answers Kakao has sent this client.
func (k *Kakao) RateLimits() int64 { return k.client.RateLimits() }

func NewKakao(cfg config.Kakao, logger *zap.Logger) *Kakao {
	return &Kakao{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  newJSONClient("kakao", newTransport(false, ""), logger),
	}
}

func (k *Kakao) PageSize() int { return kakaoPageSize }

func (k *Kakao) Ready() error {
	if k.apiKey == "" {
		return fmt.Errorf("%w: kakao: KAKAO_REST_API_KEY not set", ErrProviderUnavailable)
	}
	return nil
}

// Search runs a category (or keyword) search bounded to the region's box.
// Distances are measured from the disc center, not the cell.
func (k *Kakao) Search(ctx context.Context, q Query, page int) (Page, error) {
	if err := k.Ready(); err != nil {
		return Page{}, err
	}
	if page < 1 {
		page = 1
	}
	if page > kakaoMaxPage {
		return Page{}, nil
	}

	b := geo.Bound(q.Region)
	params := url.Values{}
	params.Set("category_group_code", kakaoFoodGroup)
	params.Set("rect", fmt.Sprintf("%f,%f,%f,%f", b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()))
	params.Set("x", strconv.FormatFloat(q.Region.Center.Lng, 'f', -1, 64))
	params.Set("y", strconv.FormatFloat(q.Region.Center.Lat, 'f', -1, 64))
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(kakaoPageSize))

	endpoint := "/v2/local/search/category.json"
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		endpoint = "/v2/local/search/keyword.json"
		params.Set("query", kw)
	}

	header := http.Header{}
	header.Set("Authorization", "KakaoAK "+k.apiKey)

	body, err := k.client.get(ctx, k.baseURL+endpoint+"?"+params.Encode(), header)
	if err != nil {
		return Page{}, err
	}

	venues, isEnd, err := ParseKakaoResponse(body)
	if err != nil {
		return Page{}, err
	}
	return Page{Venues: venues, HasNext: !isEnd && page < kakaoMaxPage}, nil
}

type kakaoDocument struct {
	ID              string `json:"id"`
	PlaceName       string `json:"place_name"`
	CategoryName    string `json:"category_name"`
	Distance        string `json:"distance"`
	X               string `json:"x"`
	Y               string `json:"y"`
	AddressName     string `json:"address_name"`
	RoadAddressName string `json:"road_address_name"`
	PlaceURL        string `json:"place_url"`
}

type kakaoResponse struct {
	Documents []json.RawMessage `json:"documents"`
	Meta      struct {
		IsEnd bool `json:"is_end"`
	} `json:"meta"`
}

// ParseKakaoResponse decodes a Kakao Local search page. Documents without an
// id or name are skipped. The category is left for the normalizer.
func ParseKakaoResponse(body []byte) ([]model.Venue, bool, error) {
	var resp kakaoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, false, fmt.Errorf("decoding kakao response: %w", err)
	}

	venues := make([]model.Venue, 0, len(resp.Documents))
	for _, raw := range resp.Documents {
		var d kakaoDocument
		if err := json.Unmarshal(raw, &d); err != nil {
			continue
		}
		if d.ID == "" || strings.TrimSpace(d.PlaceName) == "" {
			continue
		}

		addr := d.RoadAddressName
		if addr == "" {
			addr = d.AddressName
		}

		venues = append(venues, model.Venue{
			ProviderID:  d.ID,
			Name:        strings.TrimSpace(d.PlaceName),
			RawCategory: d.CategoryName,
			Distance:    safeFloat(d.Distance),
			Kind:        model.KindMap,
			Lat:         safeFloat(d.Y),
			Lng:         safeFloat(d.X),
			Address:     addr,
			URL:         d.PlaceURL,
			Raw:         raw,
		})
	}
	return venues, resp.Meta.IsEnd, nil
}
