package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rendis/mealspin/internal/config"
	"github.com/rendis/mealspin/internal/model"
)

const yogiyoItemsPerPage = 20

// Yogiyo lists delivery restaurants from the Yogiyo web API.
type Yogiyo struct {
	cfg    config.Yogiyo
	pages  int
	client *jsonClient
	logger *zap.Logger
}

// NewYogiyo builds the delivery catalog client. pages is the number of
// ranked pages fetched per run.
func NewYogiyo(cfg config.Yogiyo, pages int, logger *zap.Logger) *Yogiyo {
	if pages <= 0 {
		pages = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Yogiyo{
		cfg:    cfg,
		pages:  pages,
		client: newJSONClient("yogiyo", newTransport(cfg.BrowserTLS, cfg.ProxyURL), logger),
		logger: logger,
	}
}

func (y *Yogiyo) RateLimits() int64 { return y.client.RateLimits() }

func (y *Yogiyo) Ready() error {
	if y.cfg.Auth == "" || y.cfg.APIKey == "" || y.cfg.APISecret == "" {
		return fmt.Errorf("%w: yogiyo: YOGIYO_AUTH, YOGIYO_API_KEY and YOGIYO_API_SECRET are required", ErrProviderUnavailable)
	}
	return nil
}

// SearchDelivery returns the open restaurants delivering to center, in rank
// order. A page that fails after at least one page succeeded ends paging and
// returns what was collected.
func (y *Yogiyo) SearchDelivery(ctx context.Context, center model.GeoPoint, maxDeliveryMinutes int) ([]model.Venue, error) {
	if err := y.Ready(); err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", y.cfg.Auth)
	header.Set("X-ApiKey", y.cfg.APIKey)
	header.Set("X-ApiSecret", y.cfg.APISecret)
	header.Set("User-Agent", browserUserAgent)

	var all []model.Venue
	for page := 0; page < y.pages; page++ {
		params := url.Values{}
		params.Set("items_per_page", strconv.Itoa(yogiyoItemsPerPage))
		params.Set("lat", strconv.FormatFloat(center.Lat, 'f', -1, 64))
		params.Set("lng", strconv.FormatFloat(center.Lng, 'f', -1, 64))
		params.Set("order", "rank")
		params.Set("page", strconv.Itoa(page))

		body, err := y.client.get(ctx, y.cfg.BaseURL+"/api/v2/restaurants?"+params.Encode(), header)
		if err != nil {
			if page == 0 {
				return nil, err
			}
			y.logger.Warn("delivery page failed", zap.Int("page", page), zap.Error(err))
			break
		}

		venues, n, err := ParseYogiyoResponse(body, maxDeliveryMinutes)
		if err != nil {
			return nil, err
		}
		all = append(all, venues...)
		if n < yogiyoItemsPerPage {
			break
		}
	}
	return all, nil
}
