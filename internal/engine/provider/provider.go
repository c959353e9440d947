// Package provider talks to the upstream venue sources: a map POI search
// provider queried per search region and a delivery catalog queried once per
// run around the meeting point.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/rendis/mealspin/internal/model"
)

var (
	// ErrProviderUnavailable means the provider cannot be used at all
	// (missing credentials, not initialised). Discovery treats it as fatal.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderTimeout means a single call exceeded its deadline.
	ErrProviderTimeout = errors.New("provider timeout")
)

// ProviderError is a non-success HTTP answer from a provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
}

// RateLimitError indicates the provider is throttling us.
type RateLimitError struct {
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (status %d)", e.StatusCode)
}

// Query selects what a region search looks for. An empty Keyword runs a
// restaurant category search.
type Query struct {
	Region  model.SearchRegion
	Keyword string
}

// Page is one page of provider results.
type Page struct {
	Venues  []model.Venue
	HasNext bool
}

// Searcher is the map POI provider. Pages are 1-based.
type Searcher interface {
	Search(ctx context.Context, q Query, page int) (Page, error)
	PageSize() int
	Ready() error
}

// RateLimitCounter is implemented by providers that count the throttled
// answers they have retried since they were built.
type RateLimitCounter interface {
	RateLimits() int64
}

// DeliveryCatalog lists venues that deliver to a point. maxDeliveryMinutes
// of 0 disables the delivery time filter.
type DeliveryCatalog interface {
	SearchDelivery(ctx context.Context, center model.GeoPoint, maxDeliveryMinutes int) ([]model.Venue, error)
	Ready() error
}
