package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rendis/mealspin/internal/model"
)

// ErrInvalidShortlist is returned for shortlist requests missing a group or a
// venue identity.
var ErrInvalidShortlist = errors.New("invalid shortlist request")

// Shortlister persists venues a group wants to keep. Adding a venue that is
// already on the group's list is a no-op.
type Shortlister interface {
	AddToShortlist(ctx context.Context, group, addedBy string, venues ...model.Venue) (int, error)
}

// AddToShortlist validates v and hands it to s. It reports whether the venue
// was new for the group.
func (e *Engine) AddToShortlist(ctx context.Context, s Shortlister, group, addedBy string, v model.Venue) (bool, error) {
	group = strings.TrimSpace(group)
	switch {
	case group == "":
		return false, fmt.Errorf("%w: group is required", ErrInvalidShortlist)
	case v.ProviderID == "" || v.Name == "":
		return false, fmt.Errorf("%w: venue needs an id and a name", ErrInvalidShortlist)
	case v.Kind != model.KindMap && v.Kind != model.KindDelivery:
		return false, fmt.Errorf("%w: unknown venue kind %q", ErrInvalidShortlist, v.Kind)
	}
	if !v.Category.Valid() {
		e.normalizer.Apply(&v)
	}

	n, err := s.AddToShortlist(ctx, group, addedBy, v)
	if err != nil {
		return false, fmt.Errorf("adding to shortlist: %w", err)
	}
	e.metrics.ObserveShortlist(n)
	e.logger.Info("shortlisted",
		zap.String("group", group),
		zap.String("kind", string(v.Kind)),
		zap.String("provider_id", v.ProviderID),
		zap.Bool("new", n > 0))
	return n > 0, nil
}
