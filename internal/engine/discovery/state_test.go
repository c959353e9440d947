package discovery

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/mealspin/internal/model"
)

func TestRunStateDeduplicates(t *testing.T) {
	s := NewRunState(500)

	added, full := s.Add([]model.Venue{mapVenue("42", ""), mapVenue("42", "")})
	assert.Len(t, added, 1)
	assert.False(t, full)

	added, _ = s.Add([]model.Venue{mapVenue("42", "")})
	assert.Empty(t, added)
	assert.Equal(t, 1, s.Len())
}

func TestRunStateCap(t *testing.T) {
	s := NewRunState(3)
	added, full := s.Add([]model.Venue{mapVenue("1", ""), mapVenue("2", ""), mapVenue("3", ""), mapVenue("4", "")})
	require.Len(t, added, 3)
	assert.Equal(t, "3", added[2].ProviderID)
	assert.True(t, full)
	assert.True(t, s.Full())
}

func TestRunStateSealDropsLateResults(t *testing.T) {
	s := NewRunState(10)
	s.Add([]model.Venue{mapVenue("1", "")})
	s.Seal()

	added, full := s.Add([]model.Venue{mapVenue("2", "")})
	assert.Empty(t, added)
	assert.True(t, full)
	assert.Len(t, s.Pool(), 1)
}

func TestRunStateConcurrentAdds(t *testing.T) {
	s := NewRunState(500)
	var wg sync.WaitGroup
	for w := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				// half the ids collide across workers
				s.Add([]model.Venue{mapVenue(fmt.Sprintf("%d", (w%10)*50+i), "")})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 500, s.Len())

	keys := map[model.VenueKey]bool{}
	for _, v := range s.Pool() {
		assert.False(t, keys[v.Key()])
		keys[v.Key()] = true
	}
}
