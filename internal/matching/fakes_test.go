package matching

import (
	"context"
	"sync"

	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
)

// fakeGeocoder answers from a fixed table and counts lookups.
type fakeGeocoder struct {
	mu     sync.Mutex
	coords map[string]*models.Coordinates
	err    error
	calls  int
}

func (g *fakeGeocoder) Geocode(_ context.Context, zip string) (*models.Coordinates, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.coords[zip], nil
}

func (g *fakeGeocoder) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// blockingGeocoder signals when a lookup starts and waits for release.
type blockingGeocoder struct {
	started chan string
	release chan struct{}
	at      models.Coordinates
}

func (g *blockingGeocoder) Geocode(ctx context.Context, zip string) (*models.Coordinates, error) {
	g.started <- zip
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	at := g.at
	return &at, nil
}

func fptr(v float64) *float64 { return &v }

func charityAt(id int, name string, lat, lng float64) models.Charity {
	return models.Charity{
		ID: id, Name: name,
		Pickup: true, Dropoff: true, NewItems: true, GoodItems: true,
		Lat: fptr(lat), Lng: fptr(lng),
	}
}

func ids(cs []models.Charity) []int {
	out := make([]int, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

// openPrefs admits every charity through the flag stages.
func openPrefs() models.DonorPreferences {
	return models.DonorPreferences{
		DeliveryMethod: models.DeliveryMethod{Pickup: true, Dropoff: true},
		ItemCondition:  models.ItemCondition{New: true, Used: true},
	}
}

// fakeSource serves fixed collections; err, when set, fails the named list.
type fakeSource struct {
	c       Collections
	failOn  string
	err     error
	fetches int
	mu      sync.Mutex
}

func (s *fakeSource) fetch(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.failOn == name {
		return s.err
	}
	return nil
}

func (s *fakeSource) ListCharities(context.Context) ([]models.Charity, error) {
	if err := s.fetch("charities"); err != nil {
		return nil, err
	}
	return s.c.Charities, nil
}

func (s *fakeSource) ListItemAcceptances(context.Context) ([]models.ItemAcceptance, error) {
	if err := s.fetch("items"); err != nil {
		return nil, err
	}
	return s.c.ItemAcceptances, nil
}

func (s *fakeSource) ListCategoryMappings(context.Context) ([]models.CategoryMapping, error) {
	if err := s.fetch("mappings"); err != nil {
		return nil, err
	}
	return s.c.CategoryMappings, nil
}

func (s *fakeSource) ListCategories(context.Context) ([]models.Category, error) {
	if err := s.fetch("categories"); err != nil {
		return nil, err
	}
	return s.c.Categories, nil
}
