package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
)

// EarthRadiusMiles is the mean Earth radius used for great-circle distances.
const EarthRadiusMiles = 3959.0

// ErrLocationUnresolved is returned when the donor ZIP code cannot be turned
// into a coordinate. A pass that hits it yields no charities.
var ErrLocationUnresolved = errors.New("donor location could not be resolved")

// Geocoder resolves a ZIP code to a coordinate. A nil coordinate with a nil
// error means the ZIP code is unknown to the provider.
type Geocoder interface {
	Geocode(ctx context.Context, zipCode string) (*models.Coordinates, error)
}

// DistanceMiles returns the haversine distance between two coordinates.
func DistanceMiles(from, to models.Coordinates) float64 {
	dLat := toRadians(to.Latitude - from.Latitude)
	dLon := toRadians(to.Longitude - from.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat +
		math.Cos(toRadians(from.Latitude))*math.Cos(toRadians(to.Latitude))*sinLon*sinLon

	return 2 * EarthRadiusMiles * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// LocationActive reports whether the location preference constrains results.
// An empty ZIP code or an unset (zero/NaN) radius turns the filter off.
func LocationActive(loc models.LocationPreference) bool {
	if strings.TrimSpace(loc.ZipCode) == "" {
		return false
	}
	return loc.DistanceMiles != 0 && !math.IsNaN(loc.DistanceMiles)
}

// FilterByDistance keeps charities within loc.DistanceMiles of loc.ZipCode.
// The ZIP code is geocoded once for the whole call. Charities without a
// usable coordinate are dropped while the filter is active.
func FilterByDistance(ctx context.Context, geocoder Geocoder, charities []models.Charity, loc models.LocationPreference) ([]models.Charity, error) {
	if !LocationActive(loc) {
		return charities, nil
	}

	origin, err := resolve(ctx, geocoder, strings.TrimSpace(loc.ZipCode))
	if err != nil {
		return nil, err
	}

	kept := make([]models.Charity, 0, len(charities))
	for _, c := range charities {
		at, ok := c.Location()
		if !ok {
			continue
		}
		if DistanceMiles(origin, at) <= loc.DistanceMiles {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

func resolve(ctx context.Context, geocoder Geocoder, zip string) (models.Coordinates, error) {
	if geocoder == nil {
		return models.Coordinates{}, fmt.Errorf("%w: no geocoder configured", ErrLocationUnresolved)
	}
	coords, err := geocoder.Geocode(ctx, zip)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: zip %q: %w", ErrLocationUnresolved, zip, err)
	}
	if coords == nil {
		return models.Coordinates{}, fmt.Errorf("%w: zip %q not found", ErrLocationUnresolved, zip)
	}
	if math.IsNaN(coords.Latitude) || math.IsNaN(coords.Longitude) ||
		math.IsInf(coords.Latitude, 0) || math.IsInf(coords.Longitude, 0) {
		return models.Coordinates{}, fmt.Errorf("%w: zip %q has no usable coordinate", ErrLocationUnresolved, zip)
	}
	return *coords, nil
}
