// Package matching narrows the charity catalog down to the organizations that
// fit a donor's preferences.
package matching

import (
	"context"

	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
	"go.uber.org/zap"
)

// Collections are the read-only inputs of one filtering pass.
type Collections struct {
	Charities        []models.Charity
	ItemAcceptances  []models.ItemAcceptance
	CategoryMappings []models.CategoryMapping
	Categories       []models.Category
}

// Filter applies the preference stages in their fixed order:
// delivery method, resell, item condition, item types, categories.
// The result is always a subset of c.Charities, in input order.
func Filter(c Collections, p models.DonorPreferences) []models.Charity {
	out := keep(c.Charities, func(ch models.Charity) bool {
		return acceptsDelivery(p.DeliveryMethod, ch)
	})
	out = keep(out, func(ch models.Charity) bool {
		return !(p.Considerations.Resell && ch.Resell)
	})
	out = keep(out, func(ch models.Charity) bool {
		return acceptsCondition(p.ItemCondition, ch)
	})

	f := newLowerer()
	if len(p.SelectedItems) > 0 {
		ids := charitiesAcceptingItems(f, c.ItemAcceptances, p.SelectedItems)
		out = keep(out, func(ch models.Charity) bool { return ids.has(ch.ID) })
	}
	if len(p.SelectedCategories) > 0 {
		ids := charitiesInCategories(f, c.Categories, c.CategoryMappings, p.SelectedCategories)
		out = keep(out, func(ch models.Charity) bool { return ids.has(ch.ID) })
	}
	return out
}

func keep(in []models.Charity, pred func(models.Charity) bool) []models.Charity {
	out := make([]models.Charity, 0, len(in))
	for _, c := range in {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

// Selecting neither pickup nor dropoff admits nothing.
func acceptsDelivery(d models.DeliveryMethod, c models.Charity) bool {
	return (d.Pickup && c.Pickup) || (d.Dropoff && c.Dropoff)
}

// Selecting neither new nor used admits nothing.
func acceptsCondition(ic models.ItemCondition, c models.Charity) bool {
	return (ic.New && c.NewItems) || (ic.Used && c.GoodItems)
}

func charitiesAcceptingItems(f *lowerer, accepted []models.ItemAcceptance, selected []string) idSet {
	wanted := f.lowerAll(selected)
	ids := make(idSet)
	for _, a := range accepted {
		name := f.lower(a.ItemName)
		if name == "" {
			continue
		}
		for _, s := range wanted {
			if fuzzyItemMatch(name, s) {
				ids.add(a.CharityID)
				break
			}
		}
	}
	return ids
}

func charitiesInCategories(f *lowerer, catalog []models.Category, mappings []models.CategoryMapping, selected []string) idSet {
	typeIDs := make(idSet)
	for _, s := range f.lowerAll(selected) {
		for _, cat := range catalog {
			if name := f.lower(cat.Type); name != "" && name == s {
				typeIDs.add(cat.ID)
				break
			}
		}
	}

	ids := make(idSet)
	for _, m := range mappings {
		if typeIDs.has(m.TypeID) {
			ids.add(m.CharityID)
		}
	}
	return ids
}

// Run executes one pass with the given geocoder and no logging.
func Run(ctx context.Context, geocoder Geocoder, c Collections, p models.DonorPreferences) []models.Charity {
	return NewMatcher(geocoder, nil).Run(ctx, c, p)
}

// Matcher runs complete passes: the optional distance filter followed by the
// preference stages.
type Matcher struct {
	geocoder Geocoder
	logger   *zap.Logger
}

// NewMatcher creates a matcher. geocoder may be nil, in which case any pass
// with an active location preference yields no results.
func NewMatcher(geocoder Geocoder, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{geocoder: geocoder, logger: logger}
}

// Run executes one pass. It never fails: an unresolvable donor location
// yields an empty list.
func (m *Matcher) Run(ctx context.Context, c Collections, p models.DonorPreferences) []models.Charity {
	nearby, err := FilterByDistance(ctx, m.geocoder, c.Charities, p.Location)
	if err != nil {
		m.logger.Warn("location filter failed; returning no charities",
			zap.String("zip_code", p.Location.ZipCode),
			zap.Float64("distance_miles", p.Location.DistanceMiles),
			zap.Error(err),
		)
		return []models.Charity{}
	}

	c.Charities = nearby
	out := Filter(c, p)

	m.logger.Debug("match pass complete",
		zap.Int("charities_in", len(c.Charities)),
		zap.Int("charities_out", len(out)),
		zap.Int("selected_items", len(p.SelectedItems)),
		zap.Int("selected_categories", len(p.SelectedCategories)),
		zap.Bool("location_active", LocationActive(p.Location)),
	)
	return out
}
