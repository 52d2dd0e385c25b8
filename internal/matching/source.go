package matching

import (
	"context"
	"fmt"

	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
	"golang.org/x/sync/errgroup"
)

// Source supplies the four collections a pass reads.
type Source interface {
	ListCharities(ctx context.Context) ([]models.Charity, error)
	ListItemAcceptances(ctx context.Context) ([]models.ItemAcceptance, error)
	ListCategoryMappings(ctx context.Context) ([]models.CategoryMapping, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// LoadCollections fetches all four collections in parallel. The first error
// cancels the remaining fetches.
func LoadCollections(ctx context.Context, src Source) (Collections, error) {
	var c Collections
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := src.ListCharities(gctx)
		if err != nil {
			return fmt.Errorf("load charities: %w", err)
		}
		c.Charities = rows
		return nil
	})
	g.Go(func() error {
		rows, err := src.ListItemAcceptances(gctx)
		if err != nil {
			return fmt.Errorf("load item acceptances: %w", err)
		}
		c.ItemAcceptances = rows
		return nil
	})
	g.Go(func() error {
		rows, err := src.ListCategoryMappings(gctx)
		if err != nil {
			return fmt.Errorf("load category mappings: %w", err)
		}
		c.CategoryMappings = rows
		return nil
	})
	g.Go(func() error {
		rows, err := src.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		c.Categories = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return Collections{}, err
	}
	return c, nil
}
