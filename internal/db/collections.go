package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
)

const charityColumns = `
	c.id,
	COALESCE(c.name, ''),
	COALESCE(c.address, ''),
	COALESCE(c.zip_code, ''),
	COALESCE(c.phone, ''),
	COALESCE(c.email, ''),
	COALESCE(c.contact_name, ''),
	COALESCE(c.mission, ''),
	COALESCE(c.description, ''),
	COALESCE(c.link_volunteer, ''),
	COALESCE(c.link_website, ''),
	COALESCE(c.link_wishlist, ''),
	COALESCE(c.pickup, false),
	COALESCE(c.dropoff, false),
	COALESCE(c.resell, false),
	COALESCE(c.faith, false),
	COALESCE(c.good_items, false),
	COALESCE(c.new_items, false),
	COALESCE(c.logo_url, ''),
	COALESCE(c.city, ''),
	COALESCE(c.state, ''),
	c.lat,
	c.lng`

func charityScanTargets(c *models.Charity) []any {
	return []any{
		&c.ID, &c.Name, &c.Address, &c.ZipCode, &c.Phone, &c.Email, &c.ContactName,
		&c.Mission, &c.Description, &c.LinkVolunteer, &c.LinkWebsite, &c.LinkWishlist,
		&c.Pickup, &c.Dropoff, &c.Resell, &c.Faith, &c.GoodItems, &c.NewItems,
		&c.LogoURL, &c.City, &c.State, &c.Lat, &c.Lng,
	}
}

// ListCharities returns approved, unpaused charities ordered by name
func (db *Database) ListCharities(ctx context.Context) ([]models.Charity, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+charityColumns+`
		FROM charity c
		WHERE c.approved AND NOT c.paused
		ORDER BY c.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	charities := make([]models.Charity, 0)
	for rows.Next() {
		var c models.Charity
		if err := rows.Scan(charityScanTargets(&c)...); err != nil {
			return nil, err
		}
		charities = append(charities, c)
	}
	return charities, rows.Err()
}

// ListItemAcceptances returns every charity -> accepted item pair
func (db *Database) ListItemAcceptances(ctx context.Context) ([]models.ItemAcceptance, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT c.id, COALESCE(c.name, ''), i.id, COALESCE(i.name, '')
		FROM charity c
		JOIN charity_item ci ON ci.charity_id = c.id
		JOIN item i ON i.id = ci.item_id
		ORDER BY c.name, i.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ItemAcceptance, 0)
	for rows.Next() {
		var a models.ItemAcceptance
		if err := rows.Scan(&a.CharityID, &a.CharityName, &a.ItemID, &a.ItemName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListCategoryMappings returns every charity -> category type pair
func (db *Database) ListCategoryMappings(ctx context.Context) ([]models.CategoryMapping, error) {
	rows, err := db.Pool.Query(ctx, `SELECT charity_id, type_id FROM charity_type ORDER BY charity_id, type_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.CategoryMapping, 0)
	for rows.Next() {
		var m models.CategoryMapping
		if err := rows.Scan(&m.CharityID, &m.TypeID); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListCategories returns the category catalog ordered by name
func (db *Database) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, COALESCE(name, '') FROM types ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Type); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListItems returns the item catalog ordered by name
func (db *Database) ListItems(ctx context.Context) ([]models.Item, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, COALESCE(name, '') FROM item ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Item, 0)
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListLogoURLs returns every non-empty stored logo URL, including those of
// unapproved charities.
func (db *Database) ListLogoURLs(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT logo_url FROM charity WHERE COALESCE(logo_url, '') <> ''
		UNION
		SELECT link_logo FROM charity WHERE COALESCE(link_logo, '') <> ''
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list logo urls: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
