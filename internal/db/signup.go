package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
)

// UpsertCharityForUser creates or updates the charity owned by sub and
// returns its id. When categories or items is non-nil the matching join table
// is replaced by name lookup; unknown names are skipped.
func (db *Database) UpsertCharityForUser(ctx context.Context, sub string, rec models.CharityRecord, categories, items []string) (int, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var charityID int
	err = tx.QueryRow(ctx, `
		INSERT INTO charity (
			user_id, name, address, zip_code, phone, email, contact_name, mission,
			description, link_donate_cash, link_volunteer, link_website, link_wishlist,
			link_logo, pickup, dropoff, resell, faith, new_items, taxid, logo_url,
			city, state, approved, paused
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21,
			$22, $23, COALESCE($24::boolean, false), $25
		)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			zip_code = EXCLUDED.zip_code,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			contact_name = EXCLUDED.contact_name,
			mission = EXCLUDED.mission,
			description = EXCLUDED.description,
			link_donate_cash = EXCLUDED.link_donate_cash,
			link_volunteer = EXCLUDED.link_volunteer,
			link_website = EXCLUDED.link_website,
			link_wishlist = EXCLUDED.link_wishlist,
			link_logo = EXCLUDED.link_logo,
			pickup = EXCLUDED.pickup,
			dropoff = EXCLUDED.dropoff,
			resell = EXCLUDED.resell,
			faith = EXCLUDED.faith,
			new_items = EXCLUDED.new_items,
			taxid = EXCLUDED.taxid,
			logo_url = EXCLUDED.logo_url,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			approved = COALESCE($24::boolean, charity.approved),
			paused = EXCLUDED.paused
		RETURNING id
	`,
		sub, rec.Name, rec.Address, rec.ZipCode, rec.Phone, rec.Email, rec.ContactName, rec.Mission,
		rec.Description, rec.LinkDonateCash, rec.LinkVolunteer, rec.LinkWebsite, rec.LinkWishlist,
		rec.LinkLogo, rec.Pickup, rec.Dropoff, rec.Resell, rec.Faith, rec.NewItems, rec.TaxID, rec.LogoURL,
		rec.City, rec.State, rec.Approved, rec.Paused,
	).Scan(&charityID)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert charity: %w", err)
	}

	if categories != nil {
		if _, err := tx.Exec(ctx, "DELETE FROM charity_type WHERE charity_id = $1", charityID); err != nil {
			return 0, fmt.Errorf("failed to clear charity categories: %w", err)
		}
		if len(categories) > 0 {
			_, err := tx.Exec(ctx, `
				INSERT INTO charity_type (charity_id, type_id)
				SELECT $1, t.id FROM types t WHERE t.name = ANY($2::text[])
				ON CONFLICT DO NOTHING
			`, charityID, categories)
			if err != nil {
				return 0, fmt.Errorf("failed to insert charity categories: %w", err)
			}
		}
	}

	if items != nil {
		if _, err := tx.Exec(ctx, "DELETE FROM charity_item WHERE charity_id = $1", charityID); err != nil {
			return 0, fmt.Errorf("failed to clear charity items: %w", err)
		}
		if len(items) > 0 {
			_, err := tx.Exec(ctx, `
				INSERT INTO charity_item (charity_id, item_id)
				SELECT $1, i.id FROM item i WHERE i.name = ANY($2::text[])
				ON CONFLICT DO NOTHING
			`, charityID, items)
			if err != nil {
				return 0, fmt.Errorf("failed to insert charity items: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return charityID, nil
}

const profileColumns = charityColumns + `,
	COALESCE(c.taxid, ''),
	COALESCE(c.link_donate_cash, ''),
	COALESCE(c.approved, false),
	COALESCE(c.paused, false)`

func profileScanTargets(p *models.CharityProfile) []any {
	return append(charityScanTargets(&p.Charity), &p.TaxID, &p.LinkDonateCash, &p.Approved, &p.Paused)
}

// GetSignupDraft returns the charity owned by sub with its category and
// accepted item names, or ErrNotFound when the user has not started a signup.
func (db *Database) GetSignupDraft(ctx context.Context, sub string) (*models.SignupDraft, error) {
	var d models.SignupDraft
	err := db.Pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM charity c
		WHERE c.user_id = $1
	`, sub).Scan(profileScanTargets(&d.Charity)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get charity draft: %w", err)
	}

	d.Categories, err = db.names(ctx, `
		SELECT t.name FROM charity_type ct
		JOIN types t ON t.id = ct.type_id
		WHERE ct.charity_id = $1
		ORDER BY t.name
	`, d.Charity.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get charity categories: %w", err)
	}

	d.AcceptedItemTypes, err = db.names(ctx, `
		SELECT i.name FROM charity_item ci
		JOIN item i ON i.id = ci.item_id
		WHERE ci.charity_id = $1
		ORDER BY i.name
	`, d.Charity.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get charity items: %w", err)
	}
	return &d, nil
}

func (db *Database) names(ctx context.Context, query string, charityID int) ([]string, error) {
	rows, err := db.Pool.Query(ctx, query, charityID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
