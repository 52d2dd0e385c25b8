package db

import (
	"context"
	"fmt"

	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
)

// ListPendingCharities returns charities awaiting review, oldest first.
func (db *Database) ListPendingCharities(ctx context.Context) ([]models.CharityProfile, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM charity c
		WHERE NOT COALESCE(c.approved, false) AND NOT COALESCE(c.paused, false)
		ORDER BY c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending charities: %w", err)
	}
	defer rows.Close()

	out := make([]models.CharityProfile, 0)
	for rows.Next() {
		var p models.CharityProfile
		if err := rows.Scan(profileScanTargets(&p)...); err != nil {
			return nil, fmt.Errorf("failed to scan charity: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ApproveCharity publishes a charity. Returns ErrNotFound for an unknown id.
func (db *Database) ApproveCharity(ctx context.Context, id int) error {
	return db.review(ctx, `UPDATE charity SET approved = true, paused = false WHERE id = $1`, id)
}

// DenyCharity pauses a charity and keeps it unapproved.
func (db *Database) DenyCharity(ctx context.Context, id int) error {
	return db.review(ctx, `UPDATE charity SET approved = false, paused = true WHERE id = $1`, id)
}

func (db *Database) review(ctx context.Context, stmt string, id int) error {
	tag, err := db.Pool.Exec(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("failed to update charity %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
