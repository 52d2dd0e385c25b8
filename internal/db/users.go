package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
)

// UpsertUser inserts the subject or updates its verification flag.
func (db *Database) UpsertUser(ctx context.Context, sub string, emailVerified bool) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO users (id, email_verified)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET email_verified = EXCLUDED.email_verified
	`, sub, emailVerified)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUser returns the user row for sub, or ErrNotFound.
func (db *Database) GetUser(ctx context.Context, sub string) (*models.User, error) {
	var u models.User
	err := db.Pool.QueryRow(ctx, `
		SELECT id, COALESCE(admin, false), COALESCE(email_verified, false)
		FROM users WHERE id = $1
	`, sub).Scan(&u.Sub, &u.Admin, &u.EmailVerified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// IsAdmin reports whether sub is flagged as an administrator. Unknown
// subjects are not admins.
func (db *Database) IsAdmin(ctx context.Context, sub string) (bool, error) {
	u, err := db.GetUser(ctx, sub)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.Admin, nil
}
