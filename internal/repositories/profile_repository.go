package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// ProfileRepository persists the editable profile attached to each account.
type ProfileRepository interface {
	Upsert(ctx context.Context, profile models.Profile) error
	Find(ctx context.Context, userID string) (models.Profile, error)
}

// PostgresProfileRepository stores account profiles in PostgreSQL.
type PostgresProfileRepository struct {
	pool db.Pool
}

// NewPostgresProfileRepository constructs a profile repository backed by PostgreSQL.
func NewPostgresProfileRepository(pool db.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// Upsert creates or replaces the profile for profile.UserID.
func (r *PostgresProfileRepository) Upsert(ctx context.Context, profile models.Profile) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO profiles (user_id, name, bio, image, email, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user_id)
        DO UPDATE SET name = EXCLUDED.name, bio = EXCLUDED.bio, image = EXCLUDED.image,
                      email = EXCLUDED.email, updated_at = EXCLUDED.updated_at
    `, profile.UserID, profile.Name, profile.Bio, profile.Image, profile.Email, profile.UpdatedAt)
	if err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("upsert profile: %w", err)
	}

	return nil
}

// Find loads the stored profile for a user.
func (r *PostgresProfileRepository) Find(ctx context.Context, userID string) (models.Profile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Profile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT user_id, name, bio, image, email, updated_at
        FROM profiles
        WHERE user_id = $1
    `, userID)

	var profile models.Profile
	if err := row.Scan(&profile.UserID, &profile.Name, &profile.Bio, &profile.Image, &profile.Email, &profile.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, ErrNotFound
		}
		return models.Profile{}, fmt.Errorf("select profile: %w", err)
	}

	return profile, nil
}

var _ ProfileRepository = (*PostgresProfileRepository)(nil)
