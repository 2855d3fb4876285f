package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores profiles as JSONB rows. The profile document is a
// single-owner blob, so a jsonb column beats a wide table here.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository wraps the shared connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (Profile, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT profile FROM user_profiles WHERE user_id = $1`, userID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("failed to fetch profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to decode stored profile: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Save(ctx context.Context, userID string, p Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	const q = `
		INSERT INTO user_profiles (user_id, profile, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET profile = EXCLUDED.profile, updated_at = now()`

	if _, err := r.pool.Exec(ctx, q, userID, raw); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
