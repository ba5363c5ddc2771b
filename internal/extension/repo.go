package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a user has no opt-in record.
var ErrNotFound = errors.New("opt-in record not found")

// Repo persists opt-in records. This is the write path the registration
// flow uses; the export command never goes through it.
type Repo struct {
	pool *pgxpool.Pool
}

// NewRepo creates a repository over the given pool.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Connect opens a pgx pool against the default connection string.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Upsert creates or updates the user's opt-in record.
func (r *Repo) Upsert(ctx context.Context, rec OptIn) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, %s, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id)
		DO UPDATE SET %s = EXCLUDED.%s, updated_at = now()`,
		TableName, FieldAllowMarketingEmails,
		FieldAllowMarketingEmails, FieldAllowMarketingEmails,
	)
	if _, err := r.pool.Exec(ctx, query, rec.UserID, rec.AllowMarketingEmails); err != nil {
		return fmt.Errorf("upsert opt-in for user %d: %w", rec.UserID, err)
	}
	return nil
}

// Get fetches the opt-in record for a user.
func (r *Repo) Get(ctx context.Context, userID int64) (OptIn, error) {
	query := fmt.Sprintf(
		"SELECT user_id, %s, updated_at FROM %s WHERE user_id = $1",
		FieldAllowMarketingEmails, TableName,
	)
	var rec OptIn
	err := r.pool.QueryRow(ctx, query, userID).Scan(&rec.UserID, &rec.AllowMarketingEmails, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OptIn{}, ErrNotFound
		}
		return OptIn{}, fmt.Errorf("get opt-in for user %d: %w", userID, err)
	}
	return rec, nil
}
