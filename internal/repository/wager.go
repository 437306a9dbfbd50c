// Package repository provides the PostgreSQL wager journal.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"red-or-black-bot/internal/model"
)

// schema creates the journal table. It is safe to run on every start.
const schema = `
	CREATE TABLE IF NOT EXISTS wagers (
		id BIGSERIAL PRIMARY KEY,
		player_id VARCHAR(64) NOT NULL,
		kind VARCHAR(20) NOT NULL,
		side VARCHAR(5) NOT NULL,
		chosen VARCHAR(5) NOT NULL,
		amount BIGINT NOT NULL,
		delta BIGINT NOT NULL,
		balance BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// WagerRepository appends resolved wagers to the journal. Rows are never
// updated and balances are never loaded back from them.
type WagerRepository struct {
	pool *pgxpool.Pool
}

// NewWagerRepository creates a new WagerRepository instance.
func NewWagerRepository(pool *pgxpool.Pool) *WagerRepository {
	return &WagerRepository{pool: pool}
}

// Migrate creates the journal table if it does not exist.
func (r *WagerRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create wagers table: %w", err)
	}
	return nil
}

// Record appends rec to the journal and fills in its ID and creation time.
func (r *WagerRepository) Record(ctx context.Context, rec *model.WagerRecord) error {
	const query = `
		INSERT INTO wagers (player_id, kind, side, chosen, amount, delta, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		string(rec.PlayerID),
		rec.Kind,
		string(rec.Side),
		string(rec.Chosen),
		rec.Amount,
		rec.Delta,
		rec.Balance,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record wager: %w", err)
	}

	return nil
}
