// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"red-or-black-bot/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	return cmd.Run() == nil
}

// setupTestRepo starts a PostgreSQL container and returns a migrated repository.
// Skips the test if Docker is not available
func setupTestRepo(t *testing.T) *WagerRepository {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewWagerRepository(pool)
	require.NoError(t, repo.Migrate(ctx))
	return repo
}

func TestWagerRepository_MigrateIsIdempotent(t *testing.T) {
	repo := setupTestRepo(t)

	assert.NoError(t, repo.Migrate(context.Background()))
}

func TestWagerRepository_Record(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	rec := &model.WagerRecord{
		PlayerID: model.TelegramPlayer(12345),
		Kind:     model.KindWin,
		Side:     model.Red,
		Chosen:   model.Red,
		Amount:   100,
		Delta:    100,
		Balance:  1100,
	}
	require.NoError(t, repo.Record(ctx, rec))
	assert.NotZero(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	var got model.WagerRecord
	err := repo.pool.QueryRow(ctx, `
		SELECT id, player_id, kind, side, chosen, amount, delta, balance, created_at
		FROM wagers WHERE id = $1
	`, rec.ID).Scan(
		&got.ID, &got.PlayerID, &got.Kind, &got.Side, &got.Chosen,
		&got.Amount, &got.Delta, &got.Balance, &got.CreatedAt,
	)
	require.NoError(t, err)

	assert.Equal(t, rec.PlayerID, got.PlayerID)
	assert.Equal(t, model.KindWin, got.Kind)
	assert.Equal(t, model.Red, got.Side)
	assert.Equal(t, model.Red, got.Chosen)
	assert.Equal(t, int64(100), got.Amount)
	assert.Equal(t, int64(100), got.Delta)
	assert.Equal(t, int64(1100), got.Balance)
}

// TestWagerRepository_RecordAppends checks that every record becomes its own
// row and the deltas add up to the balance change.
func TestWagerRepository_RecordAppends(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	player := model.TelegramPlayer(7)

	// 1000 -> 1100 -> 900 -> 850
	var ids []int64
	for _, rec := range []model.WagerRecord{
		{Kind: model.KindWin, Amount: 100, Delta: 100, Balance: 1100},
		{Kind: model.KindDoubleLoss, Amount: 100, Delta: -200, Balance: 900},
		{Kind: model.KindLoss, Amount: 50, Delta: -50, Balance: 850},
	} {
		rec.PlayerID = player
		rec.Side = model.Red
		rec.Chosen = model.Red
		require.NoError(t, repo.Record(ctx, &rec))
		ids = append(ids, rec.ID)
	}
	assert.Less(t, ids[0], ids[1])
	assert.Less(t, ids[1], ids[2])

	var rows, net int64
	err := repo.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(delta), 0) FROM wagers WHERE player_id = $1`,
		string(player),
	).Scan(&rows, &net)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rows)
	assert.Equal(t, int64(-150), net)
}
