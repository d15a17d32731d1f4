package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

func TestPoolStateStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPoolStateStore(pool)

	ps := &domain.PoolState{
		PoolAddress:   "pool-abc",
		LpSupply:      "123456789",
		TokenABalance: "1000000000",
		TokenBBalance: "50000000000",
		Timestamp:     time.Now().UTC().Truncate(time.Microsecond),
	}

	require.NoError(t, store.Insert(ctx, ps))
	require.NotZero(t, ps.ID)

	retrieved, err := store.GetByID(ctx, ps.ID)
	require.NoError(t, err)
	assert.Equal(t, "pool-abc", retrieved.PoolAddress)
	assert.Equal(t, "123456789", retrieved.LpSupply)
	assert.Equal(t, "1000000000", retrieved.TokenABalance)
	assert.Equal(t, "50000000000", retrieved.TokenBBalance)
	assert.True(t, ps.Timestamp.Equal(retrieved.Timestamp))
}

func TestPoolStateStore_GetLatestByPool(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPoolStateStore(pool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 3; i++ {
		ps := &domain.PoolState{
			PoolAddress:   "pool-latest",
			LpSupply:      "100",
			TokenABalance: "200",
			TokenBBalance: "300",
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.Insert(ctx, ps))
	}

	latest, err := store.GetLatestByPool(ctx, "pool-latest")
	require.NoError(t, err)
	assert.True(t, base.Add(2*time.Minute).Equal(latest.Timestamp))

	_, err = store.GetLatestByPool(ctx, "pool-unknown")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
