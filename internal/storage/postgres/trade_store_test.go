package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

func insertTestPortfolio(t *testing.T, ctx context.Context, pool *Pool, wallet string) int64 {
	t.Helper()
	p := newTestPortfolio(wallet)
	require.NoError(t, NewPortfolioStore(pool).Insert(ctx, p))
	return p.ID
}

func insertTestPoolState(t *testing.T, ctx context.Context, pool *Pool) int64 {
	t.Helper()
	ps := &domain.PoolState{
		PoolAddress:   "pool-address-1",
		LpSupply:      "1000000000",
		TokenABalance: "500000000000",
		TokenBBalance: "25000000000000",
		Timestamp:     time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, NewPoolStateStore(pool).Insert(ctx, ps))
	return ps.ID
}

func newTestTrade(portfolioID, poolStateID int64, sig string) *domain.Trade {
	return &domain.Trade{
		PortfolioID:          portfolioID,
		TradeType:            domain.TradeTypeBuy,
		TokenIn:              "SOL",
		TokenOut:             "BABABILL",
		AmountIn:             decimal.NewFromInt(3),
		AmountOut:            decimal.NewFromInt(300),
		PriceAtTrade:         decimal.RequireFromString("0.01"),
		EstimatedPriceImpact: decimal.RequireFromString("0.002"),
		SlippageBps:          50,
		FeesSOL:              decimal.RequireFromString("0.1"),
		VirtualSignature:     sig,
		PoolStateID:          poolStateID,
		Status:               domain.TradeStatusPending,
		CreatedAt:            time.Now().UTC().Truncate(time.Microsecond),
		Metadata:             map[string]any{"note": "test"},
	}
}

func TestTradeStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	portfolioID := insertTestPortfolio(t, ctx, pool, "trade-wallet-1")
	poolStateID := insertTestPoolState(t, ctx, pool)

	store := NewTradeStore(pool)
	trade := newTestTrade(portfolioID, poolStateID, "sig-insert-1")

	require.NoError(t, store.Insert(ctx, trade))
	require.NotZero(t, trade.ID)

	retrieved, err := store.GetByID(ctx, trade.ID)
	require.NoError(t, err)

	assert.Equal(t, portfolioID, retrieved.PortfolioID)
	assert.Equal(t, domain.TradeTypeBuy, retrieved.TradeType)
	assert.Equal(t, "SOL", retrieved.TokenIn)
	assert.Equal(t, "BABABILL", retrieved.TokenOut)
	assert.True(t, retrieved.AmountIn.Equal(decimal.NewFromInt(3)))
	assert.True(t, retrieved.FeesSOL.Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, 50, retrieved.SlippageBps)
	assert.Equal(t, domain.TradeStatusPending, retrieved.Status)
	assert.Nil(t, retrieved.ExecutedAt)
	assert.Nil(t, retrieved.TradePnlUSD)
	assert.Equal(t, "test", retrieved.Metadata["note"])
}

func TestTradeStore_InsertDuplicateSignature(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	portfolioID := insertTestPortfolio(t, ctx, pool, "trade-wallet-dup")
	poolStateID := insertTestPoolState(t, ctx, pool)

	store := NewTradeStore(pool)

	require.NoError(t, store.Insert(ctx, newTestTrade(portfolioID, poolStateID, "sig-dup")))

	err := store.Insert(ctx, newTestTrade(portfolioID, poolStateID, "sig-dup"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeStore_UpdateToExecuted(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	portfolioID := insertTestPortfolio(t, ctx, pool, "trade-wallet-upd")
	poolStateID := insertTestPoolState(t, ctx, pool)

	store := NewTradeStore(pool)
	trade := newTestTrade(portfolioID, poolStateID, "sig-upd")
	require.NoError(t, store.Insert(ctx, trade))

	executedAt := time.Now().UTC().Truncate(time.Microsecond)
	pnl := decimal.RequireFromString("-7.5")
	trade.Status = domain.TradeStatusExecuted
	trade.ExecutedAt = &executedAt
	trade.TradePnlUSD = &pnl

	require.NoError(t, store.Update(ctx, trade))

	retrieved, err := store.GetByID(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeStatusExecuted, retrieved.Status)
	require.NotNil(t, retrieved.ExecutedAt)
	assert.True(t, executedAt.Equal(*retrieved.ExecutedAt))
	require.NotNil(t, retrieved.TradePnlUSD)
	assert.True(t, pnl.Equal(*retrieved.TradePnlUSD))
}

func TestTradeStore_GetByPortfolioIDPaging(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	portfolioID := insertTestPortfolio(t, ctx, pool, "trade-wallet-page")
	poolStateID := insertTestPoolState(t, ctx, pool)

	store := NewTradeStore(pool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 5; i++ {
		trade := newTestTrade(portfolioID, poolStateID, fmt.Sprintf("sig-page-%d", i))
		trade.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.Insert(ctx, trade))
	}

	// Newest first
	trades, err := store.GetByPortfolioID(ctx, portfolioID, 2, 0)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "sig-page-4", trades[0].VirtualSignature)
	assert.Equal(t, "sig-page-3", trades[1].VirtualSignature)

	trades, err = store.GetByPortfolioID(ctx, portfolioID, 2, 2)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "sig-page-2", trades[0].VirtualSignature)

	// limit <= 0 returns everything
	trades, err = store.GetByPortfolioID(ctx, portfolioID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, trades, 5)
}

func TestTradeStore_GetExecutedByPortfolioID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	portfolioID := insertTestPortfolio(t, ctx, pool, "trade-wallet-exec")
	poolStateID := insertTestPoolState(t, ctx, pool)

	store := NewTradeStore(pool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	pnl := decimal.NewFromInt(1)

	// Two executed out of order, one pending
	for i, status := range []string{domain.TradeStatusExecuted, domain.TradeStatusPending, domain.TradeStatusExecuted} {
		trade := newTestTrade(portfolioID, poolStateID, fmt.Sprintf("sig-exec-%d", i))
		trade.Status = status
		if status == domain.TradeStatusExecuted {
			executedAt := base.Add(time.Duration(10-i) * time.Second)
			trade.ExecutedAt = &executedAt
			trade.TradePnlUSD = &pnl
		}
		require.NoError(t, store.Insert(ctx, trade))
	}

	trades, err := store.GetExecutedByPortfolioID(ctx, portfolioID)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	// Oldest execution first: sig-exec-2 executed at base+8s, sig-exec-0 at base+10s
	assert.Equal(t, "sig-exec-2", trades[0].VirtualSignature)
	assert.Equal(t, "sig-exec-0", trades[1].VirtualSignature)
}

func TestTradeStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	_, err := store.GetByID(ctx, 424242)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
