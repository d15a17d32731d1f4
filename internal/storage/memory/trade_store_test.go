package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

func testTrade(portfolioID int64, sig string, createdAt time.Time) *domain.Trade {
	return &domain.Trade{
		PortfolioID:      portfolioID,
		TradeType:        domain.TradeTypeBuy,
		TokenIn:          "SOL",
		TokenOut:         "BABABILL",
		AmountIn:         decimal.NewFromInt(3),
		AmountOut:        decimal.NewFromInt(300),
		FeesSOL:          decimal.RequireFromString("0.1"),
		VirtualSignature: sig,
		PoolStateID:      1,
		Status:           domain.TradeStatusPending,
		CreatedAt:        createdAt,
	}
}

func TestTradeStore_InsertAndGet(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trade := testTrade(1, "sig-1", time.Now())
	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if trade.ID == 0 {
		t.Fatal("Insert did not assign an ID")
	}

	got, err := store.GetByID(ctx, trade.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.VirtualSignature != "sig-1" {
		t.Errorf("VirtualSignature mismatch: got %s", got.VirtualSignature)
	}
	if got.Status != domain.TradeStatusPending {
		t.Errorf("Status mismatch: got %s", got.Status)
	}
}

func TestTradeStore_UpdateImmutableLinkage(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trade := testTrade(1, "sig-link", time.Now())
	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	trade.PortfolioID = 2
	if err := store.Update(ctx, trade); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput on portfolio change, got %v", err)
	}

	trade.PortfolioID = 1
	trade.PoolStateID = 99
	if err := store.Update(ctx, trade); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput on pool state change, got %v", err)
	}
}

func TestTradeStore_GetByPortfolioIDOrderAndPaging(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		trade := testTrade(7, fmt.Sprintf("sig-%d", i), base.Add(time.Duration(i)*time.Second))
		if err := store.Insert(ctx, trade); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	// Other portfolio's trade must not appear.
	if err := store.Insert(ctx, testTrade(8, "sig-other", base)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	trades, err := store.GetByPortfolioID(ctx, 7, 0, 0)
	if err != nil {
		t.Fatalf("GetByPortfolioID failed: %v", err)
	}
	if len(trades) != 5 {
		t.Fatalf("expected 5 trades, got %d", len(trades))
	}
	// Newest first
	if trades[0].VirtualSignature != "sig-4" || trades[4].VirtualSignature != "sig-0" {
		t.Errorf("wrong order: first=%s last=%s", trades[0].VirtualSignature, trades[4].VirtualSignature)
	}

	page, err := store.GetByPortfolioID(ctx, 7, 2, 1)
	if err != nil {
		t.Fatalf("GetByPortfolioID paged failed: %v", err)
	}
	if len(page) != 2 || page[0].VirtualSignature != "sig-3" || page[1].VirtualSignature != "sig-2" {
		t.Errorf("wrong page: %v", page)
	}

	empty, err := store.GetByPortfolioID(ctx, 7, 10, 100)
	if err != nil {
		t.Fatalf("GetByPortfolioID offset past end failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty page, got %d", len(empty))
	}
}

func TestTradeStore_GetExecutedByPortfolioID(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	base := time.Now()
	pnl := decimal.NewFromInt(5)

	for i := 0; i < 3; i++ {
		trade := testTrade(9, fmt.Sprintf("sig-exec-%d", i), base)
		if i != 1 { // leave the middle one pending
			executedAt := base.Add(time.Duration(10-i) * time.Second)
			trade.Status = domain.TradeStatusExecuted
			trade.ExecutedAt = &executedAt
			trade.TradePnlUSD = &pnl
		}
		if err := store.Insert(ctx, trade); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	executed, err := store.GetExecutedByPortfolioID(ctx, 9)
	if err != nil {
		t.Fatalf("GetExecutedByPortfolioID failed: %v", err)
	}
	if len(executed) != 2 {
		t.Fatalf("expected 2 executed trades, got %d", len(executed))
	}
	// Oldest execution first: sig-exec-2 at base+8s before sig-exec-0 at base+10s.
	if executed[0].VirtualSignature != "sig-exec-2" {
		t.Errorf("wrong execution order: first=%s", executed[0].VirtualSignature)
	}
}

func TestTradeStore_CloneIsolation(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	executedAt := time.Now()
	pnl := decimal.NewFromInt(15)
	trade := testTrade(1, "sig-clone", executedAt)
	trade.Status = domain.TradeStatusExecuted
	trade.ExecutedAt = &executedAt
	trade.TradePnlUSD = &pnl

	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, trade.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	// Pointer fields must be deep-copied.
	*got.TradePnlUSD = decimal.NewFromInt(-999)
	*got.ExecutedAt = executedAt.Add(time.Hour)

	fresh, err := store.GetByID(ctx, trade.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !fresh.TradePnlUSD.Equal(decimal.NewFromInt(15)) {
		t.Errorf("pnl leaked: %s", fresh.TradePnlUSD)
	}
	if !fresh.ExecutedAt.Equal(executedAt) {
		t.Errorf("executedAt leaked: %s", fresh.ExecutedAt)
	}
}
