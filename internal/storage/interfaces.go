package storage

import (
	"context"

	"solana-paper-trader/internal/domain"
)

// PortfolioStore provides access to paper_portfolios storage.
type PortfolioStore interface {
	// Insert adds a new portfolio and assigns its ID.
	// Returns ErrDuplicateKey if a portfolio already exists for the wallet.
	Insert(ctx context.Context, p *domain.Portfolio) error

	// GetByID retrieves a portfolio by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Portfolio, error)

	// GetByWallet retrieves the portfolio for a wallet address.
	// Returns ErrNotFound if not exists.
	GetByWallet(ctx context.Context, walletAddress string) (*domain.Portfolio, error)

	// Update persists mutable portfolio fields (balances, aggregates, updatedAt).
	// Returns ErrNotFound if the portfolio does not exist.
	Update(ctx context.Context, p *domain.Portfolio) error

	// List retrieves all portfolios ordered by ID. Used by the snapshot
	// scheduler; portfolio counts are small by design.
	List(ctx context.Context) ([]*domain.Portfolio, error)
}

// TradeStore provides access to paper_trades storage.
type TradeStore interface {
	// Insert adds a new trade and assigns its ID.
	Insert(ctx context.Context, t *domain.Trade) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Trade, error)

	// Update persists mutable trade fields (status, executedAt, tradePnlUsd).
	// Returns ErrNotFound if the trade does not exist.
	Update(ctx context.Context, t *domain.Trade) error

	// GetByPortfolioID retrieves trades for a portfolio, ordered by
	// created_at DESC, with limit/offset paging. limit <= 0 means no limit.
	GetByPortfolioID(ctx context.Context, portfolioID int64, limit, offset int) ([]*domain.Trade, error)

	// GetExecutedByPortfolioID retrieves all EXECUTED trades for a portfolio,
	// ordered by executed_at ASC.
	GetExecutedByPortfolioID(ctx context.Context, portfolioID int64) ([]*domain.Trade, error)
}

// PoolStateStore provides access to pool_states storage. Append-only:
// snapshots are immutable once recorded.
type PoolStateStore interface {
	// Insert adds a new pool state snapshot and assigns its ID.
	Insert(ctx context.Context, s *domain.PoolState) error

	// GetByID retrieves a snapshot by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.PoolState, error)

	// GetLatestByPool retrieves the most recent snapshot for a pool address.
	// Returns ErrNotFound if none exists.
	GetLatestByPool(ctx context.Context, poolAddress string) (*domain.PoolState, error)
}

// TradeAnalysisStore provides access to trade_analyses storage. Append-only.
type TradeAnalysisStore interface {
	// Insert adds a new analysis. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, a *domain.TradeAnalysis) error

	// GetByTradeID retrieves the analysis for a trade. Returns ErrNotFound if not exists.
	GetByTradeID(ctx context.Context, tradeID int64) (*domain.TradeAnalysis, error)
}

// SnapshotStore provides access to portfolio_snapshots storage. Append-only.
type SnapshotStore interface {
	// Insert adds a new snapshot and assigns its ID.
	Insert(ctx context.Context, s *domain.PortfolioSnapshot) error

	// GetByPortfolioID retrieves all snapshots for a portfolio, ordered by
	// created_at ASC.
	GetByPortfolioID(ctx context.Context, portfolioID int64) ([]*domain.PortfolioSnapshot, error)
}
