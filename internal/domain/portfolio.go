package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio represents one simulated trading account for one wallet address.
// Corresponds to paper_portfolios table in PostgreSQL.
// One portfolio per wallet address (uniqueness enforced by storage).
type Portfolio struct {
	ID            int64  // SERIAL primary key, assigned on insert
	WalletAddress string // owning wallet, unique

	// Balances. Initial values are fixed at creation; current values are
	// mutated only by the trade ledger on settlement and never go negative.
	InitialBalanceSOL      decimal.Decimal
	InitialBalanceBababill decimal.Decimal
	CurrentBalanceSOL      decimal.Decimal
	CurrentBalanceBababill decimal.Decimal

	// Cached aggregates, derived from EXECUTED trades. The fold in
	// accounting.Recompute is the source of truth; these are an optimization.
	TotalPnlUSD        decimal.Decimal
	TotalFeesSOL       decimal.Decimal
	TradesCount        int
	WinningTradesCount int

	CreatedAt time.Time // immutable
	UpdatedAt time.Time // bumped on every mutation

	Metadata map[string]any // opaque, stored and forwarded only
}

// PortfolioStats is the recomputed aggregate view over a portfolio's
// EXECUTED trades.
type PortfolioStats struct {
	TotalTrades   int             `json:"totalTrades"`
	WinningTrades int             `json:"winningTrades"`
	TotalPnl      decimal.Decimal `json:"totalPnl"`
	AverageReturn decimal.Decimal `json:"averageReturn"`
}

// Portfolio status constants for PortfolioStatusResponse.
const (
	PortfolioStatusUninitialized = "uninitialized"
	PortfolioStatusActive        = "active"
)

// PortfolioStatusResponse is the read-only summary returned by the reporter.
type PortfolioStatusResponse struct {
	Status    string           `json:"status"`
	Message   string           `json:"message"`
	Action    *string          `json:"action,omitempty"`
	Portfolio *Portfolio       `json:"portfolio"`
	Stats     *PortfolioStats  `json:"stats"`
	LastPrice *decimal.Decimal `json:"lastPrice,omitempty"`
}

// PortfolioSnapshot is a point-in-time record of portfolio balances and
// reference prices, used for performance analytics.
// Corresponds to portfolio_snapshots table.
type PortfolioSnapshot struct {
	ID               int64
	PortfolioID      int64
	BalanceSOL       decimal.Decimal
	BalanceBababill  decimal.Decimal
	SolPriceUSD      decimal.Decimal
	BababillPriceUSD decimal.Decimal
	CreatedAt        time.Time
}
