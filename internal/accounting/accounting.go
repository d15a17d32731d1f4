// Package accounting derives portfolio aggregates from the trade history.
// The fold over EXECUTED trades is the source of truth; the cached fields on
// Portfolio are an optimization maintained by the ledger and verified here.
package accounting

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/locks"
	"solana-paper-trader/internal/storage"
)

// ErrInvariantViolation is returned when recomputed aggregates disagree with
// the portfolio's cached fields. It signals ledger corruption and is never
// recovered locally.
var ErrInvariantViolation = errors.New("portfolio aggregates disagree with trade history")

// Service recomputes and verifies portfolio statistics. Reads take the
// per-portfolio lock shared with the ledger so they never observe a
// settlement's trade update without its portfolio update.
type Service struct {
	portfolios storage.PortfolioStore
	trades     storage.TradeStore
	locks      *locks.Keyed
}

// New creates an accounting service over the given stores. reg must be the
// same registry handed to the ledger.
func New(portfolios storage.PortfolioStore, trades storage.TradeStore, reg *locks.Keyed) *Service {
	return &Service{portfolios: portfolios, trades: trades, locks: reg}
}

// Recompute folds all EXECUTED trades for the portfolio into PortfolioStats.
// averageReturn is zero when there are no executed trades. Idempotent: calling
// it twice with no intervening trades yields identical stats.
func (s *Service) Recompute(ctx context.Context, portfolioID int64) (*domain.PortfolioStats, error) {
	lock := s.locks.Get(portfolioID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.portfolios.GetByID(ctx, portfolioID); err != nil {
		return nil, fmt.Errorf("get portfolio %d: %w", portfolioID, err)
	}
	return s.recompute(ctx, portfolioID)
}

// Overview returns the portfolio together with freshly recomputed stats,
// both read inside one critical section so they describe the same moment.
func (s *Service) Overview(ctx context.Context, portfolioID int64) (*domain.Portfolio, *domain.PortfolioStats, error) {
	lock := s.locks.Get(portfolioID)
	lock.Lock()
	defer lock.Unlock()

	p, err := s.portfolios.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, nil, fmt.Errorf("get portfolio %d: %w", portfolioID, err)
	}
	stats, err := s.recompute(ctx, portfolioID)
	if err != nil {
		return nil, nil, err
	}
	return p, stats, nil
}

// recompute is the fold itself. Callers hold the portfolio lock.
func (s *Service) recompute(ctx context.Context, portfolioID int64) (*domain.PortfolioStats, error) {
	executed, err := s.trades.GetExecutedByPortfolioID(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("get executed trades for portfolio %d: %w", portfolioID, err)
	}

	stats := &domain.PortfolioStats{
		TotalPnl:      decimal.Zero,
		AverageReturn: decimal.Zero,
	}
	for _, t := range executed {
		if t.TradePnlUSD == nil {
			return nil, fmt.Errorf("trade %d: %w: EXECUTED trade without realized pnl", t.ID, ErrInvariantViolation)
		}
		stats.TotalTrades++
		if t.TradePnlUSD.IsPositive() {
			stats.WinningTrades++
		}
		stats.TotalPnl = stats.TotalPnl.Add(*t.TradePnlUSD)
	}

	if stats.TotalTrades > 0 {
		stats.AverageReturn = stats.TotalPnl.Div(decimal.NewFromInt(int64(stats.TotalTrades)))
	}
	return stats, nil
}

// VerifyAggregates checks that the portfolio's cached aggregate fields match
// the fold over its EXECUTED trades, along with the total fee sum. Returns
// ErrInvariantViolation (with detail) on any mismatch.
func (s *Service) VerifyAggregates(ctx context.Context, portfolioID int64) error {
	lock := s.locks.Get(portfolioID)
	lock.Lock()
	defer lock.Unlock()

	p, err := s.portfolios.GetByID(ctx, portfolioID)
	if err != nil {
		return fmt.Errorf("get portfolio %d: %w", portfolioID, err)
	}

	stats, err := s.recompute(ctx, portfolioID)
	if err != nil {
		return err
	}

	if p.TradesCount != stats.TotalTrades {
		return fmt.Errorf("portfolio %d: %w: cached tradesCount %d, fold %d",
			portfolioID, ErrInvariantViolation, p.TradesCount, stats.TotalTrades)
	}
	if p.WinningTradesCount != stats.WinningTrades {
		return fmt.Errorf("portfolio %d: %w: cached winningTradesCount %d, fold %d",
			portfolioID, ErrInvariantViolation, p.WinningTradesCount, stats.WinningTrades)
	}
	if !p.TotalPnlUSD.Equal(stats.TotalPnl) {
		return fmt.Errorf("portfolio %d: %w: cached totalPnlUsd %s, fold %s",
			portfolioID, ErrInvariantViolation, p.TotalPnlUSD, stats.TotalPnl)
	}

	executed, err := s.trades.GetExecutedByPortfolioID(ctx, portfolioID)
	if err != nil {
		return fmt.Errorf("get executed trades for portfolio %d: %w", portfolioID, err)
	}
	fees := decimal.Zero
	for _, t := range executed {
		fees = fees.Add(t.FeesSOL)
	}
	if !p.TotalFeesSOL.Equal(fees) {
		return fmt.Errorf("portfolio %d: %w: cached totalFeesSol %s, fold %s",
			portfolioID, ErrInvariantViolation, p.TotalFeesSOL, fees)
	}

	return nil
}
