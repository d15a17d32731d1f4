// Package report derives read-only portfolio summaries for the status
// surface. It triggers no mutation.
package report

import (
	"context"
	"errors"
	"fmt"

	"solana-paper-trader/internal/accounting"
	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/price"
	"solana-paper-trader/internal/storage"
)

// Reporter composes portfolio state, recomputed stats and the latest price
// into a status response.
type Reporter struct {
	portfolios   storage.PortfolioStore
	accounting   *accounting.Service
	prices       price.Source
	primaryToken string // mint whose price is reported as lastPrice
}

// New creates a reporter. primaryToken is the portfolio's primary token mint
// used for the lastPrice lookup.
func New(portfolios storage.PortfolioStore, acct *accounting.Service, prices price.Source, primaryToken string) *Reporter {
	return &Reporter{
		portfolios:   portfolios,
		accounting:   acct,
		prices:       prices,
		primaryToken: primaryToken,
	}
}

// Status returns the portfolio status for a wallet address. A wallet without
// a portfolio yields an "uninitialized" response with guidance rather than an
// error. Price source failures degrade to a response without lastPrice.
func (r *Reporter) Status(ctx context.Context, walletAddress string) (*domain.PortfolioStatusResponse, error) {
	p, err := r.portfolios.GetByWallet(ctx, walletAddress)
	if errors.Is(err, storage.ErrNotFound) {
		action := "create_portfolio"
		return &domain.PortfolioStatusResponse{
			Status:  domain.PortfolioStatusUninitialized,
			Message: fmt.Sprintf("no portfolio exists for wallet %s", walletAddress),
			Action:  &action,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get portfolio for wallet %s: %w", walletAddress, err)
	}

	// Re-read the portfolio together with its stats so balances and
	// aggregates come from the same critical section.
	portfolioID := p.ID
	p, stats, err := r.accounting.Overview(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("portfolio %d overview: %w", portfolioID, err)
	}

	resp := &domain.PortfolioStatusResponse{
		Status:    domain.PortfolioStatusActive,
		Message:   fmt.Sprintf("portfolio active with %d executed trades", stats.TotalTrades),
		Portfolio: p,
		Stats:     stats,
	}

	if r.prices != nil {
		if tp, err := r.prices.TokenPrice(ctx, r.primaryToken); err == nil {
			last := tp.Price
			resp.LastPrice = &last
		}
	}

	return resp, nil
}
