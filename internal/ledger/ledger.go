// Package ledger validates and applies paper trades against portfolio
// balances. It owns the trade lifecycle state machine and is the only
// component allowed to mutate portfolio balances.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/idhash"
	"solana-paper-trader/internal/locks"
	"solana-paper-trader/internal/storage"
)

// Config holds the token pair a ledger accounts for. Fees are always
// denominated in the SOL side.
type Config struct {
	SolToken   string // e.g. "SOL"
	QuoteToken string // e.g. "BABABILL"
}

// DefaultConfig returns the default SOL/BABABILL pair.
func DefaultConfig() Config {
	return Config{SolToken: "SOL", QuoteToken: "BABABILL"}
}

// Ledger applies trades to portfolios. Operations on the same portfolio are
// serialized through the shared per-portfolio lock registry; operations on
// different portfolios run independently. The accounting and report services
// take the same registry, so a reader can never observe the trade row of a
// settlement without its portfolio update.
type Ledger struct {
	cfg        Config
	portfolios storage.PortfolioStore
	trades     storage.TradeStore
	pools      storage.PoolStateStore
	locks      *locks.Keyed

	now func() time.Time
}

// New creates a ledger over the given stores. reg must be the same registry
// handed to the accounting service.
func New(cfg Config, portfolios storage.PortfolioStore, trades storage.TradeStore, pools storage.PoolStateStore, reg *locks.Keyed) *Ledger {
	return &Ledger{
		cfg:        cfg,
		portfolios: portfolios,
		trades:     trades,
		pools:      pools,
		locks:      reg,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// portfolioLock returns the mutex serializing operations for one portfolio.
func (l *Ledger) portfolioLock(portfolioID int64) *sync.Mutex {
	return l.locks.Get(portfolioID)
}

// CreatePortfolio creates a new portfolio for a wallet address with the given
// initial balances. Returns storage.ErrDuplicateKey if the wallet already has
// a portfolio, ErrInvalidWallet if the address is not a valid Solana pubkey.
func (l *Ledger) CreatePortfolio(ctx context.Context, walletAddress string, initialSOL, initialBababill decimal.Decimal, metadata map[string]any) (*domain.Portfolio, error) {
	if !idhash.ValidWalletAddress(walletAddress) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWallet, walletAddress)
	}
	if initialSOL.IsNegative() || initialBababill.IsNegative() {
		return nil, storage.ErrInvalidInput
	}

	now := l.now()
	p := &domain.Portfolio{
		WalletAddress:          walletAddress,
		InitialBalanceSOL:      initialSOL,
		InitialBalanceBababill: initialBababill,
		CurrentBalanceSOL:      initialSOL,
		CurrentBalanceBababill: initialBababill,
		TotalPnlUSD:            decimal.Zero,
		TotalFeesSOL:           decimal.Zero,
		CreatedAt:              now,
		UpdatedAt:              now,
		Metadata:               metadata,
	}
	if err := l.portfolios.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("insert portfolio: %w", err)
	}
	return p, nil
}

// SubmitRequest carries everything needed to open a PENDING trade.
type SubmitRequest struct {
	PortfolioID int64
	TradeType   string // BUY or SELL
	TokenIn     string
	TokenOut    string
	Quote       *domain.TradeQuote
	PoolStateID int64
	SlippageBps int
	Metadata    map[string]any
}

// Submit validates a quote against the portfolio balance and creates a trade
// in PENDING state. No balances are mutated until settlement. Returns
// ErrInsufficientFunds if the outgoing balance cannot cover amountIn plus
// fees.
func (l *Ledger) Submit(ctx context.Context, req SubmitRequest) (*domain.Trade, error) {
	if req.Quote == nil || req.SlippageBps < 0 {
		return nil, storage.ErrInvalidInput
	}
	if _, err := domain.ParseTradeType(req.TradeType); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	lock := l.portfolioLock(req.PortfolioID)
	lock.Lock()
	defer lock.Unlock()

	p, err := l.portfolios.GetByID(ctx, req.PortfolioID)
	if err != nil {
		return nil, fmt.Errorf("get portfolio %d: %w", req.PortfolioID, err)
	}
	if _, err := l.pools.GetByID(ctx, req.PoolStateID); err != nil {
		return nil, fmt.Errorf("get pool state %d: %w", req.PoolStateID, err)
	}

	feesSOL, err := l.feesInSOL(req.TokenIn, req.Quote)
	if err != nil {
		return nil, err
	}
	if err := l.checkFunds(p, req.TokenIn, req.Quote.AmountIn, feesSOL); err != nil {
		return nil, err
	}

	now := l.now()
	t := &domain.Trade{
		PortfolioID:          req.PortfolioID,
		TradeType:            req.TradeType,
		TokenIn:              req.TokenIn,
		TokenOut:             req.TokenOut,
		AmountIn:             req.Quote.AmountIn,
		AmountOut:            req.Quote.EstimatedAmountOut,
		PriceAtTrade:         req.Quote.Price,
		EstimatedPriceImpact: req.Quote.PriceImpact,
		SlippageBps:          req.SlippageBps,
		FeesSOL:              feesSOL,
		VirtualSignature:     idhash.ComputeVirtualSignature(req.PortfolioID, req.TokenIn, req.TokenOut, now.UnixMilli()),
		PoolStateID:          req.PoolStateID,
		Status:               domain.TradeStatusPending,
		CreatedAt:            now,
		Metadata:             req.Metadata,
	}
	if err := l.trades.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("insert trade: %w", err)
	}
	return t, nil
}

// Outcome describes the result of a settlement attempt. On success the
// reference USD prices are used to compute the trade's realized PnL.
type Outcome struct {
	Success     bool
	Reason      string // failure reason, recorded for FAILED trades
	PriceInUSD  decimal.Decimal
	PriceOutUSD decimal.Decimal
}

// Settle drives a PENDING trade to a terminal state. On success it atomically
// debits amountIn, credits amountOut, debits fees on the SOL side, stamps
// executedAt and records the realized PnL on both the trade and the
// portfolio's cached aggregates.
//
// Settling a trade that is already EXECUTED or FAILED is a no-op that returns
// the stored terminal record, so duplicate settlement signals are safe.
// Settling a CANCELLED trade returns ErrInvalidStateTransition.
func (l *Ledger) Settle(ctx context.Context, tradeID int64, out Outcome) (*domain.Trade, error) {
	t, err := l.trades.GetByID(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("get trade %d: %w", tradeID, err)
	}

	lock := l.portfolioLock(t.PortfolioID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: a concurrent settle may have won the race.
	t, err = l.trades.GetByID(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("get trade %d: %w", tradeID, err)
	}

	switch t.Status {
	case domain.TradeStatusExecuted, domain.TradeStatusFailed:
		return t, nil // idempotent no-op
	case domain.TradeStatusCancelled:
		return nil, fmt.Errorf("settle trade %d: %w: trade is CANCELLED", tradeID, ErrInvalidStateTransition)
	case domain.TradeStatusPending:
		// fall through
	default:
		return nil, fmt.Errorf("settle trade %d: %w: unknown status %q", tradeID, ErrInvalidStateTransition, t.Status)
	}

	if !out.Success {
		return l.markFailed(ctx, t, out.Reason)
	}

	p, err := l.portfolios.GetByID(ctx, t.PortfolioID)
	if err != nil {
		return nil, fmt.Errorf("get portfolio %d: %w", t.PortfolioID, err)
	}

	newSOL, newBababill, err := l.applyBalances(p, t)
	if err != nil {
		// Balance changed since submit and can no longer cover the trade.
		// Record the failure and surface the error for the caller.
		if _, ferr := l.markFailed(ctx, t, "insufficient funds at settlement"); ferr != nil {
			return nil, ferr
		}
		return t, err
	}

	pnl := t.AmountOut.Mul(out.PriceOutUSD).Sub(t.AmountIn.Mul(out.PriceInUSD))
	now := l.now()

	t.Status = domain.TradeStatusExecuted
	t.ExecutedAt = &now
	t.TradePnlUSD = &pnl
	if err := l.trades.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update trade %d: %w", tradeID, err)
	}

	p.CurrentBalanceSOL = newSOL
	p.CurrentBalanceBababill = newBababill
	p.TotalPnlUSD = p.TotalPnlUSD.Add(pnl)
	p.TotalFeesSOL = p.TotalFeesSOL.Add(t.FeesSOL)
	p.TradesCount++
	if pnl.IsPositive() {
		p.WinningTradesCount++
	}
	p.UpdatedAt = now
	if err := l.portfolios.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update portfolio %d: %w", p.ID, err)
	}

	return t, nil
}

// Cancel transitions a PENDING trade to CANCELLED. No balances are touched.
// Cancelling a trade already in a terminal state returns
// ErrInvalidStateTransition.
func (l *Ledger) Cancel(ctx context.Context, tradeID int64) (*domain.Trade, error) {
	t, err := l.trades.GetByID(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("get trade %d: %w", tradeID, err)
	}

	lock := l.portfolioLock(t.PortfolioID)
	lock.Lock()
	defer lock.Unlock()

	t, err = l.trades.GetByID(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("get trade %d: %w", tradeID, err)
	}

	if domain.IsTerminalStatus(t.Status) {
		return nil, fmt.Errorf("cancel trade %d: %w: trade is %s", tradeID, ErrInvalidStateTransition, t.Status)
	}

	t.Status = domain.TradeStatusCancelled
	if err := l.trades.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update trade %d: %w", tradeID, err)
	}
	return t, nil
}

// markFailed transitions a PENDING trade to FAILED without balance mutation.
func (l *Ledger) markFailed(ctx context.Context, t *domain.Trade, reason string) (*domain.Trade, error) {
	t.Status = domain.TradeStatusFailed
	if reason != "" {
		if t.Metadata == nil {
			t.Metadata = make(map[string]any)
		}
		t.Metadata["failureReason"] = reason
	}
	if err := l.trades.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update trade %d: %w", t.ID, err)
	}
	return t, nil
}

// feesInSOL converts a quote's fee (denominated in amountIn units) to SOL.
func (l *Ledger) feesInSOL(tokenIn string, q *domain.TradeQuote) (decimal.Decimal, error) {
	switch tokenIn {
	case l.cfg.SolToken:
		return q.Fee, nil
	case l.cfg.QuoteToken:
		// Quote.Price is tokenOut per tokenIn, here SOL per quote token.
		return q.Fee.Mul(q.Price), nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownToken, tokenIn)
}

// checkFunds verifies the portfolio can cover amountIn plus SOL fees.
func (l *Ledger) checkFunds(p *domain.Portfolio, tokenIn string, amountIn, feesSOL decimal.Decimal) error {
	switch tokenIn {
	case l.cfg.SolToken:
		if p.CurrentBalanceSOL.LessThan(amountIn.Add(feesSOL)) {
			return fmt.Errorf("%w: need %s SOL, have %s", ErrInsufficientFunds,
				amountIn.Add(feesSOL), p.CurrentBalanceSOL)
		}
	case l.cfg.QuoteToken:
		if p.CurrentBalanceBababill.LessThan(amountIn) {
			return fmt.Errorf("%w: need %s %s, have %s", ErrInsufficientFunds,
				amountIn, tokenIn, p.CurrentBalanceBababill)
		}
		if p.CurrentBalanceSOL.LessThan(feesSOL) {
			return fmt.Errorf("%w: need %s SOL for fees, have %s", ErrInsufficientFunds,
				feesSOL, p.CurrentBalanceSOL)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownToken, tokenIn)
	}
	return nil
}

// applyBalances computes post-settlement balances, returning
// ErrInsufficientFunds if any side would go negative.
func (l *Ledger) applyBalances(p *domain.Portfolio, t *domain.Trade) (sol, bababill decimal.Decimal, err error) {
	sol = p.CurrentBalanceSOL
	bababill = p.CurrentBalanceBababill

	switch t.TokenIn {
	case l.cfg.SolToken:
		sol = sol.Sub(t.AmountIn)
		bababill = bababill.Add(t.AmountOut)
	case l.cfg.QuoteToken:
		bababill = bababill.Sub(t.AmountIn)
		sol = sol.Add(t.AmountOut)
	default:
		return sol, bababill, fmt.Errorf("%w: %s", ErrUnknownToken, t.TokenIn)
	}

	sol = sol.Sub(t.FeesSOL)
	if sol.IsNegative() || bababill.IsNegative() {
		return sol, bababill, fmt.Errorf("settle trade %d: %w", t.ID, ErrInsufficientFunds)
	}
	return sol, bababill, nil
}
