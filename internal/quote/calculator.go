// Package quote estimates swap outcomes against a pool state snapshot using
// constant-product math. All arithmetic is exact decimal; the calculator is
// pure and deterministic.
package quote

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
)

// Quote errors.
var (
	// ErrInvalidAmount is returned when amountIn is not strictly positive.
	ErrInvalidAmount = errors.New("amount in must be positive")

	// ErrInsufficientLiquidity is returned when pool reserves cannot
	// satisfy the requested swap.
	ErrInsufficientLiquidity = errors.New("insufficient pool liquidity")

	// ErrUnknownToken is returned when neither reserve side matches the
	// requested token pair orientation.
	ErrUnknownToken = errors.New("token not in pool")
)

// DefaultFeeRate is the pool fee fraction applied to amountIn (25 bps,
// the Meteora constant-product default).
var DefaultFeeRate = decimal.RequireFromString("0.0025")

// Pair names the two tokens backing a pool's A/B reserves.
type Pair struct {
	TokenA string
	TokenB string
}

// Calculator computes trade quotes for a fixed token pair.
type Calculator struct {
	pair    Pair
	feeRate decimal.Decimal
}

// NewCalculator creates a calculator for a token pair with the given fee
// fraction. A zero feeRate is valid and means no fee.
func NewCalculator(pair Pair, feeRate decimal.Decimal) *Calculator {
	return &Calculator{pair: pair, feeRate: feeRate}
}

// Quote estimates the output of swapping amountIn of tokenIn for tokenOut
// against the given pool snapshot. Returns ErrInsufficientLiquidity when the
// reserves cannot cover the swap. The pool state is never mutated.
func (c *Calculator) Quote(pool *domain.PoolState, tokenIn, tokenOut string, amountIn decimal.Decimal) (*domain.TradeQuote, error) {
	if !amountIn.IsPositive() {
		return nil, ErrInvalidAmount
	}

	reserveIn, reserveOut, err := c.orientReserves(pool, tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	if reserveIn.IsNegative() || reserveOut.IsNegative() {
		return nil, fmt.Errorf("pool %s: negative reserve", pool.PoolAddress)
	}
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return nil, ErrInsufficientLiquidity
	}

	fee := amountIn.Mul(c.feeRate)
	amountInNet := amountIn.Sub(fee)
	if !amountInNet.IsPositive() {
		return nil, ErrInvalidAmount
	}

	// Constant product: amountOut = reserveOut * inNet / (reserveIn + inNet).
	// Output approaches but never reaches reserveOut as amountIn grows.
	amountOut := reserveOut.Mul(amountInNet).Div(reserveIn.Add(amountInNet))
	if amountOut.GreaterThanOrEqual(reserveOut) {
		return nil, ErrInsufficientLiquidity
	}

	// Price impact: relative deviation of the average execution price from
	// the marginal (spot) price. Always in [0, 1) for constant product.
	spot := reserveOut.Div(reserveIn)
	avg := amountOut.Div(amountInNet)
	impact := spot.Sub(avg).Div(spot)

	return &domain.TradeQuote{
		AmountIn:           amountIn,
		EstimatedAmountOut: amountOut,
		PriceImpact:        impact,
		Fee:                fee,
		Price:              spot,
	}, nil
}

// orientReserves maps pool A/B reserves to the in/out direction of the swap.
func (c *Calculator) orientReserves(pool *domain.PoolState, tokenIn, tokenOut string) (decimal.Decimal, decimal.Decimal, error) {
	reserveA, err := decimal.NewFromString(pool.TokenABalance)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("parse token A reserve %q: %w", pool.TokenABalance, err)
	}
	reserveB, err := decimal.NewFromString(pool.TokenBBalance)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("parse token B reserve %q: %w", pool.TokenBBalance, err)
	}

	switch {
	case tokenIn == c.pair.TokenA && tokenOut == c.pair.TokenB:
		return reserveA, reserveB, nil
	case tokenIn == c.pair.TokenB && tokenOut == c.pair.TokenA:
		return reserveB, reserveA, nil
	}
	return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s -> %s", ErrUnknownToken, tokenIn, tokenOut)
}
