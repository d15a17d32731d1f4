package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents one simulated exchange between two tokens within a portfolio.
// Corresponds to paper_trades table in PostgreSQL.
type Trade struct {
	ID          int64  // SERIAL primary key, assigned on insert
	PortfolioID int64  // FK to paper_portfolios, immutable
	TradeType   string // "BUY" | "SELL"

	TokenIn              string          // input token mint/symbol
	TokenOut             string          // output token mint/symbol
	AmountIn             decimal.Decimal // input amount, non-negative
	AmountOut            decimal.Decimal // quoted output amount, non-negative
	PriceAtTrade         decimal.Decimal // execution price at quote time
	EstimatedPriceImpact decimal.Decimal // signed fraction
	SlippageBps          int             // allowed slippage in basis points
	FeesSOL              decimal.Decimal // fees in SOL, non-negative

	VirtualSignature string // simulated transaction signature (base58)
	PoolStateID      int64  // FK to pool_states, immutable once set

	Status      string           // see TradeStatus* constants
	ExecutedAt  *time.Time       // set exactly once, on transition to EXECUTED
	CreatedAt   time.Time        // set at creation, immutable
	TradePnlUSD *decimal.Decimal // realized PnL, absent while PENDING

	Metadata map[string]any // opaque, stored and forwarded only
}

// Trade status constants. EXECUTED, FAILED and CANCELLED are terminal.
const (
	TradeStatusPending   = "PENDING"
	TradeStatusExecuted  = "EXECUTED"
	TradeStatusFailed    = "FAILED"
	TradeStatusCancelled = "CANCELLED"
)

// Trade type constants
const (
	TradeTypeBuy  = "BUY"
	TradeTypeSell = "SELL"
)

// ParseTradeStatus validates a persisted status value. An unrecognized value
// indicates data corruption and is rejected rather than defaulted.
func ParseTradeStatus(s string) (string, error) {
	switch s {
	case TradeStatusPending, TradeStatusExecuted, TradeStatusFailed, TradeStatusCancelled:
		return s, nil
	}
	return "", fmt.Errorf("unknown trade status %q", s)
}

// ParseTradeType validates a persisted trade type value.
func ParseTradeType(s string) (string, error) {
	switch s {
	case TradeTypeBuy, TradeTypeSell:
		return s, nil
	}
	return "", fmt.Errorf("unknown trade type %q", s)
}

// IsTerminalStatus reports whether a trade status permits no further transitions.
func IsTerminalStatus(s string) bool {
	return s == TradeStatusExecuted || s == TradeStatusFailed || s == TradeStatusCancelled
}
