package domain

import "github.com/shopspring/decimal"

// TradeQuote is an ephemeral swap estimate produced by the quote calculator
// and consumed immediately by the trade ledger. Not persisted.
type TradeQuote struct {
	AmountIn           decimal.Decimal `json:"amountIn"`
	EstimatedAmountOut decimal.Decimal `json:"estimatedAmountOut"`
	PriceImpact        decimal.Decimal `json:"priceImpact"` // signed fraction
	Fee                decimal.Decimal `json:"fee"`         // in units of amountIn
	Price              decimal.Decimal `json:"price"`       // spot price at quote time
}
