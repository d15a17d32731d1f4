package domain

import "github.com/shopspring/decimal"

// TokenPrice is a price observation with provenance, supplied by an external
// price source. Confidence is optional; absence is distinct from zero.
type TokenPrice struct {
	Price      decimal.Decimal `json:"price"`
	Timestamp  int64           `json:"timestamp"` // Unix timestamp in milliseconds
	Confidence *float64        `json:"confidence,omitempty"`
	Source     string          `json:"source"`
}
