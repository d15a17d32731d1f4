package price

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
)

// Static is a fixed-price source for development and tests.
type Static struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

// NewStatic creates a static source with the given mint -> price table.
func NewStatic(prices map[string]decimal.Decimal) *Static {
	table := make(map[string]decimal.Decimal, len(prices))
	for mint, p := range prices {
		table[mint] = p
	}
	return &Static{prices: table}
}

// Set updates the price for a mint.
func (s *Static) Set(mint string, p decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[mint] = p
}

// TokenPrice returns the configured price for a mint.
func (s *Static) TokenPrice(_ context.Context, mint string) (*domain.TokenPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prices[mint]
	if !ok {
		return nil, ErrUnavailable
	}

	confidence := 1.0
	return &domain.TokenPrice{
		Price:      p,
		Timestamp:  time.Now().UnixMilli(),
		Confidence: &confidence,
		Source:     "static",
	}, nil
}

var _ Source = (*Static)(nil)
