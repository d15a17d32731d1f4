package price

import (
	"context"
	"log"

	"solana-paper-trader/internal/domain"
)

// Aggregated tries each underlying source in order and returns the first
// price obtained. Source failures are logged and the next source is tried;
// the last error is returned when all sources fail.
type Aggregated struct {
	sources []Source
	logger  *log.Logger
}

// NewAggregated creates an aggregated source over the given sources, in
// priority order.
func NewAggregated(logger *log.Logger, sources ...Source) *Aggregated {
	return &Aggregated{sources: sources, logger: logger}
}

// TokenPrice returns the first price any source can supply.
func (a *Aggregated) TokenPrice(ctx context.Context, mint string) (*domain.TokenPrice, error) {
	var lastErr error
	for _, src := range a.sources {
		p, err := src.TokenPrice(ctx, mint)
		if err == nil {
			return p, nil
		}
		if a.logger != nil {
			a.logger.Printf("price source failed for %s: %v", mint, err)
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrUnavailable
}

var _ Source = (*Aggregated)(nil)
