// Package price supplies token price observations to the engine. Sources are
// injected as explicit dependencies so the accounting core stays free of
// ambient global state.
package price

import (
	"context"
	"errors"

	"solana-paper-trader/internal/domain"
)

// ErrUnavailable is returned when no source can supply a price.
var ErrUnavailable = errors.New("no price available")

// Source supplies the current price observation for a token mint.
type Source interface {
	TokenPrice(ctx context.Context, mint string) (*domain.TokenPrice, error)
}
