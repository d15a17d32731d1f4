package price

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-paper-trader/internal/domain"
)

type failingSource struct {
	err   error
	calls int
}

func (f *failingSource) TokenPrice(context.Context, string) (*domain.TokenPrice, error) {
	f.calls++
	return nil, f.err
}

func TestStatic_TokenPrice(t *testing.T) {
	src := NewStatic(map[string]decimal.Decimal{
		"BABABILL": decimal.RequireFromString("1.55"),
	})

	tp, err := src.TokenPrice(context.Background(), "BABABILL")
	require.NoError(t, err)
	assert.True(t, tp.Price.Equal(decimal.RequireFromString("1.55")))
	assert.Equal(t, "static", tp.Source)
	require.NotNil(t, tp.Confidence)
	assert.Equal(t, 1.0, *tp.Confidence)

	_, err = src.TokenPrice(context.Background(), "UNKNOWN")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestStatic_Set(t *testing.T) {
	src := NewStatic(nil)
	src.Set("SOL", decimal.NewFromInt(150))

	tp, err := src.TokenPrice(context.Background(), "SOL")
	require.NoError(t, err)
	assert.True(t, tp.Price.Equal(decimal.NewFromInt(150)))
}

func TestAggregated_Failover(t *testing.T) {
	failing := &failingSource{err: errors.New("upstream timeout")}
	fallback := NewStatic(map[string]decimal.Decimal{
		"SOL": decimal.NewFromInt(150),
	})

	agg := NewAggregated(nil, failing, fallback)

	tp, err := agg.TokenPrice(context.Background(), "SOL")
	require.NoError(t, err)
	assert.True(t, tp.Price.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 1, failing.calls)
}

func TestAggregated_PriorityOrder(t *testing.T) {
	first := NewStatic(map[string]decimal.Decimal{"SOL": decimal.NewFromInt(150)})
	second := NewStatic(map[string]decimal.Decimal{"SOL": decimal.NewFromInt(999)})

	agg := NewAggregated(nil, first, second)

	tp, err := agg.TokenPrice(context.Background(), "SOL")
	require.NoError(t, err)
	assert.True(t, tp.Price.Equal(decimal.NewFromInt(150)), "first source must win")
}

func TestAggregated_AllFail(t *testing.T) {
	lastErr := errors.New("rate limited")
	agg := NewAggregated(nil,
		&failingSource{err: errors.New("upstream timeout")},
		&failingSource{err: lastErr},
	)

	_, err := agg.TokenPrice(context.Background(), "SOL")
	assert.ErrorIs(t, err, lastErr)
}

func TestAggregated_NoSources(t *testing.T) {
	agg := NewAggregated(nil)

	_, err := agg.TokenPrice(context.Background(), "SOL")
	assert.ErrorIs(t, err, ErrUnavailable)
}
