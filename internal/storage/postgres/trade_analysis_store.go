package postgres

import (
	"context"
	"fmt"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

// TradeAnalysisStore implements storage.TradeAnalysisStore backed by Postgres.
type TradeAnalysisStore struct {
	pool *Pool
}

// NewTradeAnalysisStore creates a new Postgres trade analysis store.
func NewTradeAnalysisStore(pool *Pool) *TradeAnalysisStore {
	return &TradeAnalysisStore{pool: pool}
}

// Insert attaches an analysis to a trade. At most one analysis per trade,
// enforced by the primary key on trade_id.
func (s *TradeAnalysisStore) Insert(ctx context.Context, a *domain.TradeAnalysis) error {
	if a == nil {
		return fmt.Errorf("%w: nil analysis", storage.ErrInvalidInput)
	}
	if _, err := domain.ParseSentiment(a.Sentiment); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO trade_analyses (trade_id, score, sentiment, insights, metadata)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, query, a.TradeID, a.Score, a.Sentiment, a.Insights, a.Metadata)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: analysis for trade %d", storage.ErrDuplicateKey, a.TradeID)
		}
		return fmt.Errorf("insert trade analysis: %w", err)
	}

	return nil
}

// GetByTradeID retrieves the analysis attached to a trade.
func (s *TradeAnalysisStore) GetByTradeID(ctx context.Context, tradeID int64) (*domain.TradeAnalysis, error) {
	query := `
		SELECT trade_id, score, sentiment, insights, metadata
		FROM trade_analyses WHERE trade_id = $1`

	var a domain.TradeAnalysis
	err := s.pool.QueryRow(ctx, query, tradeID).Scan(
		&a.TradeID, &a.Score, &a.Sentiment, &a.Insights, &a.Metadata,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("%w: analysis for trade %d", storage.ErrNotFound, tradeID)
		}
		return nil, fmt.Errorf("get trade analysis %d: %w", tradeID, err)
	}

	if _, err := domain.ParseSentiment(a.Sentiment); err != nil {
		return nil, fmt.Errorf("trade analysis %d: %w", tradeID, err)
	}

	return &a, nil
}
