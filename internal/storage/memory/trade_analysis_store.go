package memory

import (
	"context"
	"sync"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

// TradeAnalysisStore is an in-memory implementation of
// storage.TradeAnalysisStore. Append-only: one analysis per trade.
type TradeAnalysisStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.TradeAnalysis // keyed by trade_id
}

// NewTradeAnalysisStore creates a new in-memory trade analysis store.
func NewTradeAnalysisStore() *TradeAnalysisStore {
	return &TradeAnalysisStore{
		data: make(map[int64]*domain.TradeAnalysis),
	}
}

// Insert adds a new analysis. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeAnalysisStore) Insert(_ context.Context, a *domain.TradeAnalysis) error {
	if a == nil || a.TradeID == 0 {
		return storage.ErrInvalidInput
	}
	if _, err := domain.ParseSentiment(a.Sentiment); err != nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[a.TradeID] = cloneAnalysis(a)
	return nil
}

// GetByTradeID retrieves the analysis for a trade. Returns ErrNotFound if not exists.
func (s *TradeAnalysisStore) GetByTradeID(_ context.Context, tradeID int64) (*domain.TradeAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneAnalysis(a), nil
}

// cloneAnalysis returns a deep copy so callers never share store memory.
func cloneAnalysis(a *domain.TradeAnalysis) *domain.TradeAnalysis {
	c := *a
	c.Insights = append([]string(nil), a.Insights...)
	c.Metadata = cloneMetadata(a.Metadata)
	return &c
}

var _ storage.TradeAnalysisStore = (*TradeAnalysisStore)(nil)
