package memory

import (
	"context"
	"sort"
	"sync"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]*domain.Trade // keyed by id
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		nextID: 1,
		data:   make(map[int64]*domain.Trade),
	}
}

// Insert adds a new trade and assigns its ID.
func (s *TradeStore) Insert(_ context.Context, t *domain.Trade) error {
	if t == nil || t.PortfolioID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = s.nextID
	s.nextID++

	s.data[t.ID] = cloneTrade(t)
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(_ context.Context, id int64) (*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneTrade(t), nil
}

// Update persists mutable trade fields. Returns ErrNotFound if the trade
// does not exist. Identity and linkage fields are immutable.
func (s *TradeStore) Update(_ context.Context, t *domain.Trade) error {
	if t == nil || t.ID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.data[t.ID]
	if !exists {
		return storage.ErrNotFound
	}
	if existing.PortfolioID != t.PortfolioID || existing.PoolStateID != t.PoolStateID {
		return storage.ErrInvalidInput
	}

	s.data[t.ID] = cloneTrade(t)
	return nil
}

// GetByPortfolioID retrieves trades for a portfolio, ordered by created_at
// DESC (newest first), with limit/offset paging. limit <= 0 means no limit.
func (s *TradeStore) GetByPortfolioID(_ context.Context, portfolioID int64, limit, offset int) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.PortfolioID == portfolioID {
			result = append(result, cloneTrade(t))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if offset > 0 {
		if offset >= len(result) {
			return nil, nil
		}
		result = result[offset:]
	}
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// GetExecutedByPortfolioID retrieves all EXECUTED trades for a portfolio,
// ordered by executed_at ASC.
func (s *TradeStore) GetExecutedByPortfolioID(_ context.Context, portfolioID int64) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.PortfolioID == portfolioID && t.Status == domain.TradeStatusExecuted {
			result = append(result, cloneTrade(t))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		ti, tj := result[i], result[j]
		if ti.ExecutedAt != nil && tj.ExecutedAt != nil && !ti.ExecutedAt.Equal(*tj.ExecutedAt) {
			return ti.ExecutedAt.Before(*tj.ExecutedAt)
		}
		return ti.ID < tj.ID
	})

	return result, nil
}

// cloneTrade returns a deep copy so callers never share store memory.
func cloneTrade(t *domain.Trade) *domain.Trade {
	c := *t
	if t.ExecutedAt != nil {
		at := *t.ExecutedAt
		c.ExecutedAt = &at
	}
	if t.TradePnlUSD != nil {
		pnl := *t.TradePnlUSD
		c.TradePnlUSD = &pnl
	}
	c.Metadata = cloneMetadata(t.Metadata)
	return &c
}

var _ storage.TradeStore = (*TradeStore)(nil)
