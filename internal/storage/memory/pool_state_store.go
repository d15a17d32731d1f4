package memory

import (
	"context"
	"sync"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

// PoolStateStore is an in-memory implementation of storage.PoolStateStore.
// Append-only: snapshots are immutable once recorded.
type PoolStateStore struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]*domain.PoolState // keyed by id
}

// NewPoolStateStore creates a new in-memory pool state store.
func NewPoolStateStore() *PoolStateStore {
	return &PoolStateStore{
		nextID: 1,
		data:   make(map[int64]*domain.PoolState),
	}
}

// Insert adds a new pool state snapshot and assigns its ID.
func (s *PoolStateStore) Insert(_ context.Context, st *domain.PoolState) error {
	if st == nil || st.PoolAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st.ID = s.nextID
	s.nextID++

	copy := *st
	s.data[st.ID] = &copy
	return nil
}

// GetByID retrieves a snapshot by its ID. Returns ErrNotFound if not exists.
func (s *PoolStateStore) GetByID(_ context.Context, id int64) (*domain.PoolState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *st
	return &copy, nil
}

// GetLatestByPool retrieves the most recent snapshot for a pool address.
// Returns ErrNotFound if none exists.
func (s *PoolStateStore) GetLatestByPool(_ context.Context, poolAddress string) (*domain.PoolState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.PoolState
	for _, st := range s.data {
		if st.PoolAddress != poolAddress {
			continue
		}
		if latest == nil || st.Timestamp.After(latest.Timestamp) ||
			(st.Timestamp.Equal(latest.Timestamp) && st.ID > latest.ID) {
			latest = st
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	copy := *latest
	return &copy, nil
}

var _ storage.PoolStateStore = (*PoolStateStore)(nil)
