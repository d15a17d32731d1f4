package memory

import (
	"context"
	"sort"
	"sync"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
// Append-only.
type SnapshotStore struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]*domain.PortfolioSnapshot // keyed by id
}

// NewSnapshotStore creates a new in-memory portfolio snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		nextID: 1,
		data:   make(map[int64]*domain.PortfolioSnapshot),
	}
}

// Insert adds a new snapshot and assigns its ID.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.PortfolioSnapshot) error {
	if snap == nil || snap.PortfolioID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap.ID = s.nextID
	s.nextID++

	copy := *snap
	s.data[snap.ID] = &copy
	return nil
}

// GetByPortfolioID retrieves all snapshots for a portfolio, ordered by
// created_at ASC.
func (s *SnapshotStore) GetByPortfolioID(_ context.Context, portfolioID int64) ([]*domain.PortfolioSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PortfolioSnapshot
	for _, snap := range s.data {
		if snap.PortfolioID == portfolioID {
			copy := *snap
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
