package memory

import (
	"context"
	"sort"
	"sync"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

// PortfolioStore is an in-memory implementation of storage.PortfolioStore.
type PortfolioStore struct {
	mu       sync.RWMutex
	nextID   int64
	data     map[int64]*domain.Portfolio // keyed by id
	byWallet map[string]int64            // wallet_address -> id
}

// NewPortfolioStore creates a new in-memory portfolio store.
func NewPortfolioStore() *PortfolioStore {
	return &PortfolioStore{
		nextID:   1,
		data:     make(map[int64]*domain.Portfolio),
		byWallet: make(map[string]int64),
	}
}

// Insert adds a new portfolio and assigns its ID.
// Returns ErrDuplicateKey if a portfolio already exists for the wallet.
func (s *PortfolioStore) Insert(_ context.Context, p *domain.Portfolio) error {
	if p == nil || p.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byWallet[p.WalletAddress]; exists {
		return storage.ErrDuplicateKey
	}

	p.ID = s.nextID
	s.nextID++

	s.data[p.ID] = clonePortfolio(p)
	s.byWallet[p.WalletAddress] = p.ID
	return nil
}

// GetByID retrieves a portfolio by its ID. Returns ErrNotFound if not exists.
func (s *PortfolioStore) GetByID(_ context.Context, id int64) (*domain.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return clonePortfolio(p), nil
}

// GetByWallet retrieves the portfolio for a wallet address.
// Returns ErrNotFound if not exists.
func (s *PortfolioStore) GetByWallet(_ context.Context, walletAddress string) (*domain.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byWallet[walletAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return clonePortfolio(s.data[id]), nil
}

// Update persists mutable portfolio fields. Returns ErrNotFound if the
// portfolio does not exist. The wallet address is immutable.
func (s *PortfolioStore) Update(_ context.Context, p *domain.Portfolio) error {
	if p == nil || p.ID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.data[p.ID]
	if !exists {
		return storage.ErrNotFound
	}
	if existing.WalletAddress != p.WalletAddress {
		return storage.ErrInvalidInput
	}

	s.data[p.ID] = clonePortfolio(p)
	return nil
}

// List retrieves all portfolios ordered by ID.
func (s *PortfolioStore) List(_ context.Context) ([]*domain.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Portfolio, 0, len(s.data))
	for _, p := range s.data {
		result = append(result, clonePortfolio(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// clonePortfolio returns a deep copy so callers never share store memory.
func clonePortfolio(p *domain.Portfolio) *domain.Portfolio {
	c := *p
	c.Metadata = cloneMetadata(p.Metadata)
	return &c
}

// cloneMetadata copies the opaque metadata attachment one level deep.
func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

var _ storage.PortfolioStore = (*PortfolioStore)(nil)
