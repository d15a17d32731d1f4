package postgres

import (
	"context"
	"fmt"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

// PoolStateStore implements storage.PoolStateStore backed by Postgres.
// Pool states are append-only; there is no update path.
type PoolStateStore struct {
	pool *Pool
}

// NewPoolStateStore creates a new Postgres pool state store.
func NewPoolStateStore(pool *Pool) *PoolStateStore {
	return &PoolStateStore{pool: pool}
}

// Insert stores a new pool state snapshot and assigns its id.
func (s *PoolStateStore) Insert(ctx context.Context, ps *domain.PoolState) error {
	if ps == nil {
		return fmt.Errorf("%w: nil pool state", storage.ErrInvalidInput)
	}

	query := `
		INSERT INTO pool_states (pool_address, lp_supply, token_a_balance, token_b_balance, observed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		ps.PoolAddress, ps.LpSupply, ps.TokenABalance, ps.TokenBBalance, ps.Timestamp,
	).Scan(&ps.ID)
	if err != nil {
		return fmt.Errorf("insert pool state: %w", err)
	}

	return nil
}

// GetByID retrieves a pool state by its id.
func (s *PoolStateStore) GetByID(ctx context.Context, id int64) (*domain.PoolState, error) {
	query := `
		SELECT id, pool_address, lp_supply, token_a_balance, token_b_balance, observed_at
		FROM pool_states WHERE id = $1`

	var ps domain.PoolState
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&ps.ID, &ps.PoolAddress, &ps.LpSupply, &ps.TokenABalance, &ps.TokenBBalance, &ps.Timestamp,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("%w: pool state %d", storage.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get pool state %d: %w", id, err)
	}

	return &ps, nil
}

// GetLatestByPool retrieves the most recent snapshot for a pool address.
func (s *PoolStateStore) GetLatestByPool(ctx context.Context, poolAddress string) (*domain.PoolState, error) {
	query := `
		SELECT id, pool_address, lp_supply, token_a_balance, token_b_balance, observed_at
		FROM pool_states
		WHERE pool_address = $1
		ORDER BY observed_at DESC, id DESC
		LIMIT 1`

	var ps domain.PoolState
	err := s.pool.QueryRow(ctx, query, poolAddress).Scan(
		&ps.ID, &ps.PoolAddress, &ps.LpSupply, &ps.TokenABalance, &ps.TokenBBalance, &ps.Timestamp,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("%w: pool %s", storage.ErrNotFound, poolAddress)
		}
		return nil, fmt.Errorf("get latest pool state for %s: %w", poolAddress, err)
	}

	return &ps, nil
}
