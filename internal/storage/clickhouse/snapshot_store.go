package clickhouse

import (
	"context"
	"fmt"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
// Snapshots are an append-only time series; MergeTree fits them better
// than Postgres rows.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Insert adds a new snapshot. ClickHouse has no sequences, so the id is
// derived from the capture time, which is unique per portfolio because
// snapshots are taken on a scheduler tick.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.PortfolioSnapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", storage.ErrInvalidInput)
	}
	if snap.ID == 0 {
		snap.ID = snap.CreatedAt.UnixNano()
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO portfolio_snapshots (
			id, portfolio_id, balance_sol, balance_bababill,
			sol_price_usd, bababill_price_usd, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		uint64(snap.ID), uint64(snap.PortfolioID),
		snap.BalanceSOL, snap.BalanceBababill,
		snap.SolPriceUSD, snap.BababillPriceUSD,
		snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPortfolioID retrieves all snapshots for a portfolio, ordered by
// created_at ASC.
func (s *SnapshotStore) GetByPortfolioID(ctx context.Context, portfolioID int64) ([]*domain.PortfolioSnapshot, error) {
	query := `
		SELECT id, portfolio_id, balance_sol, balance_bababill,
		       sol_price_usd, bababill_price_usd, created_at
		FROM portfolio_snapshots
		WHERE portfolio_id = ?
		ORDER BY created_at ASC
	`

	rows, err := s.conn.Query(ctx, query, uint64(portfolioID))
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.PortfolioSnapshot
	for rows.Next() {
		var (
			snap     domain.PortfolioSnapshot
			id, pfID uint64
		)
		err := rows.Scan(
			&id, &pfID,
			&snap.BalanceSOL, &snap.BalanceBababill,
			&snap.SolPriceUSD, &snap.BababillPriceUSD,
			&snap.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.ID = int64(id)
		snap.PortfolioID = int64(pfID)
		snapshots = append(snapshots, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return snapshots, nil
}
