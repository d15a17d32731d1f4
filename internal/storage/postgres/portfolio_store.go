package postgres

import (
	"context"
	"fmt"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

// PortfolioStore implements storage.PortfolioStore backed by Postgres.
type PortfolioStore struct {
	pool *Pool
}

// NewPortfolioStore creates a new Postgres portfolio store.
func NewPortfolioStore(pool *Pool) *PortfolioStore {
	return &PortfolioStore{pool: pool}
}

const portfolioColumns = `
	id, wallet_address,
	initial_balance_sol::text, initial_balance_bababill::text,
	current_balance_sol::text, current_balance_bababill::text,
	total_pnl_usd::text, total_fees_sol::text,
	trades_count, winning_trades_count,
	metadata, created_at, updated_at`

// Insert stores a new portfolio and assigns its id.
func (s *PortfolioStore) Insert(ctx context.Context, p *domain.Portfolio) error {
	if p == nil {
		return fmt.Errorf("%w: nil portfolio", storage.ErrInvalidInput)
	}

	query := `
		INSERT INTO paper_portfolios (
			wallet_address,
			initial_balance_sol, initial_balance_bababill,
			current_balance_sol, current_balance_bababill,
			total_pnl_usd, total_fees_sol,
			trades_count, winning_trades_count,
			metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		p.WalletAddress,
		p.InitialBalanceSOL.String(), p.InitialBalanceBababill.String(),
		p.CurrentBalanceSOL.String(), p.CurrentBalanceBababill.String(),
		p.TotalPnlUSD.String(), p.TotalFeesSOL.String(),
		p.TradesCount, p.WinningTradesCount,
		p.Metadata, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: wallet %s", storage.ErrDuplicateKey, p.WalletAddress)
		}
		return fmt.Errorf("insert portfolio: %w", err)
	}

	return nil
}

// GetByID retrieves a portfolio by its id.
func (s *PortfolioStore) GetByID(ctx context.Context, id int64) (*domain.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM paper_portfolios WHERE id = $1`
	return s.scanPortfolio(s.pool.QueryRow(ctx, query, id))
}

// GetByWallet retrieves a portfolio by its wallet address.
func (s *PortfolioStore) GetByWallet(ctx context.Context, wallet string) (*domain.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM paper_portfolios WHERE wallet_address = $1`
	return s.scanPortfolio(s.pool.QueryRow(ctx, query, wallet))
}

// Update persists mutable portfolio fields. The wallet address is immutable.
func (s *PortfolioStore) Update(ctx context.Context, p *domain.Portfolio) error {
	if p == nil {
		return fmt.Errorf("%w: nil portfolio", storage.ErrInvalidInput)
	}

	query := `
		UPDATE paper_portfolios SET
			current_balance_sol = $2,
			current_balance_bababill = $3,
			total_pnl_usd = $4,
			total_fees_sol = $5,
			trades_count = $6,
			winning_trades_count = $7,
			metadata = $8,
			updated_at = $9
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		p.ID,
		p.CurrentBalanceSOL.String(), p.CurrentBalanceBababill.String(),
		p.TotalPnlUSD.String(), p.TotalFeesSOL.String(),
		p.TradesCount, p.WinningTradesCount,
		p.Metadata, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update portfolio %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: portfolio %d", storage.ErrNotFound, p.ID)
	}

	return nil
}

// List retrieves all portfolios ordered by ID.
func (s *PortfolioStore) List(ctx context.Context) ([]*domain.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM paper_portfolios ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []*domain.Portfolio
	for rows.Next() {
		p, err := s.scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate portfolios: %w", err)
	}
	return portfolios, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PortfolioStore) scanPortfolio(row rowScanner) (*domain.Portfolio, error) {
	var (
		p domain.Portfolio

		initialSol, initialBababill string
		currentSol, currentBababill string
		totalPnl, totalFees         string
	)

	err := row.Scan(
		&p.ID, &p.WalletAddress,
		&initialSol, &initialBababill,
		&currentSol, &currentBababill,
		&totalPnl, &totalFees,
		&p.TradesCount, &p.WinningTradesCount,
		&p.Metadata, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("%w: portfolio", storage.ErrNotFound)
		}
		return nil, fmt.Errorf("scan portfolio: %w", err)
	}

	if p.InitialBalanceSOL, err = parseDecimal(initialSol); err != nil {
		return nil, err
	}
	if p.InitialBalanceBababill, err = parseDecimal(initialBababill); err != nil {
		return nil, err
	}
	if p.CurrentBalanceSOL, err = parseDecimal(currentSol); err != nil {
		return nil, err
	}
	if p.CurrentBalanceBababill, err = parseDecimal(currentBababill); err != nil {
		return nil, err
	}
	if p.TotalPnlUSD, err = parseDecimal(totalPnl); err != nil {
		return nil, err
	}
	if p.TotalFeesSOL, err = parseDecimal(totalFees); err != nil {
		return nil, err
	}

	return &p, nil
}
