package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/storage"
)

// TradeStore implements storage.TradeStore backed by Postgres.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new Postgres trade store.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const tradeColumns = `
	id, portfolio_id, trade_type,
	token_in, token_out,
	amount_in::text, amount_out::text,
	price_at_trade::text, estimated_price_impact::text,
	slippage_bps, fees_sol::text,
	virtual_signature, pool_state_id,
	trade_status, executed_at, created_at,
	trade_pnl_usd::text, metadata`

// Insert stores a new trade and assigns its id.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	if t == nil {
		return fmt.Errorf("%w: nil trade", storage.ErrInvalidInput)
	}
	if _, err := domain.ParseTradeStatus(t.Status); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}
	if _, err := domain.ParseTradeType(t.TradeType); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO paper_trades (
			portfolio_id, trade_type,
			token_in, token_out,
			amount_in, amount_out,
			price_at_trade, estimated_price_impact,
			slippage_bps, fees_sol,
			virtual_signature, pool_state_id,
			trade_status, executed_at, created_at,
			trade_pnl_usd, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		t.PortfolioID, t.TradeType,
		t.TokenIn, t.TokenOut,
		t.AmountIn.String(), t.AmountOut.String(),
		t.PriceAtTrade.String(), t.EstimatedPriceImpact.String(),
		t.SlippageBps, t.FeesSOL.String(),
		t.VirtualSignature, t.PoolStateID,
		t.Status, t.ExecutedAt, t.CreatedAt,
		decimalPtrToString(t.TradePnlUSD), t.Metadata,
	).Scan(&t.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: virtual signature %s", storage.ErrDuplicateKey, t.VirtualSignature)
		}
		return fmt.Errorf("insert trade: %w", err)
	}

	return nil
}

// GetByID retrieves a trade by its id.
func (s *TradeStore) GetByID(ctx context.Context, id int64) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM paper_trades WHERE id = $1`
	return scanTrade(s.pool.QueryRow(ctx, query, id))
}

// Update persists mutable trade fields. Portfolio and pool references
// stay immutable at the schema level via the column list here.
func (s *TradeStore) Update(ctx context.Context, t *domain.Trade) error {
	if t == nil {
		return fmt.Errorf("%w: nil trade", storage.ErrInvalidInput)
	}
	if _, err := domain.ParseTradeStatus(t.Status); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	query := `
		UPDATE paper_trades SET
			trade_status = $2,
			executed_at = $3,
			trade_pnl_usd = $4,
			metadata = $5
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		t.ID, t.Status, t.ExecutedAt, decimalPtrToString(t.TradePnlUSD), t.Metadata,
	)
	if err != nil {
		return fmt.Errorf("update trade %d: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: trade %d", storage.ErrNotFound, t.ID)
	}

	return nil
}

// GetByPortfolioID returns a page of the portfolio's trade history,
// newest first.
func (s *TradeStore) GetByPortfolioID(ctx context.Context, portfolioID int64, limit, offset int) ([]*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM paper_trades
		WHERE portfolio_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	// limit <= 0 means no limit
	var pgLimit any
	if limit > 0 {
		pgLimit = limit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx, query, portfolioID, pgLimit, offset)
	if err != nil {
		return nil, fmt.Errorf("query trades for portfolio %d: %w", portfolioID, err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

// GetExecutedByPortfolioID returns the portfolio's EXECUTED trades in
// execution order, oldest first.
func (s *TradeStore) GetExecutedByPortfolioID(ctx context.Context, portfolioID int64) ([]*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM paper_trades
		WHERE portfolio_id = $1 AND trade_status = $2
		ORDER BY executed_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, portfolioID, domain.TradeStatusExecuted)
	if err != nil {
		return nil, fmt.Errorf("query executed trades for portfolio %d: %w", portfolioID, err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

type pgxRows interface {
	rowScanner
	Next() bool
	Err() error
}

func collectTrades(rows pgxRows) ([]*domain.Trade, error) {
	var trades []*domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}

func scanTrade(row rowScanner) (*domain.Trade, error) {
	var (
		t domain.Trade

		amountIn, amountOut  string
		priceAtTrade, impact string
		feesSol              string
		tradePnl             *string
	)

	err := row.Scan(
		&t.ID, &t.PortfolioID, &t.TradeType,
		&t.TokenIn, &t.TokenOut,
		&amountIn, &amountOut,
		&priceAtTrade, &impact,
		&t.SlippageBps, &feesSol,
		&t.VirtualSignature, &t.PoolStateID,
		&t.Status, &t.ExecutedAt, &t.CreatedAt,
		&tradePnl, &t.Metadata,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("%w: trade", storage.ErrNotFound)
		}
		return nil, fmt.Errorf("scan trade: %w", err)
	}

	if _, err := domain.ParseTradeStatus(t.Status); err != nil {
		return nil, fmt.Errorf("trade %d: %w", t.ID, err)
	}
	if _, err := domain.ParseTradeType(t.TradeType); err != nil {
		return nil, fmt.Errorf("trade %d: %w", t.ID, err)
	}

	if t.AmountIn, err = parseDecimal(amountIn); err != nil {
		return nil, err
	}
	if t.AmountOut, err = parseDecimal(amountOut); err != nil {
		return nil, err
	}
	if t.PriceAtTrade, err = parseDecimal(priceAtTrade); err != nil {
		return nil, err
	}
	if t.EstimatedPriceImpact, err = parseDecimal(impact); err != nil {
		return nil, err
	}
	if t.FeesSOL, err = parseDecimal(feesSol); err != nil {
		return nil, err
	}
	if tradePnl != nil {
		pnl, err := parseDecimal(*tradePnl)
		if err != nil {
			return nil, err
		}
		t.TradePnlUSD = &pnl
	}

	return &t, nil
}

func decimalPtrToString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
