// Package poolwatch observes an AMM pool's reserve accounts and records
// immutable PoolState snapshots for the quote calculator.
package poolwatch

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/solana"
	"solana-paper-trader/internal/storage"
)

// Config identifies the pool accounts to observe.
type Config struct {
	PoolAddress string // pool account address (AMM ID)
	LpMint      string // LP token mint
	TokenAVault string // SPL token account holding the token A reserve
	TokenBVault string // SPL token account holding the token B reserve
}

// Observer watches a pool's reserve vaults over WebSocket and appends a
// PoolState snapshot on every reserve change.
type Observer struct {
	cfg    Config
	ws     solana.WSClient
	rpc    solana.RPCClient
	pools  storage.PoolStateStore
	logger *log.Logger
	now    func() time.Time

	mu       sync.Mutex
	reserveA string // latest known raw amounts
	reserveB string
	lpSupply string
}

// NewObserver creates a pool observer.
func NewObserver(cfg Config, ws solana.WSClient, rpc solana.RPCClient, pools storage.PoolStateStore, logger *log.Logger) *Observer {
	return &Observer{
		cfg:    cfg,
		ws:     ws,
		rpc:    rpc,
		pools:  pools,
		logger: logger,
		now:    time.Now,
	}
}

// Snapshot fetches current reserves over RPC and records a PoolState.
func (o *Observer) Snapshot(ctx context.Context) (*domain.PoolState, error) {
	balA, err := o.rpc.GetTokenAccountBalance(ctx, o.cfg.TokenAVault)
	if err != nil {
		return nil, fmt.Errorf("get token A reserve: %w", err)
	}
	balB, err := o.rpc.GetTokenAccountBalance(ctx, o.cfg.TokenBVault)
	if err != nil {
		return nil, fmt.Errorf("get token B reserve: %w", err)
	}
	supply, err := o.rpc.GetTokenSupply(ctx, o.cfg.LpMint)
	if err != nil {
		return nil, fmt.Errorf("get lp supply: %w", err)
	}

	o.mu.Lock()
	o.reserveA = balA.Amount
	o.reserveB = balB.Amount
	o.lpSupply = supply.Amount
	o.mu.Unlock()

	return o.record(ctx)
}

// Run subscribes to both reserve vaults and records a snapshot on every
// change until the context is cancelled. An initial RPC snapshot seeds the
// reserves.
func (o *Observer) Run(ctx context.Context) error {
	if _, err := o.Snapshot(ctx); err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}

	chA, err := o.ws.SubscribeAccount(ctx, o.cfg.TokenAVault)
	if err != nil {
		return fmt.Errorf("subscribe token A vault: %w", err)
	}
	chB, err := o.ws.SubscribeAccount(ctx, o.cfg.TokenBVault)
	if err != nil {
		return fmt.Errorf("subscribe token B vault: %w", err)
	}

	o.logger.Printf("observing pool %s", o.cfg.PoolAddress)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-chA:
			if !ok {
				return fmt.Errorf("token A subscription closed")
			}
			o.apply(ctx, &n, true)
		case n, ok := <-chB:
			if !ok {
				return fmt.Errorf("token B subscription closed")
			}
			o.apply(ctx, &n, false)
		}
	}
}

// apply folds one vault notification into the tracked reserves and records a
// snapshot.
func (o *Observer) apply(ctx context.Context, n *solana.AccountNotification, sideA bool) {
	amount, err := parseTokenAccountAmount(n.Data)
	if err != nil {
		o.logger.Printf("parse vault %s data: %v", n.Pubkey, err)
		return
	}

	o.mu.Lock()
	if sideA {
		o.reserveA = amount
	} else {
		o.reserveB = amount
	}
	o.mu.Unlock()

	if _, err := o.record(ctx); err != nil {
		o.logger.Printf("record pool state: %v", err)
	}
}

// record appends a PoolState built from the tracked reserves.
func (o *Observer) record(ctx context.Context) (*domain.PoolState, error) {
	o.mu.Lock()
	st := &domain.PoolState{
		PoolAddress:   o.cfg.PoolAddress,
		LpSupply:      o.lpSupply,
		TokenABalance: o.reserveA,
		TokenBBalance: o.reserveB,
		Timestamp:     o.now(),
	}
	o.mu.Unlock()

	if err := o.pools.Insert(ctx, st); err != nil {
		return nil, fmt.Errorf("insert pool state: %w", err)
	}
	return st, nil
}

// parseTokenAccountAmount parses SPL token account data and returns the raw
// amount as a decimal string.
// Token account layout: mint(32) | owner(32) | amount(8, little-endian) | ...
func parseTokenAccountAmount(data string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("decode token account data: %w", err)
	}
	if len(decoded) < 72 {
		return "", fmt.Errorf("token account data too short: %d", len(decoded))
	}
	amount := binary.LittleEndian.Uint64(decoded[64:72])
	return strconv.FormatUint(amount, 10), nil
}
