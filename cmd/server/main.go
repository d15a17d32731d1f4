// Package main runs the paper trading engine as an HTTP service:
// - Trade API: portfolio creation, quotes, trade submit/settle/cancel
// - Status API: portfolio status reports and trade history
// - Pool observer (optional): live vault tracking over WebSocket
// - Snapshot scheduler: periodic portfolio snapshots for analytics
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/accounting"
	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/ledger"
	"solana-paper-trader/internal/locks"
	"solana-paper-trader/internal/observability"
	"solana-paper-trader/internal/poolwatch"
	"solana-paper-trader/internal/price"
	"solana-paper-trader/internal/quote"
	"solana-paper-trader/internal/report"
	"solana-paper-trader/internal/solana"
	"solana-paper-trader/internal/storage"
	chstore "solana-paper-trader/internal/storage/clickhouse"
	"solana-paper-trader/internal/storage/memory"
	"solana-paper-trader/internal/storage/migrations"
	pgstore "solana-paper-trader/internal/storage/postgres"
)

// allStores holds all storage implementations.
type allStores struct {
	portfolioStore storage.PortfolioStore
	tradeStore     storage.TradeStore
	poolStateStore storage.PoolStateStore
	analysisStore  storage.TradeAnalysisStore
	snapshotStore  storage.SnapshotStore
}

// Server wires the engine components behind the HTTP API.
type Server struct {
	stores     *allStores
	ledger     *ledger.Ledger
	calculator *quote.Calculator
	accounting *accounting.Service
	reporter   *report.Reporter
	prices     price.Source

	cfg    ledger.Config
	pool   string // pool address quotes are priced against
	logger *log.Logger

	mu              sync.Mutex
	startedAt       time.Time
	lastSnapshotRun time.Time
	snapshotRuns    int
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint (pool observer)")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (pool observer)")
	poolAddress := flag.String("pool-address", os.Getenv("POOL_ADDRESS"), "Meteora pool account address")
	poolLpMint := flag.String("pool-lp-mint", os.Getenv("POOL_LP_MINT"), "Pool LP token mint")
	poolVaultA := flag.String("pool-vault-a", os.Getenv("POOL_VAULT_A"), "Pool token A vault account")
	poolVaultB := flag.String("pool-vault-b", os.Getenv("POOL_VAULT_B"), "Pool token B vault account")
	birdeyeAPIKey := flag.String("birdeye-api-key", os.Getenv("BIRDEYE_API_KEY"), "Birdeye API key for live prices")
	solMint := flag.String("sol-mint", envOr("SOL_MINT", "So11111111111111111111111111111111111111112"), "SOL mint for price lookups")
	bababillMint := flag.String("bababill-mint", os.Getenv("BABABILL_MINT"), "BABABILL mint for price lookups")
	solPrice := flag.String("sol-price", envOr("SOL_PRICE_USD", "150"), "Fallback SOL/USD price")
	bababillPrice := flag.String("bababill-price", envOr("BABABILL_PRICE_USD", "1.5"), "Fallback BABABILL/USD price")
	snapshotInterval := flag.Duration("snapshot-interval", time.Hour, "Portfolio snapshot interval")
	feeRate := flag.String("fee-rate", "0.0025", "Pool fee fraction applied to amountIn")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	feeRateDec, err := decimal.NewFromString(*feeRate)
	if err != nil {
		logger.Fatalf("invalid --fee-rate: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	cfg := ledger.DefaultConfig()
	prices := createPriceSource(logger, *birdeyeAPIKey, cfg, *solMint, *bababillMint, *solPrice, *bababillPrice)

	lockReg := locks.NewKeyed()
	acct := accounting.New(stores.portfolioStore, stores.tradeStore, lockReg)
	server := &Server{
		stores:     stores,
		ledger:     ledger.New(cfg, stores.portfolioStore, stores.tradeStore, stores.poolStateStore, lockReg),
		calculator: quote.NewCalculator(quote.Pair{TokenA: cfg.SolToken, TokenB: cfg.QuoteToken}, feeRateDec),
		accounting: acct,
		reporter:   report.New(stores.portfolioStore, acct, prices, cfg.QuoteToken),
		prices:     prices,
		cfg:        cfg,
		pool:       *poolAddress,
		logger:     logger,
		startedAt:  time.Now(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		}
	}()

	// Optional live pool observer
	if *poolAddress != "" && *rpcEndpoint != "" && *wsEndpoint != "" {
		go func() {
			if err := runPoolObserver(ctx, poolwatch.Config{
				PoolAddress: *poolAddress,
				LpMint:      *poolLpMint,
				TokenAVault: *poolVaultA,
				TokenBVault: *poolVaultB,
			}, *rpcEndpoint, *wsEndpoint, stores.poolStateStore); err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("Pool observer error: %v", err)
			}
		}()
	} else {
		logger.Println("Pool observer disabled (pool address or endpoints not configured)")
	}

	// Snapshot scheduler
	go server.runSnapshotScheduler(ctx, *snapshotInterval, *bababillMint, *solMint)

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: server.routes(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}
	}()

	logger.Printf("Starting HTTP server on %s", *listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores, running migrations when backed by
// real databases.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			portfolioStore: memory.NewPortfolioStore(),
			tradeStore:     memory.NewTradeStore(),
			poolStateStore: memory.NewPoolStateStore(),
			analysisStore:  memory.NewTradeAnalysisStore(),
			snapshotStore:  memory.NewSnapshotStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	stores := &allStores{
		portfolioStore: pgstore.NewPortfolioStore(pool),
		tradeStore:     pgstore.NewTradeStore(pool),
		poolStateStore: pgstore.NewPoolStateStore(pool),
		analysisStore:  pgstore.NewTradeAnalysisStore(pool),
		snapshotStore:  chstore.NewSnapshotStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// createPriceSource builds the price failover chain: Birdeye first when an
// API key is configured, static fallback prices last.
func createPriceSource(logger *log.Logger, birdeyeAPIKey string, cfg ledger.Config, solMint, bababillMint, solPrice, bababillPrice string) price.Source {
	static := price.NewStatic(map[string]decimal.Decimal{
		cfg.SolToken:   decimal.RequireFromString(solPrice),
		cfg.QuoteToken: decimal.RequireFromString(bababillPrice),
		solMint:        decimal.RequireFromString(solPrice),
	})
	if bababillMint != "" {
		static.Set(bababillMint, decimal.RequireFromString(bababillPrice))
	}

	if birdeyeAPIKey == "" {
		return static
	}

	priceLogger := log.New(os.Stdout, "[price] ", log.LstdFlags)
	return price.NewAggregated(priceLogger, price.NewBirdeye(birdeyeAPIKey), static)
}

// runPoolObserver tracks live vault balances and records pool states.
func runPoolObserver(ctx context.Context, cfg poolwatch.Config, rpcEndpoint, wsEndpoint string, pools storage.PoolStateStore) error {
	rpc := solana.NewHTTPClient(rpcEndpoint)

	ws, err := solana.NewWSClient(ctx, wsEndpoint, nil)
	if err != nil {
		return fmt.Errorf("create websocket client: %w", err)
	}
	defer ws.Close()

	observer := poolwatch.NewObserver(cfg, ws, rpc, pools,
		log.New(os.Stdout, "[poolwatch] ", log.LstdFlags|log.Lshortfile))
	return observer.Run(ctx)
}

// runSnapshotScheduler periodically records a snapshot of every portfolio.
func (s *Server) runSnapshotScheduler(ctx context.Context, interval time.Duration, bababillMint, solMint string) {
	s.logger.Printf("Starting snapshot scheduler (interval: %v)...", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runSnapshots(ctx, bababillMint, solMint)
		}
	}
}

// runSnapshots captures one snapshot per portfolio at the current prices.
func (s *Server) runSnapshots(ctx context.Context, bababillMint, solMint string) {
	solUSD := s.lookupPrice(ctx, solMint, s.cfg.SolToken)
	bababillUSD := s.lookupPrice(ctx, bababillMint, s.cfg.QuoteToken)

	portfolios, err := s.stores.portfolioStore.List(ctx)
	if err != nil {
		s.logger.Printf("Snapshot run: list portfolios: %v", err)
		return
	}

	now := time.Now()
	for _, p := range portfolios {
		snap := &domain.PortfolioSnapshot{
			PortfolioID:      p.ID,
			BalanceSOL:       p.CurrentBalanceSOL,
			BalanceBababill:  p.CurrentBalanceBababill,
			SolPriceUSD:      solUSD,
			BababillPriceUSD: bababillUSD,
			CreatedAt:        now,
		}
		if err := s.stores.snapshotStore.Insert(ctx, snap); err != nil {
			s.logger.Printf("Snapshot run: portfolio %d: %v", p.ID, err)
		}
	}

	observability.RecordSnapshotRun()

	s.mu.Lock()
	s.lastSnapshotRun = now
	s.snapshotRuns++
	s.mu.Unlock()

	s.logger.Printf("Snapshot run complete: %d portfolios", len(portfolios))
}

// lookupPrice asks the price source by mint first, then by token symbol.
// Returns zero when no source can answer, which the snapshot records as-is.
func (s *Server) lookupPrice(ctx context.Context, mint, symbol string) decimal.Decimal {
	for _, key := range []string{mint, symbol} {
		if key == "" {
			continue
		}
		tp, err := s.prices.TokenPrice(ctx, key)
		if err == nil {
			observability.RecordPriceLookup(tp.Source, "ok")
			return tp.Price
		}
	}
	observability.RecordPriceLookup("none", "error")
	return decimal.Zero
}

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleServerStatus)

	mux.HandleFunc("/portfolios", s.handleCreatePortfolio)
	mux.HandleFunc("/portfolios/status", s.handlePortfolioStatus)
	mux.HandleFunc("/pool-states", s.handleRecordPoolState)
	mux.HandleFunc("/quotes", s.handleQuote)
	mux.HandleFunc("/trades", s.handleTrades)
	mux.HandleFunc("/trades/settle", s.handleSettle)
	mux.HandleFunc("/trades/cancel", s.handleCancel)
	mux.HandleFunc("/trades/analysis", s.handleAnalysis)

	return mux
}

// serverStatusResponse is the JSON response for /status.
type serverStatusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	LastSnapshotRun time.Time `json:"last_snapshot_run,omitempty"`
	SnapshotRuns    int       `json:"snapshot_runs"`
}

func (s *Server) handleServerStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := serverStatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.startedAt).String(),
		LastSnapshotRun: s.lastSnapshotRun,
		SnapshotRuns:    s.snapshotRuns,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

type createPortfolioRequest struct {
	WalletAddress          string          `json:"walletAddress"`
	InitialBalanceSol      decimal.Decimal `json:"initialBalanceSol"`
	InitialBalanceBababill decimal.Decimal `json:"initialBalanceBababill"`
	Metadata               map[string]any  `json:"metadata,omitempty"`
}

func (s *Server) handleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
		return
	}

	var req createPortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	p, err := s.ledger.CreatePortfolio(r.Context(), req.WalletAddress,
		req.InitialBalanceSol, req.InitialBalanceBababill, req.Metadata)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handlePortfolioStatus(w http.ResponseWriter, r *http.Request) {
	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		writeError(w, http.StatusBadRequest, errors.New("wallet query parameter required"))
		return
	}

	resp, err := s.reporter.Status(r.Context(), wallet)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type recordPoolStateRequest struct {
	PoolAddress   string `json:"poolAddress"`
	LpSupply      string `json:"lpSupply"`
	TokenABalance string `json:"tokenABalance"`
	TokenBBalance string `json:"tokenBBalance"`
}

func (s *Server) handleRecordPoolState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
		return
	}

	var req recordPoolStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	ps := &domain.PoolState{
		PoolAddress:   req.PoolAddress,
		LpSupply:      req.LpSupply,
		TokenABalance: req.TokenABalance,
		TokenBBalance: req.TokenBBalance,
		Timestamp:     time.Now(),
	}
	if err := s.stores.poolStateStore.Insert(r.Context(), ps); err != nil {
		writeDomainError(w, err)
		return
	}
	observability.RecordPoolStateRecorded()

	writeJSON(w, http.StatusCreated, ps)
}

type quoteRequest struct {
	TokenIn     string          `json:"tokenIn"`
	TokenOut    string          `json:"tokenOut"`
	AmountIn    decimal.Decimal `json:"amountIn"`
	PoolAddress string          `json:"poolAddress,omitempty"` // defaults to the configured pool
}

type quoteResponse struct {
	Quote       *domain.TradeQuote `json:"quote"`
	PoolStateID int64              `json:"poolStateId"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	poolAddress := req.PoolAddress
	if poolAddress == "" {
		poolAddress = s.pool
	}
	if poolAddress == "" {
		writeError(w, http.StatusBadRequest, errors.New("no pool address configured or supplied"))
		return
	}

	ps, err := s.stores.poolStateStore.GetLatestByPool(r.Context(), poolAddress)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	q, err := s.calculator.Quote(ps, req.TokenIn, req.TokenOut, req.AmountIn)
	if err != nil {
		observability.RecordQuoteRejected(rejectReason(err))
		writeDomainError(w, err)
		return
	}
	observability.RecordQuoteComputed()

	writeJSON(w, http.StatusOK, quoteResponse{Quote: q, PoolStateID: ps.ID})
}

type submitTradeRequest struct {
	PortfolioID int64           `json:"portfolioId"`
	TradeType   string          `json:"tradeType"`
	TokenIn     string          `json:"tokenIn"`
	TokenOut    string          `json:"tokenOut"`
	AmountIn    decimal.Decimal `json:"amountIn"`
	SlippageBps int             `json:"slippageBps"`
	PoolAddress string          `json:"poolAddress,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

// handleTrades serves POST (submit) and GET (history) on /trades.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmitTrade(w, r)
	case http.MethodGet:
		s.handleTradeHistory(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, errors.New("GET or POST required"))
	}
}

func (s *Server) handleSubmitTrade(w http.ResponseWriter, r *http.Request) {
	var req submitTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	poolAddress := req.PoolAddress
	if poolAddress == "" {
		poolAddress = s.pool
	}
	ps, err := s.stores.poolStateStore.GetLatestByPool(r.Context(), poolAddress)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	q, err := s.calculator.Quote(ps, req.TokenIn, req.TokenOut, req.AmountIn)
	if err != nil {
		observability.RecordQuoteRejected(rejectReason(err))
		writeDomainError(w, err)
		return
	}
	observability.RecordQuoteComputed()

	trade, err := s.ledger.Submit(r.Context(), ledger.SubmitRequest{
		PortfolioID: req.PortfolioID,
		TradeType:   req.TradeType,
		TokenIn:     req.TokenIn,
		TokenOut:    req.TokenOut,
		Quote:       q,
		PoolStateID: ps.ID,
		SlippageBps: req.SlippageBps,
		Metadata:    req.Metadata,
	})
	if err != nil {
		observability.RecordSubmitRejected(rejectReason(err))
		writeDomainError(w, err)
		return
	}
	observability.RecordTradeSubmitted()

	writeJSON(w, http.StatusCreated, trade)
}

func (s *Server) handleTradeHistory(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := strconv.ParseInt(r.URL.Query().Get("portfolioId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("portfolioId query parameter required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	trades, err := s.stores.tradeStore.GetByPortfolioID(r.Context(), portfolioID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if trades == nil {
		trades = []*domain.Trade{}
	}
	writeJSON(w, http.StatusOK, trades)
}

type settleRequest struct {
	TradeID     int64            `json:"tradeId"`
	Success     bool             `json:"success"`
	Reason      string           `json:"reason,omitempty"`
	PriceInUSD  *decimal.Decimal `json:"priceInUsd,omitempty"`
	PriceOutUSD *decimal.Decimal `json:"priceOutUsd,omitempty"`
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
		return
	}

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	outcome := ledger.Outcome{Success: req.Success, Reason: req.Reason}
	if req.Success {
		trade, err := s.stores.tradeStore.GetByID(r.Context(), req.TradeID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		outcome.PriceInUSD, err = s.settlePrice(r.Context(), req.PriceInUSD, trade.TokenIn)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		outcome.PriceOutUSD, err = s.settlePrice(r.Context(), req.PriceOutUSD, trade.TokenOut)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
	}

	trade, err := s.ledger.Settle(r.Context(), req.TradeID, outcome)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	observability.RecordTradeSettled(trade.Status)

	writeJSON(w, http.StatusOK, trade)
}

// settlePrice prefers an explicit request price over a source lookup. A
// settlement without any reference price is rejected rather than recorded
// with zero-valued legs.
func (s *Server) settlePrice(ctx context.Context, explicit *decimal.Decimal, token string) (decimal.Decimal, error) {
	if explicit != nil {
		return *explicit, nil
	}
	p := s.lookupPrice(ctx, "", token)
	if p.IsZero() {
		return decimal.Zero, fmt.Errorf("no reference price available for %s", token)
	}
	return p, nil
}

type cancelRequest struct {
	TradeID int64 `json:"tradeId"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("POST required"))
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	trade, err := s.ledger.Cancel(r.Context(), req.TradeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	observability.RecordTradeCancelled()

	writeJSON(w, http.StatusOK, trade)
}

// handleAnalysis serves POST (attach) and GET (fetch) on /trades/analysis.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var a domain.TradeAnalysis
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
			return
		}
		// Analyses attach to existing trades only.
		if _, err := s.stores.tradeStore.GetByID(r.Context(), a.TradeID); err != nil {
			writeDomainError(w, err)
			return
		}
		if err := s.stores.analysisStore.Insert(r.Context(), &a); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)

	case http.MethodGet:
		tradeID, err := strconv.ParseInt(r.URL.Query().Get("tradeId"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("tradeId query parameter required"))
			return
		}
		a, err := s.stores.analysisStore.GetByTradeID(r.Context(), tradeID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)

	default:
		writeError(w, http.StatusMethodNotAllowed, errors.New("GET or POST required"))
	}
}

// writeDomainError maps engine errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, storage.ErrDuplicateKey),
		errors.Is(err, ledger.ErrInvalidStateTransition):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, storage.ErrInvalidInput),
		errors.Is(err, ledger.ErrInvalidWallet),
		errors.Is(err, ledger.ErrUnknownToken),
		errors.Is(err, quote.ErrInvalidAmount),
		errors.Is(err, quote.ErrUnknownToken),
		errors.Is(err, quote.ErrInsufficientLiquidity):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

// rejectReason labels an error for metrics without leaking cardinality.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, quote.ErrInsufficientLiquidity):
		return "insufficient_liquidity"
	case errors.Is(err, quote.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, quote.ErrUnknownToken), errors.Is(err, ledger.ErrUnknownToken):
		return "unknown_token"
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	default:
		return "other"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
