// Package main runs a self-contained paper trading simulation against
// in-memory storage: seeds a pool, opens a portfolio, executes a scripted
// round-trip of trades and prints the resulting portfolio report as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/accounting"
	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/ledger"
	"solana-paper-trader/internal/locks"
	"solana-paper-trader/internal/price"
	"solana-paper-trader/internal/quote"
	"solana-paper-trader/internal/report"
	"solana-paper-trader/internal/storage/memory"
)

func main() {
	wallet := flag.String("wallet", "So11111111111111111111111111111111111111112", "Wallet address for the simulated portfolio")
	initialSOL := flag.String("initial-sol", "10", "Initial SOL balance")
	initialBababill := flag.String("initial-bababill", "0", "Initial BABABILL balance")
	reserveSOL := flag.String("reserve-sol", "50000", "Pool SOL reserve")
	reserveBababill := flag.String("reserve-bababill", "5000000", "Pool BABABILL reserve")
	solPrice := flag.String("sol-price", "150", "SOL/USD reference price")
	bababillPrice := flag.String("bababill-price", "1.5", "BABABILL/USD reference price")
	rounds := flag.Int("rounds", 5, "Number of buy/sell round trips")
	tradeSize := flag.String("trade-size", "1", "SOL spent per buy")

	flag.Parse()

	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags)
	ctx := context.Background()

	portfolios := memory.NewPortfolioStore()
	trades := memory.NewTradeStore()
	pools := memory.NewPoolStateStore()

	cfg := ledger.DefaultConfig()
	lockReg := locks.NewKeyed()
	led := ledger.New(cfg, portfolios, trades, pools, lockReg)
	calc := quote.NewCalculator(quote.Pair{TokenA: cfg.SolToken, TokenB: cfg.QuoteToken}, quote.DefaultFeeRate)
	acct := accounting.New(portfolios, trades, lockReg)

	prices := price.NewStatic(map[string]decimal.Decimal{
		cfg.SolToken:   decimal.RequireFromString(*solPrice),
		cfg.QuoteToken: decimal.RequireFromString(*bababillPrice),
	})
	reporter := report.New(portfolios, acct, prices, cfg.QuoteToken)

	sim := &simulation{
		ledger:   led,
		calc:     calc,
		pools:    pools,
		prices:   prices,
		cfg:      cfg,
		logger:   logger,
		reserveA: decimal.RequireFromString(*reserveSOL),
		reserveB: decimal.RequireFromString(*reserveBababill),
	}

	p, err := led.CreatePortfolio(ctx, *wallet,
		decimal.RequireFromString(*initialSOL),
		decimal.RequireFromString(*initialBababill), nil)
	if err != nil {
		logger.Fatalf("create portfolio: %v", err)
	}
	logger.Printf("Portfolio %d created for %s", p.ID, *wallet)

	size := decimal.RequireFromString(*tradeSize)
	for i := 0; i < *rounds; i++ {
		bought, err := sim.trade(ctx, p.ID, domain.TradeTypeBuy, cfg.SolToken, cfg.QuoteToken, size)
		if err != nil {
			logger.Fatalf("round %d buy: %v", i+1, err)
		}
		if _, err := sim.trade(ctx, p.ID, domain.TradeTypeSell, cfg.QuoteToken, cfg.SolToken, bought); err != nil {
			logger.Fatalf("round %d sell: %v", i+1, err)
		}
	}

	if err := acct.VerifyAggregates(ctx, p.ID); err != nil {
		logger.Fatalf("aggregate verification: %v", err)
	}
	logger.Printf("Aggregates verified after %d rounds", *rounds)

	status, err := reporter.Status(ctx, *wallet)
	if err != nil {
		logger.Fatalf("status report: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(status); err != nil {
		logger.Fatalf("encode report: %v", err)
	}
}

type simulation struct {
	ledger *ledger.Ledger
	calc   *quote.Calculator
	pools  *memory.PoolStateStore
	prices price.Source
	cfg    ledger.Config
	logger *log.Logger

	reserveA decimal.Decimal // SOL side
	reserveB decimal.Decimal // BABABILL side
}

// trade runs one quote -> submit -> settle cycle and moves the simulated pool
// reserves the way the swap would. Returns the amount received.
func (s *simulation) trade(ctx context.Context, portfolioID int64, tradeType, tokenIn, tokenOut string, amountIn decimal.Decimal) (decimal.Decimal, error) {
	ps := &domain.PoolState{
		PoolAddress:   "simulated-pool",
		LpSupply:      "1000000",
		TokenABalance: rawUnits(s.reserveA),
		TokenBBalance: rawUnits(s.reserveB),
		Timestamp:     time.Now(),
	}
	if err := s.pools.Insert(ctx, ps); err != nil {
		return decimal.Zero, err
	}

	q, err := s.calc.Quote(ps, tokenIn, tokenOut, amountIn)
	if err != nil {
		return decimal.Zero, err
	}

	t, err := s.ledger.Submit(ctx, ledger.SubmitRequest{
		PortfolioID: portfolioID,
		TradeType:   tradeType,
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		Quote:       q,
		PoolStateID: ps.ID,
		SlippageBps: 50,
	})
	if err != nil {
		return decimal.Zero, err
	}

	priceIn, err := s.prices.TokenPrice(ctx, tokenIn)
	if err != nil {
		return decimal.Zero, err
	}
	priceOut, err := s.prices.TokenPrice(ctx, tokenOut)
	if err != nil {
		return decimal.Zero, err
	}

	settled, err := s.ledger.Settle(ctx, t.ID, ledger.Outcome{
		Success:     true,
		PriceInUSD:  priceIn.Price,
		PriceOutUSD: priceOut.Price,
	})
	if err != nil {
		return decimal.Zero, err
	}

	// Move the pool the way the swap would.
	if tokenIn == s.cfg.SolToken {
		s.reserveA = s.reserveA.Add(settled.AmountIn)
		s.reserveB = s.reserveB.Sub(settled.AmountOut)
	} else {
		s.reserveB = s.reserveB.Add(settled.AmountIn)
		s.reserveA = s.reserveA.Sub(settled.AmountOut)
	}

	s.logger.Printf("%s %s %s -> %s %s (impact %s, fees %s SOL)",
		tradeType, settled.AmountIn, tokenIn, settled.AmountOut, tokenOut,
		settled.EstimatedPriceImpact.Round(6), settled.FeesSOL.Round(9))

	return settled.AmountOut, nil
}

// rawUnits renders a reserve as an integer-like string the way on-chain
// observation would supply it.
func rawUnits(d decimal.Decimal) string {
	return d.Round(0).String()
}
