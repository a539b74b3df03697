// Package main is the entry point of the portfolio backtester.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/your-org/portfolio-backtester/internal/alert"
	"github.com/your-org/portfolio-backtester/internal/benchmark"
	"github.com/your-org/portfolio-backtester/internal/config"
	"github.com/your-org/portfolio-backtester/internal/datastore"
	"github.com/your-org/portfolio-backtester/internal/dbwriter"
	"github.com/your-org/portfolio-backtester/internal/engine"
	"github.com/your-org/portfolio-backtester/internal/market"
	"github.com/your-org/portfolio-backtester/internal/montecarlo"
	"github.com/your-org/portfolio-backtester/internal/report"
	"github.com/your-org/portfolio-backtester/internal/strategy"
	"github.com/your-org/portfolio-backtester/pkg/logger"
)

func main() {
	// --- Configuration ---
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	dataDir := flag.String("data-dir", "", "Override the CSV data directory")
	strategyName := flag.String("strategy", "", "Override the configured strategy")
	runMigrations := flag.Bool("migrate", false, "Apply database migrations and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *strategyName != "" {
		cfg.Backtest.Strategy = *strategyName
	}

	// --- Logger ---
	logger.SetGlobalLogLevel(cfg.LogLevel)
	logger.Info("Portfolio backtester starting...")
	logger.Infof("Loaded configuration from: %s", *configPath)
	logger.Infof("Strategy: %s", cfg.Backtest.Strategy)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Migrations ---
	if *runMigrations {
		if !bool(cfg.Database.Enabled) {
			logger.Fatal("-migrate requires database.enabled: true")
		}
		m, err := migrate.New("file://db/migrations", cfg.Database.DSN())
		if err != nil {
			logger.Fatalf("Failed to initialize migrations: %v", err)
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatalf("Failed to apply migrations: %v", err)
		}
		logger.Info("Migrations applied.")
		return
	}

	var zapLogger *zap.Logger
	var zapErr error
	if cfg.LogLevel == "debug" {
		zapLogger, zapErr = zap.NewDevelopment()
	} else {
		zapLogger, zapErr = zap.NewProduction()
	}
	if zapErr != nil {
		logger.Fatalf("Failed to initialize Zap logger: %v", zapErr)
	}

	// --- Price Data ---
	var pool *pgxpool.Pool
	var universe map[string]*market.Series
	if bool(cfg.Database.Enabled) {
		pool, err = pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			logger.Fatalf("Unable to connect to database: %v", err)
		}
		repo := datastore.NewRepository(pool)
		symbols, err := repo.ListSymbols(ctx)
		if err != nil {
			logger.Fatalf("Failed to list symbols: %v", err)
		}
		universe, err = repo.FetchUniverse(ctx, symbols, time.Time{}, time.Now())
		if err != nil {
			logger.Fatalf("Failed to fetch universe: %v", err)
		}
		logger.Infof("Loaded %d symbols from the database", len(universe))
	} else {
		universe, err = datastore.LoadUniverseFromDir(cfg.DataDir)
		if err != nil {
			logger.Fatalf("Failed to load CSV universe from %s: %v", cfg.DataDir, err)
		}
		logger.Infof("Loaded %d symbols from %s", len(universe), cfg.DataDir)
	}

	// The benchmark series is held out of the tradable universe.
	var benchSeries *market.Series
	if sym := cfg.Backtest.BenchmarkSymbol; sym != "" {
		if s, ok := universe[sym]; ok {
			benchSeries = s
			delete(universe, sym)
		} else {
			logger.Warnf("Benchmark symbol %s not found in universe", sym)
		}
	}

	// --- Run ---
	strat, err := strategy.New(cfg.Backtest.Strategy, strategy.Params(cfg.Backtest.Params))
	if err != nil {
		logger.Fatalf("Failed to build strategy: %v", err)
	}
	eng, err := engine.New(cfg.EngineConfig(), strat)
	if err != nil {
		logger.Fatalf("Invalid engine configuration: %v", err)
	}
	res, err := eng.Run(ctx, universe, benchSeries)
	if err != nil {
		logger.Fatalf("Backtest failed: %v", err)
	}
	logger.Infof("Run %s finished: %d trades", res.RunID, len(res.Trades))

	notifier := alert.NewLogNotifier(zapLogger)
	if res.HaltedDays > 0 {
		if err := notifier.Send(fmt.Sprintf("circuit breaker halted entries for %d days during run %s", res.HaltedDays, res.RunID)); err != nil {
			logger.Warnf("Failed to send alert: %v", err)
		}
	}

	// --- Report ---
	summary := report.Analyze(res, report.Options{
		RiskFreeRate: cfg.Backtest.RiskFreeRate,
		Benchmark:    benchSeries,
	})
	fmt.Println(report.Render(summary))

	// --- Persistence ---
	var writerPool dbwriter.Pool
	if pool != nil {
		writerPool = pool
	}
	writer, err := dbwriter.NewTimescaleWriter(writerPool, cfg.DBWriter, zapLogger)
	if err != nil {
		logger.Fatalf("Failed to initialize TimescaleDB writer: %v", err)
	}
	for _, t := range res.Trades {
		writer.SaveTrade(dbwriter.TradeRecord{
			RunID:      res.RunID,
			Symbol:     t.Symbol,
			Direction:  t.Direction.String(),
			EntryDate:  t.EntryDate,
			ExitDate:   t.ExitDate,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			Quantity:   t.Quantity,
			PnL:        t.PnL,
			PnLPct:     t.PnLPct,
			DaysHeld:   t.DaysHeld,
			ExitReason: t.ExitReason,
			Strength:   t.Strength,
			Tag:        t.Tag,
		})
	}
	for _, p := range res.Equity {
		writer.SaveEquityValue(dbwriter.EquityValue{RunID: res.RunID, Day: p.Date, Value: p.Value})
	}
	if err := writer.SaveRunSummary(ctx, dbwriter.RunSummary{
		RunID:          res.RunID,
		Strategy:       res.Strategy,
		StartDate:      summary.StartDate,
		EndDate:        summary.EndDate,
		InitialCapital: res.InitialCapital,
		FinalCapital:   res.FinalCapital,
		TotalReturnPct: summary.TotalReturnPct,
		MaxDrawdownPct: summary.MaxDrawdownPct,
		SharpeRatio:    summary.SharpeRatio,
		SortinoRatio:   summary.SortinoRatio,
		WinRate:        summary.WinRate,
		TotalTrades:    summary.TotalTrades,
		ProfitFactor:   summary.ProfitFactor,
	}); err != nil {
		logger.Errorf("Failed to save run summary: %v", err)
	}

	var benchSvc benchmark.Service = benchmark.NoOpService{}
	if pool != nil {
		benchSvc = benchmark.NewDBService(pool)
	}
	if benchSeries != nil {
		if err := benchSvc.RecordSeries(ctx, res.RunID, benchSeries); err != nil {
			logger.Errorf("Failed to record benchmark series: %v", err)
		}
	}

	// --- Monte Carlo ---
	if bool(cfg.MonteCarlo.Enabled) && len(res.Trades) > 0 {
		pnls := make([]float64, len(res.Trades))
		for i, t := range res.Trades {
			pnls[i] = t.PnL
		}
		mc, err := montecarlo.Simulate(pnls, cfg.Backtest.InitialCapital, montecarlo.Config{
			Simulations:  cfg.MonteCarlo.Simulations,
			Confidence:   cfg.MonteCarlo.Confidence,
			LargeLossPct: cfg.MonteCarlo.LargeLossPct,
			Seed:         cfg.MonteCarlo.Seed,
		})
		if err != nil {
			logger.Errorf("Monte Carlo simulation failed: %v", err)
		} else {
			fmt.Printf("Monte Carlo (%d paths)\n", mc.Simulations)
			fmt.Printf("  Final capital  p5 %.2f / p50 %.2f / p95 %.2f (mean %.2f)\n",
				mc.FinalP5, mc.FinalP50, mc.FinalP95, mc.MeanFinal)
			fmt.Printf("  VaR %.2f%%  CVaR %.2f%%\n", mc.VaR, mc.CVaR)
			fmt.Printf("  P(profit) %.2f  P(loss > %.0f%%) %.2f\n",
				mc.ProbProfit, cfg.MonteCarlo.LargeLossPct, mc.ProbLargeLoss)
			fmt.Printf("  Max drawdown  p50 %.2f%% / p95 %.2f%%\n", mc.MaxDrawdownP50, mc.MaxDrawdownP95)
		}
	}

	// Close flushes the batch buffers and releases the pool.
	writer.Close()
	if err := notifier.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close notifier: %v\n", err)
	}
	logger.Info("Portfolio backtester shut down gracefully.")
}
