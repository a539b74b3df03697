// Package main exports a persisted run's trades and equity curve to CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/your-org/portfolio-backtester/internal/config"
	"github.com/your-org/portfolio-backtester/internal/csvwriter"
	"github.com/your-org/portfolio-backtester/internal/engine"
	"github.com/your-org/portfolio-backtester/internal/position"
	"github.com/your-org/portfolio-backtester/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	runIDStr := flag.String("run", "", "Run ID to export")
	outDir := flag.String("out", ".", "Directory for the exported CSV files")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.SetGlobalLogLevel(cfg.LogLevel)

	if *runIDStr == "" {
		logger.Fatal("The --run flag is required.")
	}
	runID, err := uuid.Parse(*runIDStr)
	if err != nil {
		logger.Fatalf("Invalid run ID %q: %v", *runIDStr, err)
	}
	if !bool(cfg.Database.Enabled) {
		logger.Fatal("The export command needs database.enabled: true")
	}

	ctx := context.Background()
	dbpool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatalf("Unable to connect to database: %v", err)
	}
	defer dbpool.Close()

	zapLogger, zapErr := zap.NewProduction()
	if zapErr != nil {
		logger.Fatalf("Failed to initialize Zap logger: %v", zapErr)
	}

	trades, err := fetchTrades(ctx, dbpool, runID)
	if err != nil {
		logger.Fatalf("Failed to fetch trades: %v", err)
	}
	equity, err := fetchEquity(ctx, dbpool, runID)
	if err != nil {
		logger.Fatalf("Failed to fetch equity curve: %v", err)
	}
	if len(trades) == 0 && len(equity) == 0 {
		logger.Fatalf("Run %s has no persisted trades or equity values.", runID)
	}

	tradesPath := filepath.Join(*outDir, fmt.Sprintf("trades_%s.csv", runID))
	tw, err := csvwriter.NewWriter(tradesPath, zapLogger)
	if err != nil {
		logger.Fatalf("Failed to create %s: %v", tradesPath, err)
	}
	if err := tw.WriteTrades(trades); err != nil {
		logger.Fatalf("Failed to write trades: %v", err)
	}
	if err := tw.Close(); err != nil {
		logger.Fatalf("Failed to close %s: %v", tradesPath, err)
	}

	equityPath := filepath.Join(*outDir, fmt.Sprintf("equity_%s.csv", runID))
	ew, err := csvwriter.NewWriter(equityPath, zapLogger)
	if err != nil {
		logger.Fatalf("Failed to create %s: %v", equityPath, err)
	}
	if err := ew.WriteEquity(equity); err != nil {
		logger.Fatalf("Failed to write equity curve: %v", err)
	}
	if err := ew.Close(); err != nil {
		logger.Fatalf("Failed to close %s: %v", equityPath, err)
	}

	logger.Infof("Exported %d trades and %d equity points for run %s.", len(trades), len(equity), runID)
}

func fetchTrades(ctx context.Context, dbpool *pgxpool.Pool, runID uuid.UUID) ([]position.Trade, error) {
	rows, err := dbpool.Query(ctx, `
        SELECT symbol, direction, entry_date, exit_date, entry_price, exit_price,
               quantity, pnl, pnl_pct, days_held, exit_reason, strength, tag
        FROM backtest_trades
        WHERE run_id = $1
        ORDER BY exit_date ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []position.Trade
	for rows.Next() {
		var t position.Trade
		var direction string
		if err := rows.Scan(&t.Symbol, &direction, &t.EntryDate, &t.ExitDate, &t.EntryPrice, &t.ExitPrice,
			&t.Quantity, &t.PnL, &t.PnLPct, &t.DaysHeld, &t.ExitReason, &t.Strength, &t.Tag); err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		if direction == "short" {
			t.Direction = position.Short
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over trades: %w", err)
	}
	return trades, nil
}

func fetchEquity(ctx context.Context, dbpool *pgxpool.Pool, runID uuid.UUID) ([]engine.EquityPoint, error) {
	rows, err := dbpool.Query(ctx, `
        SELECT day, value
        FROM equity_curve
        WHERE run_id = $1
        ORDER BY day ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query equity curve: %w", err)
	}
	defer rows.Close()

	var equity []engine.EquityPoint
	for rows.Next() {
		var p engine.EquityPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan equity row: %w", err)
		}
		equity = append(equity, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over equity curve: %w", err)
	}
	return equity, nil
}
