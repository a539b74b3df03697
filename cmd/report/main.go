// Package main renders the performance report for a persisted run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/portfolio-backtester/internal/config"
	"github.com/your-org/portfolio-backtester/internal/engine"
	"github.com/your-org/portfolio-backtester/internal/position"
	"github.com/your-org/portfolio-backtester/internal/report"
	"github.com/your-org/portfolio-backtester/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	runIDStr := flag.String("run", "", "Run ID to report on")
	list := flag.Bool("list", false, "List recent runs and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.SetGlobalLogLevel(cfg.LogLevel)

	if !bool(cfg.Database.Enabled) {
		logger.Fatal("The report command needs database.enabled: true")
	}

	ctx := context.Background()
	dbpool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatalf("Unable to connect to database: %v", err)
	}
	defer dbpool.Close()

	if *list {
		if err := listRuns(ctx, dbpool); err != nil {
			logger.Fatalf("Failed to list runs: %v", err)
		}
		return
	}

	if *runIDStr == "" {
		logger.Fatal("The --run flag is required (or use --list).")
	}
	runID, err := uuid.Parse(*runIDStr)
	if err != nil {
		logger.Fatalf("Invalid run ID %q: %v", *runIDStr, err)
	}

	res, err := loadRun(ctx, dbpool, runID)
	if err != nil {
		logger.Fatalf("Failed to load run %s: %v", runID, err)
	}
	summary := report.Analyze(res, report.Options{RiskFreeRate: cfg.Backtest.RiskFreeRate})
	fmt.Println(report.Render(summary))
}

// listRuns prints the most recent persisted runs newest first.
func listRuns(ctx context.Context, dbpool *pgxpool.Pool) error {
	rows, err := dbpool.Query(ctx, `
        SELECT run_id, created_at, strategy, total_return_pct, sharpe_ratio, total_trades
        FROM backtest_runs
        ORDER BY created_at DESC
        LIMIT 20`)
	if err != nil {
		return fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCREATED\tSTRATEGY\tRETURN%\tSHARPE\tTRADES")
	for rows.Next() {
		var runID uuid.UUID
		var createdAt time.Time
		var strategy string
		var returnPct, sharpe float64
		var trades int
		if err := rows.Scan(&runID, &createdAt, &strategy, &returnPct, &sharpe, &trades); err != nil {
			return fmt.Errorf("failed to scan run row: %w", err)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%d\n",
			runID, createdAt.Format(time.DateOnly), strategy, returnPct, sharpe, trades)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating over runs: %w", err)
	}
	return w.Flush()
}

// loadRun rebuilds an engine result from the persisted tables.
func loadRun(ctx context.Context, dbpool *pgxpool.Pool, runID uuid.UUID) (*engine.Result, error) {
	res := &engine.Result{RunID: runID}
	err := dbpool.QueryRow(ctx, `
        SELECT strategy, initial_capital, final_capital
        FROM backtest_runs
        WHERE run_id = $1`, runID).Scan(&res.Strategy, &res.InitialCapital, &res.FinalCapital)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run summary: %w", err)
	}

	tradeRows, err := dbpool.Query(ctx, `
        SELECT symbol, direction, entry_date, exit_date, entry_price, exit_price,
               quantity, pnl, pnl_pct, days_held, exit_reason, strength, tag
        FROM backtest_trades
        WHERE run_id = $1
        ORDER BY exit_date ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer tradeRows.Close()
	for tradeRows.Next() {
		var t position.Trade
		var direction string
		if err := tradeRows.Scan(&t.Symbol, &direction, &t.EntryDate, &t.ExitDate, &t.EntryPrice, &t.ExitPrice,
			&t.Quantity, &t.PnL, &t.PnLPct, &t.DaysHeld, &t.ExitReason, &t.Strength, &t.Tag); err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		t.Direction = parseDirection(direction)
		res.Trades = append(res.Trades, t)
	}
	if err := tradeRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over trades: %w", err)
	}

	equityRows, err := dbpool.Query(ctx, `
        SELECT day, value
        FROM equity_curve
        WHERE run_id = $1
        ORDER BY day ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query equity curve: %w", err)
	}
	defer equityRows.Close()
	for equityRows.Next() {
		var p engine.EquityPoint
		if err := equityRows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan equity row: %w", err)
		}
		res.Equity = append(res.Equity, p)
	}
	if err := equityRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over equity curve: %w", err)
	}
	return res, nil
}

func parseDirection(s string) position.Direction {
	if s == "short" {
		return position.Short
	}
	return position.Long
}
