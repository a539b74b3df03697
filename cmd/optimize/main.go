// Package main runs strategy parameter sweeps.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/your-org/portfolio-backtester/internal/alert"
	"github.com/your-org/portfolio-backtester/internal/config"
	"github.com/your-org/portfolio-backtester/internal/datastore"
	"github.com/your-org/portfolio-backtester/internal/market"
	"github.com/your-org/portfolio-backtester/internal/optimizer"
	"github.com/your-org/portfolio-backtester/internal/report"
	"github.com/your-org/portfolio-backtester/internal/strategy"
	"github.com/your-org/portfolio-backtester/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	dataDir := flag.String("data-dir", "", "Override the CSV data directory")
	strategies := flag.String("strategies", "", "Comma-separated strategy names, overrides the config")
	top := flag.Int("top", 10, "Number of ranked rows to print")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	logger.SetGlobalLogLevel(cfg.LogLevel)
	logger.Info("Optimizer starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	universe, err := datastore.LoadUniverseFromDir(cfg.DataDir)
	if err != nil {
		logger.Fatalf("Failed to load CSV universe from %s: %v", cfg.DataDir, err)
	}
	var benchSeries *market.Series
	if sym := cfg.Backtest.BenchmarkSymbol; sym != "" {
		if s, ok := universe[sym]; ok {
			benchSeries = s
			delete(universe, sym)
		}
	}

	names := cfg.Optimizer.Strategies
	if *strategies != "" {
		names = strings.Split(*strategies, ",")
	}
	if len(names) == 0 {
		names = strategy.List()
	}

	grids := make(map[string]optimizer.Grid, len(cfg.Optimizer.Params))
	for name, grid := range cfg.Optimizer.Params {
		grids[name] = optimizer.Grid(grid)
	}
	opt, err := optimizer.New(cfg.EngineConfig(), optimizer.Config{
		Strategies: names,
		Params:     grids,
		SampleSize: cfg.Optimizer.SampleSize,
		Workers:    cfg.Optimizer.Workers,
		Metric:     cfg.Optimizer.Metric,
		Seed:       cfg.Optimizer.Seed,
	}, report.Options{
		RiskFreeRate: cfg.Backtest.RiskFreeRate,
		Benchmark:    benchSeries,
	})
	if err != nil {
		logger.Fatalf("Failed to build optimizer: %v", err)
	}

	rows, runErr := opt.Run(ctx, universe, benchSeries)
	if runErr != nil {
		logger.Warnf("Sweep interrupted: %v (%d rows completed)", runErr, len(rows))
	}
	printRows(rows, *top)

	zapLogger, zapErr := zap.NewProduction()
	if zapErr != nil {
		logger.Fatalf("Failed to initialize Zap logger: %v", zapErr)
	}
	notifier := alert.NewLogNotifier(zapLogger)
	if len(rows) > 0 && rows[0].Err == "" {
		msg := fmt.Sprintf("sweep finished: best %s=%.4f with %s %s",
			metricName(cfg.Optimizer.Metric), rows[0].Score, rows[0].Strategy, formatParams(rows[0].Params))
		if err := notifier.Send(msg); err != nil {
			logger.Warnf("Failed to send alert: %v", err)
		}
	}
	if err := notifier.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close notifier: %v\n", err)
	}
}

func printRows(rows []optimizer.Row, top int) {
	if top > len(rows) {
		top = len(rows)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSTRATEGY\tPARAMS\tSCORE\tRETURN%\tMAXDD%\tTRADES\tERROR")
	for i, row := range rows[:top] {
		errText := row.Err
		if errText == "" {
			errText = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\t%.2f\t%.2f\t%d\t%s\n",
			i+1, row.Strategy, formatParams(row.Params), row.Score,
			row.Summary.TotalReturnPct, row.Summary.MaxDrawdownPct, row.Summary.TotalTrades, errText)
	}
	if err := w.Flush(); err != nil {
		logger.Errorf("Failed to flush table: %v", err)
	}
}

func formatParams(p strategy.Params) string {
	if len(p) == 0 {
		return "defaults"
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return strings.Join(parts, " ")
}

func metricName(metric string) string {
	if metric == "" {
		return "sharpe_ratio"
	}
	return metric
}
