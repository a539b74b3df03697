// Package optimizer sweeps strategy parameter grids: it expands the
// cartesian product of every axis, optionally samples it down, runs each
// combination through the engine on a worker pool, and ranks the survivors
// by a chosen report metric.
package optimizer

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/portfolio-backtester/internal/engine"
	"github.com/your-org/portfolio-backtester/internal/market"
	"github.com/your-org/portfolio-backtester/internal/report"
	"github.com/your-org/portfolio-backtester/internal/strategy"
	"github.com/your-org/portfolio-backtester/pkg/logger"
)

// Grid maps a parameter name to the values to sweep.
type Grid map[string][]float64

// Config describes one sweep.
type Config struct {
	Strategies []string        // strategy names to include
	Params     map[string]Grid // per-strategy grids; a missing entry sweeps defaults only
	SampleSize int             // 0 runs the full product, otherwise a uniform sample
	Workers    int             // default 4
	Metric     string          // ranking metric, default "sharpe_ratio"
	Seed       int64           // sampling seed, 0 seeds from the clock
}

// Row is the outcome of one parameter combination. Err is set when the
// combination was invalid or the run failed; such rows rank last.
type Row struct {
	ID       uuid.UUID       `json:"id"`
	Strategy string          `json:"strategy"`
	Params   strategy.Params `json:"params"`
	Summary  report.Summary  `json:"summary"`
	Score    float64         `json:"score"`
	Err      string          `json:"err,omitempty"`
}

// Optimizer runs sweeps against a fixed engine configuration.
type Optimizer struct {
	engineCfg  engine.Config
	cfg        Config
	reportOpts report.Options
}

// New builds an optimizer. The engine configuration is validated per run.
func New(engineCfg engine.Config, cfg Config, reportOpts report.Options) (*Optimizer, error) {
	if len(cfg.Strategies) == 0 {
		return nil, fmt.Errorf("optimizer: no strategies to sweep")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Metric == "" {
		cfg.Metric = "sharpe_ratio"
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Optimizer{engineCfg: engineCfg, cfg: cfg, reportOpts: reportOpts}, nil
}

type combo struct {
	strategy string
	params   strategy.Params
}

// Run executes the sweep and returns the rows ranked best-first. On
// cancellation it returns the rows completed so far together with the
// context error.
func (o *Optimizer) Run(ctx context.Context, universe map[string]*market.Series, benchmark *market.Series) ([]Row, error) {
	combos := o.expand()
	if o.cfg.SampleSize > 0 && len(combos) > o.cfg.SampleSize {
		rng := rand.New(rand.NewSource(o.cfg.Seed))
		rng.Shuffle(len(combos), func(i, j int) { combos[i], combos[j] = combos[j], combos[i] })
		combos = combos[:o.cfg.SampleSize]
	}
	logger.Infof("optimizer: sweeping %d combinations with %d workers", len(combos), o.cfg.Workers)

	jobs := make(chan combo)
	results := make(chan Row)
	var wg sync.WaitGroup
	for w := 0; w < o.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				results <- o.evaluate(ctx, c, universe, benchmark)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, c := range combos {
			select {
			case jobs <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	rows := make([]Row, 0, len(combos))
	for row := range results {
		rows = append(rows, row)
	}
	o.rank(rows)
	return rows, ctx.Err()
}

// evaluate runs a single combination end to end.
func (o *Optimizer) evaluate(ctx context.Context, c combo, universe map[string]*market.Series, benchmark *market.Series) Row {
	row := Row{ID: uuid.New(), Strategy: c.strategy, Params: c.params}

	strat, err := strategy.New(c.strategy, c.params)
	if err != nil {
		row.Err = err.Error()
		return row
	}
	eng, err := engine.New(o.engineCfg, strat)
	if err != nil {
		row.Err = err.Error()
		return row
	}
	res, err := eng.Run(ctx, universe, benchmark)
	if err != nil {
		row.Err = err.Error()
		return row
	}
	row.Summary = report.Analyze(res, o.reportOpts)
	row.Score = metricValue(row.Summary, o.cfg.Metric)
	return row
}

// expand builds the full cartesian product across strategies and their
// grids. Axes iterate in sorted parameter order so expansion is
// deterministic.
func (o *Optimizer) expand() []combo {
	var combos []combo
	for _, name := range o.cfg.Strategies {
		grid := o.cfg.Params[name]
		if len(grid) == 0 {
			combos = append(combos, combo{strategy: name, params: strategy.Params{}})
			continue
		}
		keys := make([]string, 0, len(grid))
		for k := range grid {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		assignments := []strategy.Params{{}}
		for _, k := range keys {
			next := make([]strategy.Params, 0, len(assignments)*len(grid[k]))
			for _, base := range assignments {
				for _, v := range grid[k] {
					p := make(strategy.Params, len(base)+1)
					for bk, bv := range base {
						p[bk] = bv
					}
					p[k] = v
					next = append(next, p)
				}
			}
			assignments = next
		}
		for _, p := range assignments {
			combos = append(combos, combo{strategy: name, params: p})
		}
	}
	return combos
}

// rank sorts best score first; failed rows sink to the bottom and keep
// their relative order.
func (o *Optimizer) rank(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if (rows[i].Err == "") != (rows[j].Err == "") {
			return rows[i].Err == ""
		}
		return rows[i].Score > rows[j].Score
	})
}

// metricValue maps a metric name to a value where higher is better.
func metricValue(s report.Summary, metric string) float64 {
	switch metric {
	case "total_return_pct":
		return s.TotalReturnPct
	case "annualized_return_pct":
		return s.AnnualizedReturnPct
	case "win_rate":
		return s.WinRate
	case "profit_factor":
		return s.ProfitFactor
	case "calmar_ratio":
		return s.CalmarRatio
	case "sortino_ratio":
		return s.SortinoRatio
	case "expectancy":
		return s.Expectancy.InexactFloat64()
	case "max_drawdown_pct":
		// Smaller drawdowns are better, so invert.
		return -s.MaxDrawdownPct
	default:
		return s.SharpeRatio
	}
}
