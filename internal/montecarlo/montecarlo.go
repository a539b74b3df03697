// Package montecarlo estimates the distribution of outcomes a strategy
// could have produced by resampling its realized trade results with
// replacement and replaying them into synthetic equity paths.
package montecarlo

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Config tunes the simulation. Zero fields take the defaults.
type Config struct {
	Simulations  int     // number of resampled paths, default 1000
	Confidence   float64 // confidence level for VaR and CVaR, default 0.95
	LargeLossPct float64 // return threshold for ProbLargeLoss, default 20
	Seed         int64   // 0 seeds from the clock
}

func (c Config) withDefaults() Config {
	if c.Simulations == 0 {
		c.Simulations = 1000
	}
	if c.Confidence == 0 {
		c.Confidence = 0.95
	}
	if c.LargeLossPct == 0 {
		c.LargeLossPct = 20
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return c
}

// Summary describes the simulated outcome distribution. Returns and losses
// are percentages of the initial capital.
type Summary struct {
	Simulations int     `json:"simulations"`
	MeanFinal   float64 `json:"mean_final"`
	FinalP5     float64 `json:"final_p5"`
	FinalP50    float64 `json:"final_p50"`
	FinalP95    float64 `json:"final_p95"`

	VaR  float64 `json:"var"`  // return at the (1-confidence) percentile
	CVaR float64 `json:"cvar"` // mean return at or below the VaR

	ProbProfit    float64 `json:"prob_profit"`
	ProbLargeLoss float64 `json:"prob_large_loss"`

	MaxDrawdownP50 float64 `json:"max_drawdown_p50"`
	MaxDrawdownP95 float64 `json:"max_drawdown_p95"`
}

// Simulate bootstraps the trade PnL list. It needs at least one trade and a
// positive starting capital.
func Simulate(pnls []float64, initialCapital float64, cfg Config) (*Summary, error) {
	if len(pnls) == 0 {
		return nil, fmt.Errorf("montecarlo: no trades to resample")
	}
	if initialCapital <= 0 {
		return nil, fmt.Errorf("montecarlo: initial capital must be positive, got %.2f", initialCapital)
	}
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	finals := make([]float64, cfg.Simulations)
	returns := make([]float64, cfg.Simulations)
	drawdowns := make([]float64, cfg.Simulations)
	profitable := 0
	largeLosses := 0

	for sim := 0; sim < cfg.Simulations; sim++ {
		capital := initialCapital
		peak := initialCapital
		maxDD := 0.0
		for range pnls {
			capital += pnls[rng.Intn(len(pnls))]
			if capital > peak {
				peak = capital
			}
			if peak > 0 {
				if dd := (peak - capital) / peak * 100; dd > maxDD {
					maxDD = dd
				}
			}
		}
		finals[sim] = capital
		returns[sim] = (capital - initialCapital) / initialCapital * 100
		drawdowns[sim] = maxDD
		if capital > initialCapital {
			profitable++
		}
		if returns[sim] <= -cfg.LargeLossPct {
			largeLosses++
		}
	}

	sort.Float64s(finals)
	sort.Float64s(returns)
	sort.Float64s(drawdowns)

	valueAtRisk := stat.Quantile(1-cfg.Confidence, stat.Empirical, returns, nil)
	cvar := valueAtRisk
	// returns is sorted, so the tail at or below the VaR is a prefix.
	tailEnd := sort.SearchFloat64s(returns, valueAtRisk)
	for tailEnd < len(returns) && returns[tailEnd] <= valueAtRisk {
		tailEnd++
	}
	if tailEnd > 0 {
		cvar = stat.Mean(returns[:tailEnd], nil)
	}

	n := float64(cfg.Simulations)
	return &Summary{
		Simulations:    cfg.Simulations,
		MeanFinal:      stat.Mean(finals, nil),
		FinalP5:        stat.Quantile(0.05, stat.Empirical, finals, nil),
		FinalP50:       stat.Quantile(0.50, stat.Empirical, finals, nil),
		FinalP95:       stat.Quantile(0.95, stat.Empirical, finals, nil),
		VaR:            valueAtRisk,
		CVaR:           cvar,
		ProbProfit:     float64(profitable) / n,
		ProbLargeLoss:  float64(largeLosses) / n,
		MaxDrawdownP50: stat.Quantile(0.50, stat.Empirical, drawdowns, nil),
		MaxDrawdownP95: stat.Quantile(0.95, stat.Empirical, drawdowns, nil),
	}, nil
}
