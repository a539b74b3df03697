package montecarlo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateValidation(t *testing.T) {
	_, err := Simulate(nil, 100000, Config{})
	assert.Error(t, err)

	_, err = Simulate([]float64{100}, 0, Config{})
	assert.Error(t, err)
}

func TestSimulateDeterministicWithSeed(t *testing.T) {
	pnls := []float64{500, -200, 300, -100, 800, -400}
	cfg := Config{Simulations: 500, Seed: 42}

	a, err := Simulate(pnls, 100000, cfg)
	require.NoError(t, err)
	b, err := Simulate(pnls, 100000, cfg)
	require.NoError(t, err)

	assert.Equal(t, a, b, "same seed must reproduce the distribution")
}

func TestSimulatePercentilesOrdered(t *testing.T) {
	pnls := []float64{1200, -900, 450, -300, 700, -150, 250}
	s, err := Simulate(pnls, 50000, Config{Simulations: 2000, Seed: 7})
	require.NoError(t, err)

	assert.LessOrEqual(t, s.FinalP5, s.FinalP50)
	assert.LessOrEqual(t, s.FinalP50, s.FinalP95)
	assert.LessOrEqual(t, s.MaxDrawdownP50, s.MaxDrawdownP95)
	assert.LessOrEqual(t, s.CVaR, s.VaR, "the tail mean cannot beat its cutoff")
	assert.GreaterOrEqual(t, s.ProbProfit, 0.0)
	assert.LessOrEqual(t, s.ProbProfit, 1.0)
}

func TestSimulateAllWinners(t *testing.T) {
	pnls := []float64{100, 200, 300}
	s, err := Simulate(pnls, 10000, Config{Simulations: 300, Seed: 1})
	require.NoError(t, err)

	assert.Equal(t, 1.0, s.ProbProfit, "only winning trades to draw from")
	assert.Zero(t, s.ProbLargeLoss)
	assert.Zero(t, s.MaxDrawdownP95, "equity never falls")
	assert.Greater(t, s.VaR, 0.0, "worst case still gains")
}

func TestSimulateMeanConvergence(t *testing.T) {
	// Expected PnL per draw is 50; six draws per path gives roughly +300.
	pnls := []float64{100, 0}
	s, err := Simulate([]float64{pnls[0], pnls[1], pnls[0], pnls[1], pnls[0], pnls[1]}, 10000, Config{Simulations: 5000, Seed: 99})
	require.NoError(t, err)

	assert.InDelta(t, 10300, s.MeanFinal, 30)
}
