package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRSI(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 10, 11}
	got := RSI(closes, 3)

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[2]), "needs three deltas")
	assert.InDelta(t, 66.666666, got[3], 1e-4)
	assert.InDelta(t, 33.333333, got[4], 1e-4)
	assert.InDelta(t, 33.333333, got[5], 1e-4)
}

func TestRSI_AllGains(t *testing.T) {
	got := RSI([]float64{1, 2, 3, 4, 5}, 3)
	assert.InDelta(t, 100.0, got[3], 1e-9)
	assert.InDelta(t, 100.0, got[4], 1e-9)
}

func TestRSI_AllLosses(t *testing.T) {
	got := RSI([]float64{5, 4, 3, 2, 1}, 3)
	assert.InDelta(t, 0.0, got[3], 1e-9)
}

func TestROC(t *testing.T) {
	closes := []float64{100, 102, 105, 110}
	got := ROC(closes, 2)

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 5.0, got[2], 1e-9)
	assert.InDelta(t, 7.8431372549, got[3], 1e-9)
}

func TestROC_ZeroBaseSkipped(t *testing.T) {
	got := ROC([]float64{0, 1, 2}, 1)
	assert.True(t, math.IsNaN(got[1]), "division by zero base must stay NaN")
	assert.InDelta(t, 100.0, got[2], 1e-9)
}

func TestCrossoverAndCrossunder(t *testing.T) {
	a := []float64{1, 2, 3, 2, 1}
	b := []float64{2, 2, 2, 2, 2}

	assert.False(t, Crossover(a, b, 0))
	assert.False(t, Crossover(a, b, 1), "touch without exceeding is not a cross")
	assert.True(t, Crossover(a, b, 2))
	assert.False(t, Crossover(a, b, 3))

	assert.True(t, Crossunder(a, b, 4))
	assert.False(t, Crossunder(a, b, 2))
}

func TestCrossover_NaNGuards(t *testing.T) {
	a := []float64{math.NaN(), 3}
	b := []float64{2, 2}
	assert.False(t, Crossover(a, b, 1))
}
