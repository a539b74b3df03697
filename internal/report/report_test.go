package report

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/portfolio-backtester/internal/engine"
	"github.com/your-org/portfolio-backtester/internal/market"
	"github.com/your-org/portfolio-backtester/internal/position"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return day0.AddDate(0, 0, n) }

func trade(pnl float64, daysHeld int, reason string) position.Trade {
	return position.Trade{
		Symbol:     "ACME",
		EntryDate:  day(0),
		ExitDate:   day(daysHeld),
		PnL:        pnl,
		ExitReason: reason,
		DaysHeld:   daysHeld,
	}
}

func equity(values ...float64) []engine.EquityPoint {
	out := make([]engine.EquityPoint, len(values))
	for i, v := range values {
		out[i] = engine.EquityPoint{Date: day(i), Value: v}
	}
	return out
}

func TestAnalyzeTradeStatistics(t *testing.T) {
	res := &engine.Result{
		InitialCapital: 100000,
		FinalCapital:   103000,
		Trades: []position.Trade{
			trade(2000, 5, "Take Profit"),
			trade(1500, 3, "Take Profit"),
			trade(-500, 2, "Stop Loss"),
		},
		Equity: equity(100000, 101000, 100500, 103000),
	}
	s := Analyze(res, Options{})

	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.InDelta(t, 66.666, s.WinRate, 0.01)

	assert.Equal(t, "3000", s.TotalPnL.String())
	assert.Equal(t, "1750", s.AverageProfit.String())
	assert.Equal(t, "-500", s.AverageLoss.String())
	assert.Equal(t, "1000", s.Expectancy.String())

	assert.InDelta(t, 7.0, s.ProfitFactor, 1e-9, "3500 profit over 500 loss")
	assert.InDelta(t, 3.5, s.RiskRewardRatio, 1e-9)
	assert.InDelta(t, 3.0, s.TotalReturnPct, 1e-9)

	assert.Equal(t, 2, s.MaxConsecutiveWins)
	assert.Equal(t, 1, s.MaxConsecutiveLosses)
	assert.InDelta(t, 10.0/3, s.AverageHoldingDays, 1e-9)
	assert.InDelta(t, 4.0, s.AverageWinningHoldingDays, 1e-9)
	assert.InDelta(t, 2.0, s.AverageLosingHoldingDays, 1e-9)

	require.Contains(t, s.ByExitReason, "Take Profit")
	assert.Equal(t, 2, s.ByExitReason["Take Profit"].Count)
	assert.Equal(t, "3500", s.ByExitReason["Take Profit"].TotalPnL.String())
}

func TestProfitFactorEdges(t *testing.T) {
	// No trades at all.
	s := Analyze(&engine.Result{InitialCapital: 1000, FinalCapital: 1000}, Options{})
	assert.Zero(t, s.ProfitFactor)

	// Wins without a single loss.
	s = Analyze(&engine.Result{
		InitialCapital: 1000,
		FinalCapital:   1100,
		Trades:         []position.Trade{trade(100, 1, "Take Profit")},
	}, Options{})
	assert.True(t, math.IsInf(s.ProfitFactor, 1))
}

func TestMaxDrawdown(t *testing.T) {
	// Peak 120, trough 90: 25 percent.
	s := Analyze(&engine.Result{
		InitialCapital: 100,
		FinalCapital:   110,
		Equity:         equity(100, 120, 90, 110),
	}, Options{})
	assert.InDelta(t, 25.0, s.MaxDrawdownPct, 1e-9)
}

func TestSharpeFlatAndShortSeries(t *testing.T) {
	assert.Zero(t, sharpeRatio(nil, 0))
	assert.Zero(t, sharpeRatio([]float64{0.01}, 0), "one sample is not a distribution")
	assert.Zero(t, sharpeRatio([]float64{0.01, 0.01, 0.01}, 0), "zero variance")

	got := sharpeRatio([]float64{0.01, -0.01, 0.02, 0.0}, 0)
	assert.Greater(t, got, 0.0)
}

func TestSortinoPenalizesDownside(t *testing.T) {
	mild := []float64{0.02, -0.01, 0.02, -0.01}
	harsh := []float64{0.02, -0.03, 0.02, -0.03}
	assert.Greater(t, sortinoRatio(mild, 0), sortinoRatio(harsh, 0))
	assert.Zero(t, sortinoRatio([]float64{0.01, 0.02}, 0), "no downside samples yields zero")
}

func TestAnnualizedReturn(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	// Two years doubling compounds to about 41.4 percent a year.
	got := annualizedReturn(100, 200, start, start.AddDate(2, 0, 0))
	assert.InDelta(t, 41.42, got, 0.1)

	// Degenerate span falls back to the simple return.
	got = annualizedReturn(100, 110, start, start)
	assert.InDelta(t, 10.0, got, 1e-9)
}

func TestBuyAndHoldComparison(t *testing.T) {
	bars := make([]market.Bar, 4)
	closes := []float64{100, 101, 102, 110}
	for i := range bars {
		bars[i] = market.Bar{Date: day(i), Close: closes[i], Open: closes[i], High: closes[i], Low: closes[i]}
	}
	bench, err := market.NewSeries("SPX", bars)
	require.NoError(t, err)

	s := Analyze(&engine.Result{
		InitialCapital: 100000,
		FinalCapital:   105000,
		Equity:         equity(100000, 101000, 102000, 105000),
	}, Options{Benchmark: bench})

	assert.InDelta(t, 10.0, s.BuyAndHoldReturnPct, 1e-9)
	assert.InDelta(t, -5.0, s.ReturnVsBuyAndHold, 1e-9)
}

func TestBuyAndHoldNoBarsInRange(t *testing.T) {
	// Every benchmark bar predates the equity window.
	bars := make([]market.Bar, 3)
	for i := range bars {
		c := 100.0 + float64(i)
		bars[i] = market.Bar{Date: day(i - 10), Close: c, Open: c, High: c, Low: c}
	}
	bench, err := market.NewSeries("SPX", bars)
	require.NoError(t, err)

	s := Analyze(&engine.Result{
		InitialCapital: 100000,
		FinalCapital:   105000,
		Equity:         equity(100000, 105000),
	}, Options{Benchmark: bench})

	assert.Zero(t, s.BuyAndHoldReturnPct)
	assert.InDelta(t, 5.0, s.ReturnVsBuyAndHold, 1e-9)
}

func TestRenderContainsHeadlineNumbers(t *testing.T) {
	s := Analyze(&engine.Result{
		InitialCapital: 100000,
		FinalCapital:   103000,
		Trades:         []position.Trade{trade(3000, 4, "Take Profit")},
		Equity:         equity(100000, 103000),
	}, Options{})

	text := Render(s)
	assert.Contains(t, text, "100000.00 -> 103000.00")
	assert.Contains(t, text, "Take Profit")
	assert.Contains(t, text, "win rate")
}
