// Package report turns a finished run's trades and equity curve into the
// performance summary: win statistics, risk-adjusted ratios, drawdown, and
// the comparison against buying and holding the benchmark.
package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/your-org/portfolio-backtester/internal/engine"
	"github.com/your-org/portfolio-backtester/internal/market"
)

const tradingDaysPerYear = 252

// Options tunes the analysis. The zero value is usable.
type Options struct {
	RiskFreeRate float64 // annualized, e.g. 0.02 for 2 percent
	// Benchmark enables the buy-and-hold comparison over the equity period.
	Benchmark *market.Series
}

// ReasonStats aggregates the trades closed for one exit reason.
type ReasonStats struct {
	Count    int             `json:"count"`
	TotalPnL decimal.Decimal `json:"total_pnl"`
}

// Summary holds the performance metrics of one run. Money amounts are
// decimals; ratios and percentages are floats.
type Summary struct {
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	FinalCapital   decimal.Decimal `json:"final_capital"`

	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`

	TotalPnL      decimal.Decimal `json:"total_pnl"`
	AverageProfit decimal.Decimal `json:"average_profit"`
	AverageLoss   decimal.Decimal `json:"average_loss"`
	Expectancy    decimal.Decimal `json:"expectancy"`

	TotalReturnPct      float64 `json:"total_return_pct"`
	AnnualizedReturnPct float64 `json:"annualized_return_pct"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct"`
	SharpeRatio         float64 `json:"sharpe_ratio"`
	SortinoRatio        float64 `json:"sortino_ratio"`
	CalmarRatio         float64 `json:"calmar_ratio"`
	ProfitFactor        float64 `json:"profit_factor"`
	RiskRewardRatio     float64 `json:"risk_reward_ratio"`

	MaxConsecutiveWins   int `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int `json:"max_consecutive_losses"`

	AverageHoldingDays        float64 `json:"average_holding_days"`
	AverageWinningHoldingDays float64 `json:"average_winning_holding_days"`
	AverageLosingHoldingDays  float64 `json:"average_losing_holding_days"`

	BuyAndHoldReturnPct float64 `json:"buy_and_hold_return_pct"`
	ReturnVsBuyAndHold  float64 `json:"return_vs_buy_and_hold"`

	ByExitReason map[string]ReasonStats `json:"by_exit_reason"`
	ByTag        map[string]ReasonStats `json:"by_tag"`
}

// Analyze computes the summary for one run. A run with no trades still
// yields a valid summary built from the equity curve alone.
func Analyze(res *engine.Result, opts Options) Summary {
	s := Summary{
		InitialCapital: decimal.NewFromFloat(res.InitialCapital),
		FinalCapital:   decimal.NewFromFloat(res.FinalCapital),
		TotalTrades:    len(res.Trades),
		ByExitReason:   make(map[string]ReasonStats),
		ByTag:          make(map[string]ReasonStats),
	}
	if len(res.Equity) > 0 {
		s.StartDate = res.Equity[0].Date
		s.EndDate = res.Equity[len(res.Equity)-1].Date
	}

	var totalPnL, totalProfit, totalLoss decimal.Decimal
	var holding, winHolding, lossHolding []float64
	var streakWins, streakLosses int
	for _, t := range res.Trades {
		pnl := decimal.NewFromFloat(t.PnL)
		totalPnL = totalPnL.Add(pnl)
		holding = append(holding, float64(t.DaysHeld))

		rs := s.ByExitReason[t.ExitReason]
		rs.Count++
		rs.TotalPnL = rs.TotalPnL.Add(pnl)
		s.ByExitReason[t.ExitReason] = rs
		if t.Tag != "" {
			ts := s.ByTag[t.Tag]
			ts.Count++
			ts.TotalPnL = ts.TotalPnL.Add(pnl)
			s.ByTag[t.Tag] = ts
		}

		switch {
		case t.PnL > 0:
			s.WinningTrades++
			totalProfit = totalProfit.Add(pnl)
			winHolding = append(winHolding, float64(t.DaysHeld))
			streakWins++
			streakLosses = 0
		case t.PnL < 0:
			s.LosingTrades++
			totalLoss = totalLoss.Add(pnl)
			lossHolding = append(lossHolding, float64(t.DaysHeld))
			streakLosses++
			streakWins = 0
		default:
			streakWins, streakLosses = 0, 0
		}
		if streakWins > s.MaxConsecutiveWins {
			s.MaxConsecutiveWins = streakWins
		}
		if streakLosses > s.MaxConsecutiveLosses {
			s.MaxConsecutiveLosses = streakLosses
		}
	}
	s.TotalPnL = totalPnL

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
		s.Expectancy = totalPnL.Div(decimal.NewFromInt(int64(s.TotalTrades)))
	}
	if s.WinningTrades > 0 {
		s.AverageProfit = totalProfit.Div(decimal.NewFromInt(int64(s.WinningTrades)))
	}
	if s.LosingTrades > 0 {
		s.AverageLoss = totalLoss.Div(decimal.NewFromInt(int64(s.LosingTrades)))
	}
	if !s.AverageLoss.IsZero() {
		s.RiskRewardRatio = s.AverageProfit.Div(s.AverageLoss.Abs()).InexactFloat64()
	}

	switch {
	case totalLoss.IsNegative():
		s.ProfitFactor = totalProfit.Div(totalLoss.Abs()).InexactFloat64()
	case s.WinningTrades > 0:
		// Wins and no losses: the factor is unbounded.
		s.ProfitFactor = math.Inf(1)
	}

	s.AverageHoldingDays = mean(holding)
	s.AverageWinningHoldingDays = mean(winHolding)
	s.AverageLosingHoldingDays = mean(lossHolding)

	if res.InitialCapital > 0 {
		s.TotalReturnPct = (res.FinalCapital - res.InitialCapital) / res.InitialCapital * 100
	}
	s.AnnualizedReturnPct = annualizedReturn(res.InitialCapital, res.FinalCapital, s.StartDate, s.EndDate)
	s.MaxDrawdownPct = maxDrawdownPct(res.Equity)

	returns := dailyReturns(res.Equity)
	s.SharpeRatio = sharpeRatio(returns, opts.RiskFreeRate)
	s.SortinoRatio = sortinoRatio(returns, opts.RiskFreeRate)
	if s.MaxDrawdownPct > 0 {
		s.CalmarRatio = s.AnnualizedReturnPct / s.MaxDrawdownPct
	}

	if opts.Benchmark != nil {
		s.BuyAndHoldReturnPct = buyAndHoldReturn(opts.Benchmark, s.StartDate, s.EndDate)
		s.ReturnVsBuyAndHold = s.TotalReturnPct - s.BuyAndHoldReturnPct
	}
	return s
}

// dailyReturns converts the equity curve into simple day-over-day returns.
func dailyReturns(equity []engine.EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (equity[i].Value-prev)/prev)
	}
	return out
}

// maxDrawdownPct scans the equity curve for the deepest peak-to-trough fall.
func maxDrawdownPct(equity []engine.EquityPoint) float64 {
	maxDD := 0.0
	peak := 0.0
	for _, p := range equity {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			if dd := (peak - p.Value) / peak * 100; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// annualizedReturn compounds the total return over the run's calendar span.
// Runs shorter than a day fall back to the simple return.
func annualizedReturn(initial, final float64, start, end time.Time) float64 {
	if initial <= 0 || final <= 0 {
		return 0
	}
	years := end.Sub(start).Hours() / 24 / 365.25
	total := final / initial
	if years <= 0 {
		return (total - 1) * 100
	}
	return (math.Pow(total, 1/years) - 1) * 100
}

// sharpeRatio annualizes the daily return series against the risk-free rate.
// Fewer than two samples or a flat series yields zero.
func sharpeRatio(returns []float64, riskFree float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	m := mean(returns)
	sd := stdDev(returns, m)
	if sd == 0 {
		return 0
	}
	return (m*tradingDaysPerYear - riskFree) / (sd * math.Sqrt(tradingDaysPerYear))
}

// sortinoRatio is the Sharpe variant penalizing only downside deviation.
func sortinoRatio(returns []float64, riskFree float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	m := mean(returns)
	dd := downsideDeviation(returns, 0)
	if dd == 0 {
		return 0
	}
	return (m*tradingDaysPerYear - riskFree) / (dd * math.Sqrt(tradingDaysPerYear))
}

// buyAndHoldReturn is the benchmark's close-to-close return between the
// nearest bars inside [start, end].
func buyAndHoldReturn(benchmark *market.Series, start, end time.Time) float64 {
	var first, last float64
	var found bool
	for i := 0; i < benchmark.Len(); i++ {
		b := benchmark.At(i)
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		if !found {
			first = b.Close
			found = true
		}
		last = b.Close
	}
	if !found || first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdDev(xs []float64, mean float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	variance := 0.0
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	return math.Sqrt(variance / float64(len(xs)))
}

func downsideDeviation(xs []float64, target float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	variance := 0.0
	count := 0
	for _, x := range xs {
		if x < target {
			variance += (x - target) * (x - target)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(variance / float64(count))
}

// Render formats the summary as the plain-text report printed by the CLI.
func Render(s Summary) string {
	out := "==================== BACKTEST SUMMARY ====================\n"
	out += fmt.Sprintf("Period            %s to %s\n", s.StartDate.Format(time.DateOnly), s.EndDate.Format(time.DateOnly))
	out += fmt.Sprintf("Capital           %s -> %s (%.2f%%)\n",
		s.InitialCapital.StringFixed(2), s.FinalCapital.StringFixed(2), s.TotalReturnPct)
	out += fmt.Sprintf("Trades            %d (%d wins / %d losses, %.1f%% win rate)\n",
		s.TotalTrades, s.WinningTrades, s.LosingTrades, s.WinRate)
	out += fmt.Sprintf("Total PnL         %s (expectancy %s)\n", s.TotalPnL.StringFixed(2), s.Expectancy.StringFixed(2))
	out += fmt.Sprintf("Max drawdown      %.2f%%\n", s.MaxDrawdownPct)
	out += fmt.Sprintf("Sharpe / Sortino  %.2f / %.2f\n", s.SharpeRatio, s.SortinoRatio)
	out += fmt.Sprintf("Calmar            %.2f\n", s.CalmarRatio)
	out += fmt.Sprintf("Profit factor     %.2f (risk/reward %.2f)\n", s.ProfitFactor, s.RiskRewardRatio)
	out += fmt.Sprintf("Streaks           %d wins / %d losses\n", s.MaxConsecutiveWins, s.MaxConsecutiveLosses)
	out += fmt.Sprintf("Avg holding days  %.1f (wins %.1f / losses %.1f)\n",
		s.AverageHoldingDays, s.AverageWinningHoldingDays, s.AverageLosingHoldingDays)
	if s.BuyAndHoldReturnPct != 0 || s.ReturnVsBuyAndHold != 0 {
		out += fmt.Sprintf("Buy and hold      %.2f%% (delta %+.2f%%)\n", s.BuyAndHoldReturnPct, s.ReturnVsBuyAndHold)
	}
	reasons := make([]string, 0, len(s.ByExitReason))
	for reason := range s.ByExitReason {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		rs := s.ByExitReason[reason]
		out += fmt.Sprintf("  exit %-22s %3d trades, PnL %s\n", reason, rs.Count, rs.TotalPnL.StringFixed(2))
	}
	out += "==========================================================\n"
	return out
}
