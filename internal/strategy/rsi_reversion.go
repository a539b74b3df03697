package strategy

import (
	"fmt"

	"github.com/your-org/portfolio-backtester/internal/indicator"
	"github.com/your-org/portfolio-backtester/internal/market"
	"github.com/your-org/portfolio-backtester/internal/position"
)

func init() {
	Register("rsi_reversion", NewRSIReversion)
}

// RSIReversion buys oversold dips and exits once the oscillator swings to
// overbought. Strength grows the deeper the oscillator sits below the buy
// threshold.
type RSIReversion struct {
	period    int
	buyBelow  float64
	exitAbove float64
}

// NewRSIReversion builds the strategy. Parameters: rsi_period (14),
// buy_below (30), exit_above (70).
func NewRSIReversion(p Params) (Strategy, error) {
	s := &RSIReversion{
		period:    p.GetInt("rsi_period", 14),
		buyBelow:  p.Get("buy_below", 30),
		exitAbove: p.Get("exit_above", 70),
	}
	if s.period < 2 {
		return nil, fmt.Errorf("rsi_reversion: rsi_period must be at least 2, got %d", s.period)
	}
	if s.buyBelow <= 0 || s.exitAbove >= 100 || s.buyBelow >= s.exitAbove {
		return nil, fmt.Errorf("rsi_reversion: need 0 < buy_below < exit_above < 100, got %.1f/%.1f",
			s.buyBelow, s.exitAbove)
	}
	return s, nil
}

// Name implements Strategy.
func (s *RSIReversion) Name() string { return "rsi_reversion" }

// Prepare implements Strategy.
func (s *RSIReversion) Prepare(series *market.Series) (*market.Frame, error) {
	f := market.NewFrame(series)
	if err := f.SetColumn("rsi", indicator.RSI(series.Closes(), s.period)); err != nil {
		return nil, err
	}
	return f, nil
}

// Entry implements Strategy.
func (s *RSIReversion) Entry(f *market.Frame, i int) (Signal, bool) {
	rsi, ok := f.Value("rsi", i)
	if !ok || rsi >= s.buyBelow {
		return Signal{}, false
	}
	return Signal{Strength: (s.buyBelow - rsi) / s.buyBelow}, true
}

// Exit implements Strategy.
func (s *RSIReversion) Exit(f *market.Frame, i int, _ *position.Position) (string, bool) {
	rsi, ok := f.Value("rsi", i)
	if !ok || rsi <= s.exitAbove {
		return "", false
	}
	return "RSI Overbought", true
}
