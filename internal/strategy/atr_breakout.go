package strategy

import (
	"fmt"

	"github.com/your-org/portfolio-backtester/internal/indicator"
	"github.com/your-org/portfolio-backtester/internal/market"
	"github.com/your-org/portfolio-backtester/internal/position"
)

func init() {
	Register("atr_breakout", NewATRBreakout)
}

// ATRBreakout enters when the close clears the prior lookback high, ranking
// breakouts by their size in ATR units, and exits once price falls back
// under a short moving average.
type ATRBreakout struct {
	atrPeriod int
	lookback  int
	exitMA    int
}

// NewATRBreakout builds the strategy. Parameters: atr_period (14),
// breakout_lookback (20), exit_ma_period (10).
func NewATRBreakout(p Params) (Strategy, error) {
	s := &ATRBreakout{
		atrPeriod: p.GetInt("atr_period", 14),
		lookback:  p.GetInt("breakout_lookback", 20),
		exitMA:    p.GetInt("exit_ma_period", 10),
	}
	if s.atrPeriod < 2 || s.lookback < 2 || s.exitMA < 1 {
		return nil, fmt.Errorf("atr_breakout: periods must be positive, got atr=%d lookback=%d exit=%d",
			s.atrPeriod, s.lookback, s.exitMA)
	}
	return s, nil
}

// Name implements Strategy.
func (s *ATRBreakout) Name() string { return "atr_breakout" }

// Prepare implements Strategy.
func (s *ATRBreakout) Prepare(series *market.Series) (*market.Frame, error) {
	f := market.NewFrame(series)
	if err := f.SetColumn("atr", indicator.ATR(series.Highs(), series.Lows(), series.Closes(), s.atrPeriod)); err != nil {
		return nil, err
	}
	if err := f.SetColumn("high_max", indicator.RollingMax(series.Highs(), s.lookback)); err != nil {
		return nil, err
	}
	if err := f.SetColumn("exit_ma", indicator.SMA(series.Closes(), s.exitMA)); err != nil {
		return nil, err
	}
	return f, nil
}

// Entry implements Strategy.
func (s *ATRBreakout) Entry(f *market.Frame, i int) (Signal, bool) {
	if i < 1 {
		return Signal{}, false
	}
	// The breakout reference is the high of the window ending yesterday.
	priorHigh, ok := f.Value("high_max", i-1)
	if !ok {
		return Signal{}, false
	}
	atr, ok := f.Value("atr", i)
	if !ok || atr <= 0 {
		return Signal{}, false
	}
	close := f.At(i).Close
	if close <= priorHigh {
		return Signal{}, false
	}
	return Signal{Strength: (close - priorHigh) / atr}, true
}

// Exit implements Strategy.
func (s *ATRBreakout) Exit(f *market.Frame, i int, _ *position.Position) (string, bool) {
	ma, ok := f.Value("exit_ma", i)
	if !ok {
		return "", false
	}
	if f.At(i).Close >= ma {
		return "", false
	}
	return "Trend Break", true
}
