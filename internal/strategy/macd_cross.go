package strategy

import (
	"fmt"

	"github.com/your-org/portfolio-backtester/internal/indicator"
	"github.com/your-org/portfolio-backtester/internal/market"
	"github.com/your-org/portfolio-backtester/internal/position"
)

func init() {
	Register("macd_cross", NewMACDCross)
}

// MACDCross enters when the MACD line crosses above its signal line and
// exits on the reverse cross.
type MACDCross struct {
	fast   int
	slow   int
	signal int
}

// NewMACDCross builds the strategy. Parameters: fast_period (12),
// slow_period (26), signal_period (9).
func NewMACDCross(p Params) (Strategy, error) {
	s := &MACDCross{
		fast:   p.GetInt("fast_period", 12),
		slow:   p.GetInt("slow_period", 26),
		signal: p.GetInt("signal_period", 9),
	}
	if s.fast < 1 || s.fast >= s.slow {
		return nil, fmt.Errorf("macd_cross: fast_period must be below slow_period, got %d/%d", s.fast, s.slow)
	}
	if s.signal < 1 {
		return nil, fmt.Errorf("macd_cross: signal_period must be positive, got %d", s.signal)
	}
	return s, nil
}

// Name implements Strategy.
func (s *MACDCross) Name() string { return "macd_cross" }

// Prepare implements Strategy.
func (s *MACDCross) Prepare(series *market.Series) (*market.Frame, error) {
	f := market.NewFrame(series)
	line, signal, hist := indicator.MACD(series.Closes(), s.fast, s.slow, s.signal)
	if err := f.SetColumn("macd", line); err != nil {
		return nil, err
	}
	if err := f.SetColumn("macd_signal", signal); err != nil {
		return nil, err
	}
	if err := f.SetColumn("macd_hist", hist); err != nil {
		return nil, err
	}
	return f, nil
}

// Entry implements Strategy.
func (s *MACDCross) Entry(f *market.Frame, i int) (Signal, bool) {
	line, _ := f.Column("macd")
	signal, _ := f.Column("macd_signal")
	if !indicator.Crossover(line, signal, i) {
		return Signal{}, false
	}
	hist, ok := f.Value("macd_hist", i)
	if !ok {
		return Signal{}, false
	}
	close := f.At(i).Close
	if close <= 0 {
		return Signal{}, false
	}
	// Histogram as a fraction of price ranks stronger momentum higher.
	return Signal{Strength: hist / close * 100}, true
}

// Exit implements Strategy.
func (s *MACDCross) Exit(f *market.Frame, i int, _ *position.Position) (string, bool) {
	line, _ := f.Column("macd")
	signal, _ := f.Column("macd_signal")
	if !indicator.Crossunder(line, signal, i) {
		return "", false
	}
	return "MACD Reversal", true
}
