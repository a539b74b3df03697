package strategy

import (
	"fmt"

	"github.com/your-org/portfolio-backtester/internal/indicator"
	"github.com/your-org/portfolio-backtester/internal/market"
	"github.com/your-org/portfolio-backtester/internal/position"
)

func init() {
	Register("bollinger_reversion", NewBollingerReversion)
}

// BollingerReversion buys closes below the lower band and exits once price
// reverts to the middle band.
type BollingerReversion struct {
	period int
	width  float64
}

// NewBollingerReversion builds the strategy. Parameters: bb_period (20),
// band_width (2.0).
func NewBollingerReversion(p Params) (Strategy, error) {
	s := &BollingerReversion{
		period: p.GetInt("bb_period", 20),
		width:  p.Get("band_width", 2.0),
	}
	if s.period < 2 {
		return nil, fmt.Errorf("bollinger_reversion: bb_period must be at least 2, got %d", s.period)
	}
	if s.width <= 0 {
		return nil, fmt.Errorf("bollinger_reversion: band_width must be positive, got %.2f", s.width)
	}
	return s, nil
}

// Name implements Strategy.
func (s *BollingerReversion) Name() string { return "bollinger_reversion" }

// Prepare implements Strategy.
func (s *BollingerReversion) Prepare(series *market.Series) (*market.Frame, error) {
	f := market.NewFrame(series)
	middle, upper, lower := indicator.Bollinger(series.Closes(), s.period, s.width)
	if err := f.SetColumn("bb_middle", middle); err != nil {
		return nil, err
	}
	if err := f.SetColumn("bb_upper", upper); err != nil {
		return nil, err
	}
	if err := f.SetColumn("bb_lower", lower); err != nil {
		return nil, err
	}
	return f, nil
}

// Entry implements Strategy.
func (s *BollingerReversion) Entry(f *market.Frame, i int) (Signal, bool) {
	lower, ok := f.Value("bb_lower", i)
	if !ok || lower <= 0 {
		return Signal{}, false
	}
	close := f.At(i).Close
	if close >= lower {
		return Signal{}, false
	}
	return Signal{Strength: (lower - close) / lower}, true
}

// Exit implements Strategy.
func (s *BollingerReversion) Exit(f *market.Frame, i int, _ *position.Position) (string, bool) {
	middle, ok := f.Value("bb_middle", i)
	if !ok {
		return "", false
	}
	if f.At(i).Close < middle {
		return "", false
	}
	return "Mean Reversion Target", true
}
