package strategy

import (
	"fmt"

	"github.com/your-org/portfolio-backtester/internal/indicator"
	"github.com/your-org/portfolio-backtester/internal/market"
	"github.com/your-org/portfolio-backtester/internal/position"
)

func init() {
	Register("ma_crossover", NewMACrossover)
}

// MACrossover enters on a golden cross of two simple moving averages and
// exits on the death cross.
type MACrossover struct {
	fast int
	slow int
}

// NewMACrossover builds the strategy. Parameters: fast_period (50),
// slow_period (200).
func NewMACrossover(p Params) (Strategy, error) {
	s := &MACrossover{
		fast: p.GetInt("fast_period", 50),
		slow: p.GetInt("slow_period", 200),
	}
	if s.fast < 1 || s.fast >= s.slow {
		return nil, fmt.Errorf("ma_crossover: fast_period must be below slow_period, got %d/%d", s.fast, s.slow)
	}
	return s, nil
}

// Name implements Strategy.
func (s *MACrossover) Name() string { return "ma_crossover" }

// Prepare implements Strategy.
func (s *MACrossover) Prepare(series *market.Series) (*market.Frame, error) {
	f := market.NewFrame(series)
	closes := series.Closes()
	if err := f.SetColumn("ma_fast", indicator.SMA(closes, s.fast)); err != nil {
		return nil, err
	}
	if err := f.SetColumn("ma_slow", indicator.SMA(closes, s.slow)); err != nil {
		return nil, err
	}
	return f, nil
}

// Entry implements Strategy.
func (s *MACrossover) Entry(f *market.Frame, i int) (Signal, bool) {
	fast, _ := f.Column("ma_fast")
	slow, _ := f.Column("ma_slow")
	if !indicator.Crossover(fast, slow, i) {
		return Signal{}, false
	}
	// Separation of the averages right after the cross is the ranking key.
	return Signal{Strength: (fast[i] - slow[i]) / slow[i]}, true
}

// Exit implements Strategy.
func (s *MACrossover) Exit(f *market.Frame, i int, _ *position.Position) (string, bool) {
	fast, _ := f.Column("ma_fast")
	slow, _ := f.Column("ma_slow")
	if !indicator.Crossunder(fast, slow, i) {
		return "", false
	}
	return "Death Cross", true
}
