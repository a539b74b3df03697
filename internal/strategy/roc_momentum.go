package strategy

import (
	"fmt"

	"github.com/your-org/portfolio-backtester/internal/indicator"
	"github.com/your-org/portfolio-backtester/internal/market"
	"github.com/your-org/portfolio-backtester/internal/position"
)

func init() {
	Register("roc_momentum", NewROCMomentum)
}

// ROCMomentum buys rate-of-change strictly above the buy threshold and
// exits once momentum drops below the exit threshold.
type ROCMomentum struct {
	period        int
	buyThreshold  float64
	exitThreshold float64
}

// NewROCMomentum builds the strategy. Parameters: roc_period (12),
// roc_buy_threshold (5.0), roc_exit_threshold (0.0).
func NewROCMomentum(p Params) (Strategy, error) {
	s := &ROCMomentum{
		period:        p.GetInt("roc_period", 12),
		buyThreshold:  p.Get("roc_buy_threshold", 5.0),
		exitThreshold: p.Get("roc_exit_threshold", 0.0),
	}
	if s.period < 1 {
		return nil, fmt.Errorf("roc_momentum: roc_period must be positive, got %d", s.period)
	}
	if s.exitThreshold >= s.buyThreshold {
		return nil, fmt.Errorf("roc_momentum: roc_exit_threshold must be below roc_buy_threshold, got %.2f/%.2f",
			s.exitThreshold, s.buyThreshold)
	}
	return s, nil
}

// Name implements Strategy.
func (s *ROCMomentum) Name() string { return "roc_momentum" }

// Prepare implements Strategy.
func (s *ROCMomentum) Prepare(series *market.Series) (*market.Frame, error) {
	f := market.NewFrame(series)
	if err := f.SetColumn("roc", indicator.ROC(series.Closes(), s.period)); err != nil {
		return nil, err
	}
	return f, nil
}

// Entry implements Strategy.
func (s *ROCMomentum) Entry(f *market.Frame, i int) (Signal, bool) {
	roc, ok := f.Value("roc", i)
	// Strictly greater than: a reading exactly at the threshold is not a buy.
	if !ok || roc <= s.buyThreshold {
		return Signal{}, false
	}
	return Signal{Strength: roc}, true
}

// Exit implements Strategy.
func (s *ROCMomentum) Exit(f *market.Frame, i int, _ *position.Position) (string, bool) {
	roc, ok := f.Value("roc", i)
	if !ok || roc >= s.exitThreshold {
		return "", false
	}
	return "Momentum Faded", true
}
