package strategy

import (
	"fmt"

	"github.com/your-org/portfolio-backtester/internal/indicator"
	"github.com/your-org/portfolio-backtester/internal/market"
	"github.com/your-org/portfolio-backtester/internal/position"
)

func init() {
	Register("confluence", NewConfluence)
}

// Tier tags attached to confluence entries. The tag travels onto the trade
// record for later per-tier analysis.
const (
	TierPrime     = "prime"
	TierConfirmed = "confirmed"
	TierStandard  = "standard"
)

// Confluence requires an oversold oscillator and MACD momentum at the same
// time, then grades the entry by how many secondary confirmations also fire.
type Confluence struct {
	rsiPeriod    int
	rsiBelow     float64
	rsiExitAbove float64
	macdFast     int
	macdSlow     int
	macdSignal   int
	volumePeriod int
}

// NewConfluence builds the strategy. Parameters: rsi_period (14), rsi_below
// (45), rsi_exit_above (70), fast_period (12), slow_period (26),
// signal_period (9), volume_period (20).
func NewConfluence(p Params) (Strategy, error) {
	s := &Confluence{
		rsiPeriod:    p.GetInt("rsi_period", 14),
		rsiBelow:     p.Get("rsi_below", 45),
		rsiExitAbove: p.Get("rsi_exit_above", 70),
		macdFast:     p.GetInt("fast_period", 12),
		macdSlow:     p.GetInt("slow_period", 26),
		macdSignal:   p.GetInt("signal_period", 9),
		volumePeriod: p.GetInt("volume_period", 20),
	}
	if s.rsiPeriod < 2 || s.volumePeriod < 1 {
		return nil, fmt.Errorf("confluence: periods must be positive, got rsi=%d volume=%d", s.rsiPeriod, s.volumePeriod)
	}
	if s.rsiBelow <= 0 || s.rsiBelow >= s.rsiExitAbove {
		return nil, fmt.Errorf("confluence: need 0 < rsi_below < rsi_exit_above, got %.1f/%.1f",
			s.rsiBelow, s.rsiExitAbove)
	}
	if s.macdFast < 1 || s.macdFast >= s.macdSlow || s.macdSignal < 1 {
		return nil, fmt.Errorf("confluence: invalid MACD periods %d/%d/%d", s.macdFast, s.macdSlow, s.macdSignal)
	}
	return s, nil
}

// Name implements Strategy.
func (s *Confluence) Name() string { return "confluence" }

// Prepare implements Strategy.
func (s *Confluence) Prepare(series *market.Series) (*market.Frame, error) {
	f := market.NewFrame(series)
	if err := f.SetColumn("rsi", indicator.RSI(series.Closes(), s.rsiPeriod)); err != nil {
		return nil, err
	}
	line, signal, hist := indicator.MACD(series.Closes(), s.macdFast, s.macdSlow, s.macdSignal)
	if err := f.SetColumn("macd", line); err != nil {
		return nil, err
	}
	if err := f.SetColumn("macd_signal", signal); err != nil {
		return nil, err
	}
	if err := f.SetColumn("macd_hist", hist); err != nil {
		return nil, err
	}
	if err := f.SetColumn("volume_ma", indicator.SMA(series.Volumes(), s.volumePeriod)); err != nil {
		return nil, err
	}
	return f, nil
}

// Entry implements Strategy. Both primary conditions must hold on the same
// bar; secondary confirmations only raise the score.
func (s *Confluence) Entry(f *market.Frame, i int) (Signal, bool) {
	rsi, ok := f.Value("rsi", i)
	if !ok || rsi >= s.rsiBelow {
		return Signal{}, false
	}
	line, ok := f.Value("macd", i)
	if !ok {
		return Signal{}, false
	}
	signal, ok := f.Value("macd_signal", i)
	if !ok || line <= signal {
		return Signal{}, false
	}

	strength := 60.0
	if hist, ok := f.Value("macd_hist", i); ok && hist > 0 {
		strength += 15
	}
	if volMA, ok := f.Value("volume_ma", i); ok && volMA > 0 && f.At(i).Volume > volMA {
		strength += 25
	}

	tag := TierStandard
	switch {
	case strength >= 100:
		tag = TierPrime
	case strength >= 75:
		tag = TierConfirmed
	}
	return Signal{Strength: strength, Tag: tag}, true
}

// Exit implements Strategy. Losing either primary condition ends the trade.
func (s *Confluence) Exit(f *market.Frame, i int, _ *position.Position) (string, bool) {
	if rsi, ok := f.Value("rsi", i); ok && rsi > s.rsiExitAbove {
		return "RSI Overbought", true
	}
	line, _ := f.Column("macd")
	signal, _ := f.Column("macd_signal")
	if indicator.Crossunder(line, signal, i) {
		return "Confluence Lost", true
	}
	return "", false
}
