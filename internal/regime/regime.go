// Package regime classifies market conditions from a benchmark series and
// gates entry scanning during bear markets.
package regime

import (
	"fmt"
	"time"

	"github.com/your-org/portfolio-backtester/internal/indicator"
	"github.com/your-org/portfolio-backtester/internal/market"
)

// Regime is a daily market classification.
type Regime int

const (
	Sideways Regime = iota
	Bull
	Bear
)

// String returns the lowercase regime name.
func (r Regime) String() string {
	switch r {
	case Bull:
		return "bull"
	case Bear:
		return "bear"
	default:
		return "sideways"
	}
}

const (
	colFastMA = "regime_ma_fast"
	colSlowMA = "regime_ma_slow"
)

// Filter classifies dates against a benchmark's trend moving averages:
// bull when close > fast MA > slow MA, bear when close < fast MA < slow MA,
// sideways otherwise. Dates in the moving-average warm-up window and dates
// the benchmark has no bar for read as sideways.
type Filter struct {
	frame *market.Frame
}

// NewFilter prepares a filter over the benchmark series with the given
// fast/slow moving-average periods.
func NewFilter(benchmark *market.Series, fastPeriod, slowPeriod int) (*Filter, error) {
	if benchmark == nil {
		return nil, fmt.Errorf("regime filter requires a benchmark series")
	}
	if fastPeriod <= 0 || slowPeriod <= fastPeriod {
		return nil, fmt.Errorf("regime filter periods invalid: fast=%d slow=%d", fastPeriod, slowPeriod)
	}

	frame := market.NewFrame(benchmark)
	closes := benchmark.Closes()
	if err := frame.SetColumn(colFastMA, indicator.SMA(closes, fastPeriod)); err != nil {
		return nil, err
	}
	if err := frame.SetColumn(colSlowMA, indicator.SMA(closes, slowPeriod)); err != nil {
		return nil, err
	}
	return &Filter{frame: frame}, nil
}

// Classify returns the regime for the given date.
func (f *Filter) Classify(date time.Time) Regime {
	i, ok := f.frame.Index(date)
	if !ok {
		return Sideways
	}
	fast, ok := f.frame.Value(colFastMA, i)
	if !ok {
		return Sideways
	}
	slow, ok := f.frame.Value(colSlowMA, i)
	if !ok {
		return Sideways
	}
	close := f.frame.At(i).Close

	switch {
	case close > fast && fast > slow:
		return Bull
	case close < fast && fast < slow:
		return Bear
	default:
		return Sideways
	}
}

// AllowEntries reports whether long entries may be scanned on the date.
// Only bear dates are blocked.
func (f *Filter) AllowEntries(date time.Time) bool {
	return f.Classify(date) != Bear
}
