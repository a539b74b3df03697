// Package strategy defines the pluggable signal interface the backtest
// engine drives, a registry of named implementations, and the concrete
// entry/exit rule variants.
package strategy

import (
	"math"

	"github.com/your-org/portfolio-backtester/internal/market"
	"github.com/your-org/portfolio-backtester/internal/position"
)

// Signal is an entry candidate emitted by a strategy. Strength is only
// meaningful for ranking candidates of the same strategy on the same day;
// it is not comparable across strategies or dates.
type Signal struct {
	Strength float64
	Tag      string
}

// Strategy is one trading rule. Prepare derives the indicator columns the
// rule needs; Entry and Exit are evaluated per bar index by the engine.
// Implementations must be pure: no state may carry between calls, so one
// instance can serve many sequential runs.
type Strategy interface {
	Name() string

	// Prepare computes the indicator frame for a symbol's series.
	Prepare(s *market.Series) (*market.Frame, error)

	// Entry reports whether an entry signal fires at bar i. A false return
	// covers both "no signal" and "insufficient history".
	Entry(f *market.Frame, i int) (Signal, bool)

	// Exit reports a strategy-specific exit reason at bar i for an open
	// position, layered under the engine's stop/target/trailing/max-hold
	// rules.
	Exit(f *market.Frame, i int, pos *position.Position) (string, bool)
}

// Params carries a strategy's tunable parameters as a flat name->value map,
// the same shape the optimizer sweeps.
type Params map[string]float64

// Get returns the named parameter or the default when absent.
func (p Params) Get(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// GetInt returns the named parameter truncated to int, or the default.
func (p Params) GetInt(name string, def int) int {
	if v, ok := p[name]; ok {
		return int(math.Trunc(v))
	}
	return def
}
