// Package position owns the per-run portfolio state: open positions, the
// sizing rule for new entries, and the conversion of a closed position into
// an immutable trade record.
package position

import (
	"fmt"
	"time"
)

// Direction marks a position as long or short.
type Direction int

const (
	Long Direction = iota
	Short
)

// String returns the lowercase direction name.
func (d Direction) String() string {
	if d == Short {
		return "short"
	}
	return "long"
}

// Position is one open holding. It is owned exclusively by the ledger of a
// single backtest run and is mutated only through UpdateHighest.
type Position struct {
	Symbol          string
	EntryDate       time.Time
	EntryPrice      float64
	Quantity        int64
	CapitalInvested float64 // entry cost including transaction cost
	HighestPrice    float64
	Strength        float64
	Direction       Direction
	Tag             string
}

// UpdateHighest ratchets the highest observed price used by the trailing
// stop. It never moves down.
func (p *Position) UpdateHighest(price float64) {
	if price > p.HighestPrice {
		p.HighestPrice = price
	}
}

// MarkValue returns the mark-to-market value of the position at the given
// price. Shorts are valued as the invested capital plus the price move in
// their favor.
func (p *Position) MarkValue(price float64) float64 {
	qty := float64(p.Quantity)
	if p.Direction == Short {
		return p.CapitalInvested + (p.EntryPrice-price)*qty
	}
	return qty * price
}

// DaysHeld returns the calendar days between entry and the given date.
func (p *Position) DaysHeld(date time.Time) int {
	return int(date.Sub(p.EntryDate).Hours() / 24)
}

// Trade is the terminal snapshot of a closed position.
type Trade struct {
	Symbol     string
	EntryDate  time.Time
	ExitDate   time.Time
	EntryPrice float64
	ExitPrice  float64
	Quantity   int64
	Direction  Direction
	ExitReason string
	PnL        float64
	PnLPct     float64
	DaysHeld   int
	Strength   float64
	Tag        string
}

// String summarizes the trade for logs.
func (t Trade) String() string {
	return fmt.Sprintf("Trade{%s %s x%d %.2f -> %.2f (%s) PnL=%.2f}",
		t.Symbol, t.Direction, t.Quantity, t.EntryPrice, t.ExitPrice, t.ExitReason, t.PnL)
}
