package position

import (
	"fmt"
	"time"
)

// Ledger tracks the open positions of one backtest run. At most one position
// may be open per symbol. Iteration order is insertion order, which keeps
// exit evaluation deterministic.
type Ledger struct {
	open  map[string]*Position
	order []string
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{open: make(map[string]*Position)}
}

// Open registers a new position. Opening a second position on the same
// symbol is an error.
func (l *Ledger) Open(p *Position) error {
	if p.Quantity <= 0 {
		return fmt.Errorf("position %s: quantity must be positive, got %d", p.Symbol, p.Quantity)
	}
	if _, exists := l.open[p.Symbol]; exists {
		return fmt.Errorf("position already open for %s", p.Symbol)
	}
	l.open[p.Symbol] = p
	l.order = append(l.order, p.Symbol)
	return nil
}

// Has reports whether a position is open for the symbol.
func (l *Ledger) Has(symbol string) bool {
	_, ok := l.open[symbol]
	return ok
}

// Get returns the open position for the symbol.
func (l *Ledger) Get(symbol string) (*Position, bool) {
	p, ok := l.open[symbol]
	return p, ok
}

// Count returns the number of open positions.
func (l *Ledger) Count() int { return len(l.open) }

// Symbols returns the open symbols in insertion order.
func (l *Ledger) Symbols() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Close converts the open position into a Trade at the given exit price and
// removes it from the ledger. It returns the trade and the cash proceeds to
// credit back to the portfolio.
func (l *Ledger) Close(symbol string, exitDate time.Time, exitPrice float64, reason string, txnCostPct float64) (Trade, float64, error) {
	p, ok := l.open[symbol]
	if !ok {
		return Trade{}, 0, fmt.Errorf("no open position for %s", symbol)
	}
	delete(l.open, symbol)
	for i, sym := range l.order {
		if sym == symbol {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}

	var pnl, proceeds float64
	if p.Direction == Short {
		exitCost := float64(p.Quantity) * exitPrice * txnCostPct / 100
		pnl = (p.EntryPrice-exitPrice)*float64(p.Quantity) - exitCost
		proceeds = p.CapitalInvested + pnl
	} else {
		proceeds = ExitProceeds(p.Quantity, exitPrice, txnCostPct)
		pnl = proceeds - p.CapitalInvested
	}

	pnlPct := 0.0
	if p.CapitalInvested > 0 {
		pnlPct = pnl / p.CapitalInvested * 100
	}

	return Trade{
		Symbol:     p.Symbol,
		EntryDate:  p.EntryDate,
		ExitDate:   exitDate,
		EntryPrice: p.EntryPrice,
		ExitPrice:  exitPrice,
		Quantity:   p.Quantity,
		Direction:  p.Direction,
		ExitReason: reason,
		PnL:        pnl,
		PnLPct:     pnlPct,
		DaysHeld:   p.DaysHeld(exitDate),
		Strength:   p.Strength,
		Tag:        p.Tag,
	}, proceeds, nil
}
