package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(time.DateOnly, s)
	require.NoError(t, err)
	return d
}

func TestQuantity(t *testing.T) {
	tests := []struct {
		name       string
		cash       float64
		slotCap    float64
		price      float64
		txnCostPct float64
		want       int64
	}{
		{"simple", 100000, 100000, 100, 0, 1000},
		{"slot cap binds", 100000, 25000, 100, 0, 250},
		{"cash binds", 10000, 25000, 100, 0, 100},
		{"cost shrinks quantity", 100000, 100000, 100, 1.0, 990},
		{"price above budget", 500, 500, 1000, 0, 0},
		{"zero cash", 0, 25000, 100, 0, 0},
		{"zero price", 10000, 10000, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Quantity(tt.cash, tt.slotCap, tt.price, tt.txnCostPct))
		})
	}
}

func TestQuantity_CostNeverExceedsCash(t *testing.T) {
	for _, cost := range []float64{0, 0.1, 0.5, 1.0, 2.5} {
		cash := 33333.0
		qty := Quantity(cash, cash, 77.7, cost)
		total := EntryCost(qty, 77.7, cost)
		assert.LessOrEqual(t, total, cash, "txn cost %.2f%%", cost)
	}
}

func TestPosition_UpdateHighest(t *testing.T) {
	p := &Position{Symbol: "ACME", EntryPrice: 100, HighestPrice: 100}
	p.UpdateHighest(105)
	assert.Equal(t, 105.0, p.HighestPrice)
	p.UpdateHighest(99)
	assert.Equal(t, 105.0, p.HighestPrice, "highest price never moves down")
}

func TestPosition_MarkValue(t *testing.T) {
	long := &Position{Quantity: 10, EntryPrice: 100, CapitalInvested: 1000, Direction: Long}
	assert.InDelta(t, 1100.0, long.MarkValue(110), 1e-9)

	short := &Position{Quantity: 10, EntryPrice: 100, CapitalInvested: 1000, Direction: Short}
	assert.InDelta(t, 1100.0, short.MarkValue(90), 1e-9)
	assert.InDelta(t, 900.0, short.MarkValue(110), 1e-9)
}

func TestLedger_OpenCloseLifecycle(t *testing.T) {
	l := NewLedger()
	entry := date(t, "2024-03-01")
	exit := date(t, "2024-03-11")

	require.NoError(t, l.Open(&Position{
		Symbol:          "ACME",
		EntryDate:       entry,
		EntryPrice:      100,
		Quantity:        1000,
		CapitalInvested: 100000,
		HighestPrice:    100,
	}))
	assert.True(t, l.Has("ACME"))
	assert.Equal(t, 1, l.Count())

	err := l.Open(&Position{Symbol: "ACME", Quantity: 1})
	assert.Error(t, err, "one open position per symbol")

	trade, proceeds, err := l.Close("ACME", exit, 90, "Stop Loss", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, l.Count())
	assert.InDelta(t, 90000.0, proceeds, 1e-9)
	assert.InDelta(t, -10000.0, trade.PnL, 1e-9)
	assert.InDelta(t, -10.0, trade.PnLPct, 1e-9)
	assert.Equal(t, 10, trade.DaysHeld)
	assert.Equal(t, "Stop Loss", trade.ExitReason)
	assert.True(t, trade.ExitDate.After(trade.EntryDate))
	assert.Equal(t, int64(1000), trade.Quantity)
}

func TestLedger_CloseUnknownSymbol(t *testing.T) {
	l := NewLedger()
	_, _, err := l.Close("NOPE", date(t, "2024-01-02"), 1, "Stop Loss", 0)
	assert.Error(t, err)
}

func TestLedger_RejectsZeroQuantity(t *testing.T) {
	l := NewLedger()
	assert.Error(t, l.Open(&Position{Symbol: "ACME", Quantity: 0}))
}

func TestLedger_SymbolsInsertionOrder(t *testing.T) {
	l := NewLedger()
	for _, sym := range []string{"CHARLIE", "ALPHA", "BRAVO"} {
		require.NoError(t, l.Open(&Position{Symbol: sym, Quantity: 1}))
	}
	assert.Equal(t, []string{"CHARLIE", "ALPHA", "BRAVO"}, l.Symbols())

	_, _, err := l.Close("ALPHA", date(t, "2024-01-02"), 1, "Take Profit", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"CHARLIE", "BRAVO"}, l.Symbols())
}

func TestLedger_ReopenAfterClose(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Open(&Position{Symbol: "ACME", Quantity: 10, EntryPrice: 100, CapitalInvested: 1000}))
	_, _, err := l.Close("ACME", date(t, "2024-01-05"), 90, "Stop Loss", 0)
	require.NoError(t, err)

	require.NoError(t, l.Open(&Position{Symbol: "ACME", Quantity: 5, EntryPrice: 80, CapitalInvested: 400}))
	assert.Equal(t, []string{"ACME"}, l.Symbols(), "a reopened symbol is listed once")
	assert.Equal(t, 1, l.Count())

	trade, _, err := l.Close("ACME", date(t, "2024-01-09"), 88, "Take Profit", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), trade.Quantity, "close settles the reopened position")

	_, _, err = l.Close("ACME", date(t, "2024-01-09"), 88, "Take Profit", 0)
	assert.Error(t, err, "nothing left to close")
	assert.Empty(t, l.Symbols())
}
