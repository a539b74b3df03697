package dbwriter

import (
	"context"
	"sync"
)

// InMemWriter is an in-memory implementation of the DBWriter interface for
// testing.
type InMemWriter struct {
	mu           sync.RWMutex
	Trades       []TradeRecord
	EquityValues []EquityValue
	RunSummaries []RunSummary
	IsClosed     bool
}

// NewInMemWriter creates a new InMemWriter.
func NewInMemWriter() *InMemWriter {
	return &InMemWriter{
		Trades:       make([]TradeRecord, 0),
		EquityValues: make([]EquityValue, 0),
		RunSummaries: make([]RunSummary, 0),
	}
}

// SaveTrade appends a trade to the in-memory slice.
func (w *InMemWriter) SaveTrade(trade TradeRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Trades = append(w.Trades, trade)
}

// SaveEquityValue appends an equity point to the in-memory slice.
func (w *InMemWriter) SaveEquityValue(value EquityValue) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.EquityValues = append(w.EquityValues, value)
}

// SaveRunSummary appends a run summary to the in-memory slice.
func (w *InMemWriter) SaveRunSummary(ctx context.Context, summary RunSummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.RunSummaries = append(w.RunSummaries, summary)
	return nil
}

// Close marks the writer as closed.
func (w *InMemWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.IsClosed = true
}

// Clear resets all the in-memory slices.
func (w *InMemWriter) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Trades = make([]TradeRecord, 0)
	w.EquityValues = make([]EquityValue, 0)
	w.RunSummaries = make([]RunSummary, 0)
	w.IsClosed = false
}
