package datastore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/your-org/portfolio-backtester/internal/market"
)

// InMemRepository is a map-backed BarSource used by tests and by runs that
// load their universe from CSV files instead of the database.
type InMemRepository struct {
	mu     sync.RWMutex
	series map[string]*market.Series
}

// NewInMemRepository creates an empty in-memory store.
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{series: make(map[string]*market.Series)}
}

// Seed adds or replaces a symbol's series.
func (r *InMemRepository) Seed(series *market.Series) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series[series.Symbol()] = series
}

// SeedUniverse adds every series in the map.
func (r *InMemRepository) SeedUniverse(universe map[string]*market.Series) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for symbol, s := range universe {
		r.series[symbol] = s
	}
}

// FetchSeries implements BarSource, slicing the stored series to the range.
func (r *InMemRepository) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (*market.Series, error) {
	r.mu.RLock()
	s, ok := r.series[symbol]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no bars stored for %s", symbol)
	}

	var bars []market.Bar
	for i := 0; i < s.Len(); i++ {
		b := s.At(i)
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		bars = append(bars, b)
	}
	return market.NewSeries(symbol, bars)
}

// FetchUniverse implements BarSource.
func (r *InMemRepository) FetchUniverse(ctx context.Context, symbols []string, start, end time.Time) (map[string]*market.Series, error) {
	universe := make(map[string]*market.Series, len(symbols))
	for _, symbol := range symbols {
		s, err := r.FetchSeries(ctx, symbol, start, end)
		if err != nil {
			return nil, err
		}
		universe[symbol] = s
	}
	return universe, nil
}

// ListSymbols implements BarSource.
func (r *InMemRepository) ListSymbols(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	symbols := make([]string, 0, len(r.series))
	for symbol := range r.series {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}

// Clear removes all stored series.
func (r *InMemRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series = make(map[string]*market.Series)
}
