// Package market holds the price history data model: a Bar is one day of
// OHLCV data, a Series is a symbol's chronological bar history, and a Frame
// is a Series augmented with named indicator columns aligned by bar index.
package market

import (
	"fmt"
	"time"
)

// Bar is a single day of price data for one symbol. Volume may be zero when
// the data source does not supply it.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is an immutable, strictly ascending bar history for one symbol.
type Series struct {
	symbol string
	bars   []Bar
	index  map[time.Time]int
}

// NewSeries validates and wraps a bar slice. Bars must be strictly ascending
// by date with no duplicates.
func NewSeries(symbol string, bars []Bar) (*Series, error) {
	if symbol == "" {
		return nil, fmt.Errorf("series symbol must not be empty")
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("series %s has no bars", symbol)
	}

	index := make(map[time.Time]int, len(bars))
	for i, b := range bars {
		if i > 0 && !b.Date.After(bars[i-1].Date) {
			return nil, fmt.Errorf("series %s: bar dates must be strictly ascending, got %s after %s",
				symbol, b.Date.Format(time.DateOnly), bars[i-1].Date.Format(time.DateOnly))
		}
		index[b.Date] = i
	}

	return &Series{symbol: symbol, bars: bars, index: index}, nil
}

// Symbol returns the symbol the series belongs to.
func (s *Series) Symbol() string { return s.symbol }

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.bars) }

// At returns the bar at index i.
func (s *Series) At(i int) Bar { return s.bars[i] }

// Index returns the bar index for the given date, and whether the date exists.
func (s *Series) Index(date time.Time) (int, bool) {
	i, ok := s.index[date]
	return i, ok
}

// Bar returns the bar for the given date, and whether the date exists.
func (s *Series) Bar(date time.Time) (Bar, bool) {
	i, ok := s.index[date]
	if !ok {
		return Bar{}, false
	}
	return s.bars[i], true
}

// Last returns the final bar of the series.
func (s *Series) Last() Bar { return s.bars[len(s.bars)-1] }

// Dates returns the bar dates in order.
func (s *Series) Dates() []time.Time {
	dates := make([]time.Time, len(s.bars))
	for i, b := range s.bars {
		dates[i] = b.Date
	}
	return dates
}

// Closes returns the close prices in order.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high prices in order.
func (s *Series) Highs() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the low prices in order.
func (s *Series) Lows() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the volumes in order.
func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Volume
	}
	return out
}
