package market

import (
	"fmt"
	"math"
)

// Frame is a Series plus named indicator columns aligned by bar index.
// Columns use NaN for warm-up rows where the indicator has insufficient
// history. A Frame is read-only once a backtest run starts.
type Frame struct {
	*Series
	columns map[string][]float64
}

// NewFrame wraps a series with an empty column set.
func NewFrame(s *Series) *Frame {
	return &Frame{Series: s, columns: make(map[string][]float64)}
}

// SetColumn attaches a derived column. The column length must match the
// series length.
func (f *Frame) SetColumn(name string, values []float64) error {
	if len(values) != f.Len() {
		return fmt.Errorf("column %s has %d values, series has %d bars", name, len(values), f.Len())
	}
	f.columns[name] = values
	return nil
}

// Column returns the named column and whether it exists.
func (f *Frame) Column(name string) ([]float64, bool) {
	col, ok := f.columns[name]
	return col, ok
}

// Value returns the named column's value at index i. The second return is
// false when the column is missing or the value is still in its warm-up
// window (NaN).
func (f *Frame) Value(name string, i int) (float64, bool) {
	col, ok := f.columns[name]
	if !ok || i < 0 || i >= len(col) {
		return 0, false
	}
	v := col[i]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Columns returns the names of all attached columns.
func (f *Frame) Columns() []string {
	names := make([]string, 0, len(f.columns))
	for name := range f.columns {
		names = append(names, name)
	}
	return names
}
