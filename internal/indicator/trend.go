// Package indicator implements the derived price columns used by the signal
// strategies. All functions are pure: they take aligned value slices and
// return slices of the same length, with NaN filling the warm-up window
// where the lookback exceeds the available history.
package indicator

import (
	"math"

	"github.com/your-org/portfolio-backtester/pkg/rolling"
)

// NaNSlice returns a slice of n NaN values.
func NaNSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA computes a simple moving average over the given period.
func SMA(values []float64, period int) []float64 {
	out := NaNSlice(len(values))
	if period <= 0 || period > len(values) {
		return out
	}
	w := rolling.NewWindow(period)
	for i, v := range values {
		w.Push(v)
		if w.Full() {
			out[i] = w.Mean()
		}
	}
	return out
}

// EMA computes an exponential moving average seeded with the simple average
// of the first period values.
func EMA(values []float64, period int) []float64 {
	out := NaNSlice(len(values))
	if period <= 0 || period > len(values) {
		return out
	}

	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)
	out[period-1] = seed

	k := 2.0 / (float64(period) + 1.0)
	prev := seed
	for i := period; i < len(values); i++ {
		prev = prev + k*(values[i]-prev)
		out[i] = prev
	}
	return out
}

// MACD computes the moving average convergence divergence line, its signal
// line and the histogram (line minus signal).
func MACD(closes []float64, fast, slow, signal int) (line, signalLine, histogram []float64) {
	n := len(closes)
	line = NaNSlice(n)
	signalLine = NaNSlice(n)
	histogram = NaNSlice(n)
	if fast <= 0 || slow <= fast || signal <= 0 || slow > n {
		return line, signalLine, histogram
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	for i := slow - 1; i < n; i++ {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	// The signal line is an EMA over the valid region of the MACD line.
	offset := slow - 1
	sig := EMA(line[offset:], signal)
	for i, v := range sig {
		signalLine[offset+i] = v
		if !math.IsNaN(v) {
			histogram[offset+i] = line[offset+i] - v
		}
	}
	return line, signalLine, histogram
}

// RollingMax computes the maximum over a trailing window.
func RollingMax(values []float64, period int) []float64 {
	out := NaNSlice(len(values))
	if period <= 0 || period > len(values) {
		return out
	}
	w := rolling.NewWindow(period)
	for i, v := range values {
		w.Push(v)
		if w.Full() {
			out[i] = w.Max()
		}
	}
	return out
}

// RollingMin computes the minimum over a trailing window.
func RollingMin(values []float64, period int) []float64 {
	out := NaNSlice(len(values))
	if period <= 0 || period > len(values) {
		return out
	}
	w := rolling.NewWindow(period)
	for i, v := range values {
		w.Push(v)
		if w.Full() {
			out[i] = w.Min()
		}
	}
	return out
}
