// Copyright (c) 2024 Portfolio-Backtester
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package indicator

import (
	"math"

	"github.com/your-org/portfolio-backtester/pkg/rolling"
)

// TrueRange computes the per-bar true range: the largest of high-low,
// |high-prevClose| and |low-prevClose|. The first bar uses high-low.
func TrueRange(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		hl := highs[i] - lows[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR computes the average true range as a simple rolling mean of the true
// range over the period.
func ATR(highs, lows, closes []float64, period int) []float64 {
	return SMA(TrueRange(highs, lows, closes), period)
}

// RollingStd computes the population standard deviation over a trailing
// window.
func RollingStd(values []float64, period int) []float64 {
	out := NaNSlice(len(values))
	if period <= 0 || period > len(values) {
		return out
	}
	w := rolling.NewWindow(period)
	for i, v := range values {
		w.Push(v)
		if w.Full() {
			out[i] = w.Std()
		}
	}
	return out
}

// Bollinger computes the middle band (SMA), and upper/lower bands offset by
// k rolling standard deviations.
func Bollinger(closes []float64, period int, k float64) (middle, upper, lower []float64) {
	middle = SMA(closes, period)
	std := RollingStd(closes, period)
	upper = NaNSlice(len(closes))
	lower = NaNSlice(len(closes))
	for i := range closes {
		if math.IsNaN(middle[i]) || math.IsNaN(std[i]) {
			continue
		}
		upper[i] = middle[i] + k*std[i]
		lower[i] = middle[i] - k*std[i]
	}
	return middle, upper, lower
}
