package indicator

import (
	"math"

	"github.com/your-org/portfolio-backtester/pkg/rolling"
)

// RSI computes the relative strength index using rolling means of gains and
// losses over the period. A period with no losses reads 100, no gains reads 0.
func RSI(closes []float64, period int) []float64 {
	out := NaNSlice(len(closes))
	if period <= 0 || period >= len(closes) {
		return out
	}

	gains := rolling.NewWindow(period)
	losses := rolling.NewWindow(period)
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains.Push(delta)
			losses.Push(0)
		} else {
			gains.Push(0)
			losses.Push(-delta)
		}
		if !gains.Full() {
			continue
		}
		avgGain := gains.Mean()
		avgLoss := losses.Mean()
		if avgLoss == 0 {
			if avgGain == 0 {
				out[i] = 50
			} else {
				out[i] = 100
			}
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// ROC computes the rate of change in percent against the close period bars
// back.
func ROC(closes []float64, period int) []float64 {
	out := NaNSlice(len(closes))
	if period <= 0 || period >= len(closes) {
		return out
	}
	for i := period; i < len(closes); i++ {
		base := closes[i-period]
		if base == 0 {
			continue
		}
		out[i] = (closes[i] - base) / base * 100
	}
	return out
}

// Crossover reports whether series a crossed above series b at index i, i.e.
// a was at or below b on the previous bar and is strictly above it now.
// Returns false when any involved value is NaN or i is the first bar.
func Crossover(a, b []float64, i int) bool {
	if i <= 0 || i >= len(a) || i >= len(b) {
		return false
	}
	if math.IsNaN(a[i]) || math.IsNaN(b[i]) || math.IsNaN(a[i-1]) || math.IsNaN(b[i-1]) {
		return false
	}
	return a[i-1] <= b[i-1] && a[i] > b[i]
}

// Crossunder reports whether series a crossed below series b at index i.
func Crossunder(a, b []float64, i int) bool {
	if i <= 0 || i >= len(a) || i >= len(b) {
		return false
	}
	if math.IsNaN(a[i]) || math.IsNaN(b[i]) || math.IsNaN(a[i-1]) || math.IsNaN(b[i-1]) {
		return false
	}
	return a[i-1] >= b[i-1] && a[i] < b[i]
}
