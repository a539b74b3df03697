// Package rolling provides a fixed-capacity window over a float stream
// with cheap aggregate queries, backed by a circular buffer.
package rolling

import "math"

// Window holds the most recent values in a circular buffer.
type Window struct {
	values []float64
	size   int
	head   int // next write slot
	count  int // number of elements currently held
	sum    float64
}

// NewWindow creates a Window with the given capacity.
func NewWindow(size int) *Window {
	if size <= 0 {
		panic("rolling window size must be positive")
	}
	return &Window{
		values: make([]float64, size),
		size:   size,
	}
}

// Push appends a value, evicting the oldest one when the window is full.
func (w *Window) Push(v float64) {
	if w.count == w.size {
		w.sum -= w.values[w.head]
	} else {
		w.count++
	}
	w.values[w.head] = v
	w.sum += v
	w.head = (w.head + 1) % w.size
}

// Count returns the number of values currently held.
func (w *Window) Count() int { return w.count }

// Full reports whether the window has reached its capacity.
func (w *Window) Full() bool { return w.count == w.size }

// Sum returns the sum of the held values.
func (w *Window) Sum() float64 { return w.sum }

// Mean returns the arithmetic mean of the held values, or 0 when empty.
func (w *Window) Mean() float64 {
	if w.count == 0 {
		return 0
	}
	return w.sum / float64(w.count)
}

// Max returns the largest held value, or 0 when empty.
func (w *Window) Max() float64 {
	if w.count == 0 {
		return 0
	}
	max := math.Inf(-1)
	for _, v := range w.ordered() {
		if v > max {
			max = v
		}
	}
	return max
}

// Min returns the smallest held value, or 0 when empty.
func (w *Window) Min() float64 {
	if w.count == 0 {
		return 0
	}
	min := math.Inf(1)
	for _, v := range w.ordered() {
		if v < min {
			min = v
		}
	}
	return min
}

// Std returns the population standard deviation of the held values.
func (w *Window) Std() float64 {
	if w.count == 0 {
		return 0
	}
	mean := w.Mean()
	variance := 0.0
	for _, v := range w.ordered() {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(w.count))
}

// Values returns the held values in insertion order, oldest first.
func (w *Window) Values() []float64 {
	return append([]float64(nil), w.ordered()...)
}

// ordered returns the populated values oldest first. When the buffer has not
// wrapped the backing slice can be used directly.
func (w *Window) ordered() []float64 {
	if w.count < w.size {
		return w.values[:w.count]
	}
	if w.head == 0 {
		return w.values
	}
	out := make([]float64, w.size)
	copied := copy(out, w.values[w.head:])
	copy(out[copied:], w.values[:w.head])
	return out
}
