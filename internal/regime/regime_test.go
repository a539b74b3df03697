package regime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/portfolio-backtester/internal/market"
)

func benchmarkSeries(t *testing.T, closes []float64) *market.Series {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	s, err := market.NewSeries("INDEX", bars)
	require.NoError(t, err)
	return s
}

func TestNewFilter_Validation(t *testing.T) {
	s := benchmarkSeries(t, []float64{1, 2, 3})

	_, err := NewFilter(nil, 2, 4)
	assert.Error(t, err)

	_, err = NewFilter(s, 4, 2)
	assert.Error(t, err, "fast period must be below slow period")

	_, err = NewFilter(s, 0, 2)
	assert.Error(t, err)
}

func TestFilter_Classify(t *testing.T) {
	// Rising closes: price above both MAs and fast above slow.
	up := []float64{10, 11, 12, 13, 14, 15, 16, 17}
	f, err := NewFilter(benchmarkSeries(t, up), 2, 4)
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Sideways, f.Classify(start), "warm-up reads sideways")
	assert.Equal(t, Bull, f.Classify(start.AddDate(0, 0, 7)))
	assert.True(t, f.AllowEntries(start.AddDate(0, 0, 7)))

	// Falling closes: price below both MAs and fast below slow.
	down := []float64{17, 16, 15, 14, 13, 12, 11, 10}
	f, err = NewFilter(benchmarkSeries(t, down), 2, 4)
	require.NoError(t, err)
	assert.Equal(t, Bear, f.Classify(start.AddDate(0, 0, 7)))
	assert.False(t, f.AllowEntries(start.AddDate(0, 0, 7)))

	// Flat closes: no ordering, sideways.
	flat := []float64{10, 10, 10, 10, 10, 10}
	f, err = NewFilter(benchmarkSeries(t, flat), 2, 4)
	require.NoError(t, err)
	assert.Equal(t, Sideways, f.Classify(start.AddDate(0, 0, 5)))
	assert.True(t, f.AllowEntries(start.AddDate(0, 0, 5)))
}

func TestFilter_MissingDateIsSideways(t *testing.T) {
	f, err := NewFilter(benchmarkSeries(t, []float64{10, 11, 12, 13, 14}), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, Sideways, f.Classify(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}
