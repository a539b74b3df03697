package datastore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/portfolio-backtester/internal/market"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeriesFromCSV(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "acme.csv",
		"Date,Open,High,Low,Close,Volume\n"+
			"2024-01-02,100,102,99,101,5000\n"+
			"2024-01-03,101,104,100,103,6200\n")

	s, err := LoadSeriesFromCSV(path, "ACME")
	require.NoError(t, err)

	want := []market.Bar{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 100, High: 102, Low: 99, Close: 101, Volume: 5000},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 101, High: 104, Low: 100, Close: 103, Volume: 6200},
	}
	got := []market.Bar{s.At(0), s.At(1)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bars mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "ACME", s.Symbol())
}

func TestLoadSeriesSkipsMalformedRows(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "acme.csv",
		"Date,Open,High,Low,Close\n"+
			"not-a-date,1,2,3,4\n"+
			"2024-01-02,100,102,99,abc\n"+
			"2024-01-03,101,104,100,103\n")

	s, err := LoadSeriesFromCSV(path, "ACME")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len(), "only the clean row survives")
}

func TestLoadSeriesWithoutVolume(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "acme.csv",
		"Date,Open,High,Low,Close\n"+
			"2024-01-02,100,102,99,101\n")

	s, err := LoadSeriesFromCSV(path, "ACME")
	require.NoError(t, err)
	assert.Zero(t, s.At(0).Volume)
}

func TestLoadSeriesEmptyFile(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "empty.csv", "")
	_, err := LoadSeriesFromCSV(path, "ACME")
	assert.Error(t, err)
}

func TestLoadUniverseFromDir(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "acme.csv", "Date,Open,High,Low,Close\n2024-01-02,1,1,1,1\n")
	writeCSV(t, dir, "beta.csv", "Date,Open,High,Low,Close\n2024-01-02,2,2,2,2\n")
	writeCSV(t, dir, "notes.txt", "ignored")
	writeCSV(t, dir, "broken.csv", "Date,Open,High,Low,Close\nnope\n")

	universe, err := LoadUniverseFromDir(dir)
	require.NoError(t, err)

	assert.Len(t, universe, 2)
	assert.Contains(t, universe, "ACME")
	assert.Contains(t, universe, "BETA")
}

func TestLoadUniverseEmptyDir(t *testing.T) {
	_, err := LoadUniverseFromDir(t.TempDir())
	assert.Error(t, err)
}

func TestInMemRepository(t *testing.T) {
	repo := NewInMemRepository()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, 5)
	for i := range bars {
		bars[i] = market.Bar{Date: start.AddDate(0, 0, i), Open: 1, High: 1, Low: 1, Close: float64(i + 1)}
	}
	s, err := market.NewSeries("ACME", bars)
	require.NoError(t, err)
	repo.Seed(s)

	ctx := context.Background()

	got, err := repo.FetchSeries(ctx, "ACME", start.AddDate(0, 0, 1), start.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, got.Len(), "range boundaries are inclusive")

	_, err = repo.FetchSeries(ctx, "MISSING", start, start)
	assert.Error(t, err)

	symbols, err := repo.ListSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME"}, symbols)

	universe, err := repo.FetchUniverse(ctx, []string{"ACME"}, start, start.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Len(t, universe, 1)

	repo.Clear()
	symbols, err = repo.ListSymbols(ctx)
	require.NoError(t, err)
	assert.Empty(t, symbols)
}
