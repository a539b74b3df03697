package datastore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/portfolio-backtester/internal/market"
	"github.com/your-org/portfolio-backtester/pkg/logger"
)

// LoadSeriesFromCSV reads a daily bar history from a CSV file with a header
// row and the columns Date,Open,High,Low,Close and an optional Volume. Rows
// that fail to parse are skipped with a warning; ordering is validated by
// the series constructor.
func LoadSeriesFromCSV(path, symbol string) (*market.Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("csv file %s is empty", path)
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var bars []market.Bar
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}
		if len(record) < 5 {
			logger.Warnf("Skipping record in %s: expected at least 5 columns, got %d", path, len(record))
			continue
		}

		date, err := parseDate(record[0])
		if err != nil {
			logger.Warnf("Skipping record in %s: %v", path, err)
			continue
		}
		fields := make([]float64, 4)
		bad := false
		for i := 0; i < 4; i++ {
			fields[i], err = strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				logger.Warnf("Skipping record in %s: bad price %q", path, record[i+1])
				bad = true
				break
			}
		}
		if bad {
			continue
		}
		bar := market.Bar{Date: date, Open: fields[0], High: fields[1], Low: fields[2], Close: fields[3]}
		if len(record) > 5 && record[5] != "" {
			if v, err := strconv.ParseFloat(record[5], 64); err == nil {
				bar.Volume = v
			}
		}
		bars = append(bars, bar)
	}

	return market.NewSeries(symbol, bars)
}

// LoadUniverseFromDir loads every .csv file in the directory as one symbol,
// named after the file. Files that fail to load are skipped with a warning;
// an empty directory is an error.
func LoadUniverseFromDir(dir string) (map[string]*market.Series, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data dir: %w", err)
	}

	universe := make(map[string]*market.Series)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		series, err := LoadSeriesFromCSV(filepath.Join(dir, entry.Name()), symbol)
		if err != nil {
			logger.Warnf("Skipping %s: %v", entry.Name(), err)
			continue
		}
		universe[symbol] = series
	}
	if len(universe) == 0 {
		return nil, fmt.Errorf("no usable csv files in %s", dir)
	}
	logger.Infof("Loaded %d symbols from %s", len(universe), dir)
	return universe, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		// Fallback for exports that carry a timestamp.
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("could not parse date %q with any known format", s)
		}
		t = t.UTC().Truncate(24 * time.Hour)
	}
	return t, nil
}
