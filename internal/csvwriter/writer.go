// Package csvwriter exports run artifacts (trade lists and equity curves)
// to CSV files.
package csvwriter

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/portfolio-backtester/internal/engine"
	"github.com/your-org/portfolio-backtester/internal/position"
)

// Writer is a simple CSV writer.
type Writer struct {
	file   *os.File
	writer *csv.Writer
	logger *zap.Logger
	mu     sync.Mutex
}

// NewWriter creates a new CSV writer.
func NewWriter(filePath string, logger *zap.Logger) (*Writer, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}

	return &Writer{
		file:   file,
		writer: csv.NewWriter(file),
		logger: logger,
	}, nil
}

// Write writes a record to the CSV file.
func (w *Writer) Write(record []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record to CSV: %w", err)
	}
	return nil
}

// Flush flushes any buffered data to the underlying file.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writer.Flush()
}

// Close closes the file.
func (w *Writer) Close() error {
	w.Flush()
	return w.file.Close()
}

// WriteTrades writes the trade list with a header row.
func (w *Writer) WriteTrades(trades []position.Trade) error {
	header := []string{"symbol", "direction", "entry_date", "exit_date", "entry_price", "exit_price",
		"quantity", "pnl", "pnl_pct", "days_held", "exit_reason", "strength", "tag"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, t := range trades {
		record := []string{
			t.Symbol,
			t.Direction.String(),
			t.EntryDate.Format(time.DateOnly),
			t.ExitDate.Format(time.DateOnly),
			formatFloat(t.EntryPrice),
			formatFloat(t.ExitPrice),
			strconv.FormatInt(t.Quantity, 10),
			formatFloat(t.PnL),
			formatFloat(t.PnLPct),
			strconv.Itoa(t.DaysHeld),
			t.ExitReason,
			formatFloat(t.Strength),
			t.Tag,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.logger.Info("Wrote trades CSV", zap.Int("count", len(trades)))
	return nil
}

// WriteEquity writes the daily equity curve with a header row.
func (w *Writer) WriteEquity(equity []engine.EquityPoint) error {
	if err := w.Write([]string{"date", "value"}); err != nil {
		return err
	}
	for _, p := range equity {
		if err := w.Write([]string{p.Date.Format(time.DateOnly), formatFloat(p.Value)}); err != nil {
			return err
		}
	}
	w.logger.Info("Wrote equity CSV", zap.Int("count", len(equity)))
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
