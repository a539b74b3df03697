package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/your-org/portfolio-backtester/internal/market"
)

// BarSource supplies price histories to the engine and the CLIs. It is
// implemented by the database repository and the in-memory store.
type BarSource interface {
	FetchSeries(ctx context.Context, symbol string, start, end time.Time) (*market.Series, error)
	FetchUniverse(ctx context.Context, symbols []string, start, end time.Time) (map[string]*market.Series, error)
	ListSymbols(ctx context.Context) ([]string, error)
}

// Repository reads and writes daily bars in the database.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// FetchSeries loads one symbol's bars inside [start, end].
func (r *Repository) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (*market.Series, error) {
	query := `
        SELECT day, open, high, low, close, volume
        FROM daily_bars
        WHERE symbol = $1 AND day >= $2 AND day <= $3
        ORDER BY day ASC;
    `
	rows, err := r.db.Query(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []market.Bar
	for rows.Next() {
		var day time.Time
		var open, high, low, closePx, volume decimal.Decimal
		if err := rows.Scan(&day, &open, &high, &low, &closePx, &volume); err != nil {
			return nil, err
		}
		bars = append(bars, market.Bar{
			Date:   day.UTC(),
			Open:   open.InexactFloat64(),
			High:   high.InexactFloat64(),
			Low:    low.InexactFloat64(),
			Close:  closePx.InexactFloat64(),
			Volume: volume.InexactFloat64(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return market.NewSeries(symbol, bars)
}

// FetchUniverse loads every requested symbol. A symbol with no bars in the
// range is an error; callers filter their symbol list beforehand.
func (r *Repository) FetchUniverse(ctx context.Context, symbols []string, start, end time.Time) (map[string]*market.Series, error) {
	universe := make(map[string]*market.Series, len(symbols))
	for _, symbol := range symbols {
		series, err := r.FetchSeries(ctx, symbol, start, end)
		if err != nil {
			return nil, err
		}
		universe[symbol] = series
	}
	return universe, nil
}

// ListSymbols returns the distinct symbols present in the bar table.
func (r *Repository) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT symbol FROM daily_bars ORDER BY symbol;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// SaveBars bulk-inserts a symbol's bars with COPY. Existing rows for the
// same symbol and day must be cleared first; ingestion is append-only.
func (r *Repository) SaveBars(ctx context.Context, symbol string, bars []market.Bar) (int64, error) {
	rows := make([][]any, len(bars))
	for i, b := range bars {
		rows[i] = []any{
			symbol,
			b.Date,
			decimal.NewFromFloat(b.Open),
			decimal.NewFromFloat(b.High),
			decimal.NewFromFloat(b.Low),
			decimal.NewFromFloat(b.Close),
			decimal.NewFromFloat(b.Volume),
		}
	}
	n, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"daily_bars"},
		[]string{"symbol", "day", "open", "high", "low", "close", "volume"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy bars for %s: %w", symbol, err)
	}
	return n, nil
}
