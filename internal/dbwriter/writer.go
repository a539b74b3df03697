// Package dbwriter persists backtest results to TimescaleDB: trades and
// equity points are buffered and flushed in batches with COPY, run
// summaries are written row-at-a-time.
package dbwriter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/your-org/portfolio-backtester/internal/config"
)

// TradeRecord is one closed trade as stored in the database.
type TradeRecord struct {
	RunID      uuid.UUID `db:"run_id"`
	Symbol     string    `db:"symbol"`
	Direction  string    `db:"direction"`
	EntryDate  time.Time `db:"entry_date"`
	ExitDate   time.Time `db:"exit_date"`
	EntryPrice float64   `db:"entry_price"`
	ExitPrice  float64   `db:"exit_price"`
	Quantity   int64     `db:"quantity"`
	PnL        float64   `db:"pnl"`
	PnLPct     float64   `db:"pnl_pct"`
	DaysHeld   int       `db:"days_held"`
	ExitReason string    `db:"exit_reason"`
	Strength   float64   `db:"strength"`
	Tag        string    `db:"tag"`
}

// EquityValue is one day of a run's equity curve.
type EquityValue struct {
	RunID uuid.UUID `db:"run_id"`
	Day   time.Time `db:"day"`
	Value float64   `db:"value"`
}

// RunSummary is the headline row for one completed run.
type RunSummary struct {
	RunID          uuid.UUID `db:"run_id"`
	Strategy       string    `db:"strategy"`
	StartDate      time.Time `db:"start_date"`
	EndDate        time.Time `db:"end_date"`
	InitialCapital float64   `db:"initial_capital"`
	FinalCapital   float64   `db:"final_capital"`
	TotalReturnPct float64   `db:"total_return_pct"`
	MaxDrawdownPct float64   `db:"max_drawdown_pct"`
	SharpeRatio    float64   `db:"sharpe_ratio"`
	SortinoRatio   float64   `db:"sortino_ratio"`
	WinRate        float64   `db:"win_rate"`
	TotalTrades    int       `db:"total_trades"`
	ProfitFactor   float64   `db:"profit_factor"`
}

// Pool is an interface that abstracts the pgxpool.Pool for testability.
type Pool interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Close()
}

// TimescaleWriter buffers results and writes them to TimescaleDB. A nil
// pool yields a writer that drops everything, which keeps runs without a
// database trivially working.
type TimescaleWriter struct {
	pool         Pool
	logger       *zap.Logger
	config       config.DBWriterConfig
	tradeBuffer  []TradeRecord
	equityBuffer []EquityValue
	bufferMutex  sync.Mutex
	flushTicker  *time.Ticker
	shutdownChan chan struct{}
}

// NewTimescaleWriter creates a writer over an externally provided pool.
func NewTimescaleWriter(pool Pool, writerConfig config.DBWriterConfig, logger *zap.Logger) (DBWriter, error) {
	if pool == nil {
		logger.Info("pgxpool.Pool is nil, creating no-op DB writer.")
		return &TimescaleWriter{
			pool:         nil,
			logger:       logger,
			shutdownChan: make(chan struct{}),
		}, nil
	}

	if writerConfig.WriteIntervalSeconds <= 0 {
		logger.Warn("WriteIntervalSeconds is zero or negative, defaulting to 1s.",
			zap.Int("originalValue", writerConfig.WriteIntervalSeconds))
		writerConfig.WriteIntervalSeconds = 1
	}
	if writerConfig.BatchSize <= 0 {
		logger.Warn("BatchSize is zero or negative, defaulting to 100.",
			zap.Int("originalValue", writerConfig.BatchSize))
		writerConfig.BatchSize = 100
	}

	writer := &TimescaleWriter{
		pool:         pool,
		logger:       logger,
		config:       writerConfig,
		tradeBuffer:  make([]TradeRecord, 0, writerConfig.BatchSize),
		equityBuffer: make([]EquityValue, 0, writerConfig.BatchSize),
		shutdownChan: make(chan struct{}),
	}
	writer.flushTicker = time.NewTicker(time.Duration(writerConfig.WriteIntervalSeconds) * time.Second)
	go writer.run()
	logger.Info("Connected to TimescaleDB and started batch writer")
	return writer, nil
}

// Close flushes the buffers and releases the pool.
func (w *TimescaleWriter) Close() {
	if w.pool == nil {
		w.logger.Info("Closing no-op DB writer.")
		return
	}

	w.logger.Info("Closing TimescaleDB writer...")
	close(w.shutdownChan)
	w.flushTicker.Stop()
	w.flushBuffers()
	w.pool.Close()
	w.logger.Info("TimescaleDB connection pool closed")
}

func (w *TimescaleWriter) run() {
	for {
		select {
		case <-w.flushTicker.C:
			w.flushBuffers()
		case <-w.shutdownChan:
			return
		}
	}
}

// SaveTrade adds a trade to the batch buffer.
func (w *TimescaleWriter) SaveTrade(trade TradeRecord) {
	if w.pool == nil {
		return
	}

	w.bufferMutex.Lock()
	w.tradeBuffer = append(w.tradeBuffer, trade)
	shouldFlush := len(w.tradeBuffer) >= w.config.BatchSize
	w.bufferMutex.Unlock()

	if shouldFlush {
		w.flushBuffers()
	}
}

// SaveEquityValue adds an equity point to the batch buffer.
func (w *TimescaleWriter) SaveEquityValue(value EquityValue) {
	if w.pool == nil {
		return
	}

	w.bufferMutex.Lock()
	w.equityBuffer = append(w.equityBuffer, value)
	shouldFlush := len(w.equityBuffer) >= w.config.BatchSize
	w.bufferMutex.Unlock()

	if shouldFlush {
		w.flushBuffers()
	}
}

func (w *TimescaleWriter) flushBuffers() {
	if w.pool == nil {
		return
	}
	w.bufferMutex.Lock()
	defer w.bufferMutex.Unlock()

	if len(w.tradeBuffer) > 0 {
		w.batchInsertTrades(context.Background(), w.tradeBuffer)
		w.tradeBuffer = w.tradeBuffer[:0]
	}
	if len(w.equityBuffer) > 0 {
		w.batchInsertEquityValues(context.Background(), w.equityBuffer)
		w.equityBuffer = w.equityBuffer[:0]
	}
}

func (w *TimescaleWriter) batchInsertTrades(ctx context.Context, trades []TradeRecord) {
	w.logger.Debug("Flushing trades", zap.Int("count", len(trades)))
	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"backtest_trades"},
		[]string{"run_id", "symbol", "direction", "entry_date", "exit_date", "entry_price", "exit_price",
			"quantity", "pnl", "pnl_pct", "days_held", "exit_reason", "strength", "tag"},
		pgx.CopyFromRows(toTradeInterfaces(trades)),
	)
	if err != nil {
		w.logger.Error("Failed to batch insert trades", zap.Error(err))
	}
}

func (w *TimescaleWriter) batchInsertEquityValues(ctx context.Context, values []EquityValue) {
	w.logger.Debug("Flushing equity values", zap.Int("count", len(values)))
	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"equity_curve"},
		[]string{"run_id", "day", "value"},
		pgx.CopyFromRows(toEquityInterfaces(values)),
	)
	if err != nil {
		w.logger.Error("Failed to batch insert equity values", zap.Error(err))
	}
}

func toTradeInterfaces(trades []TradeRecord) [][]interface{} {
	rows := make([][]interface{}, len(trades))
	for i, t := range trades {
		rows[i] = []interface{}{t.RunID, t.Symbol, t.Direction, t.EntryDate, t.ExitDate, t.EntryPrice, t.ExitPrice,
			t.Quantity, t.PnL, t.PnLPct, t.DaysHeld, t.ExitReason, t.Strength, t.Tag}
	}
	return rows
}

func toEquityInterfaces(values []EquityValue) [][]interface{} {
	rows := make([][]interface{}, len(values))
	for i, v := range values {
		rows[i] = []interface{}{v.RunID, v.Day, v.Value}
	}
	return rows
}

// SaveRunSummary writes the headline row for a run.
func (w *TimescaleWriter) SaveRunSummary(ctx context.Context, s RunSummary) error {
	if w.pool == nil {
		w.logger.Debug("Skipping run summary save for no-op writer", zap.Any("summary", s))
		return nil
	}

	query := `INSERT INTO backtest_runs (run_id, strategy, start_date, end_date, initial_capital, final_capital,
	              total_return_pct, max_drawdown_pct, sharpe_ratio, sortino_ratio, win_rate, total_trades, profit_factor)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := w.pool.Exec(ctx, query,
		s.RunID, s.Strategy, s.StartDate, s.EndDate, s.InitialCapital, s.FinalCapital,
		s.TotalReturnPct, s.MaxDrawdownPct, s.SharpeRatio, s.SortinoRatio, s.WinRate, s.TotalTrades, s.ProfitFactor,
	)
	if err != nil {
		w.logger.Error("Failed to insert run summary", zap.Error(err), zap.String("runID", s.RunID.String()))
		return fmt.Errorf("failed to insert run summary: %w", err)
	}
	return nil
}

// CountRunTrades returns how many trades a run has persisted, used by the
// CLIs to confirm a flush completed.
func (w *TimescaleWriter) CountRunTrades(ctx context.Context, runID uuid.UUID) (int64, error) {
	if w.pool == nil {
		return 0, nil
	}
	var n int64
	err := w.pool.QueryRow(ctx, "SELECT count(*) FROM backtest_trades WHERE run_id = $1", runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count run trades: %w", err)
	}
	return n, nil
}
