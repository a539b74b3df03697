package dbwriter

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/portfolio-backtester/internal/config"
)

func TestTimescaleWriter_ImplementsDBWriter(t *testing.T) {
	assert.Implements(t, (*DBWriter)(nil), new(TimescaleWriter))
	assert.Implements(t, (*DBWriter)(nil), new(InMemWriter))
}

func TestTimescaleWriter_SaveTrade(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	writerConfig := config.DBWriterConfig{
		BatchSize:            1, // flush on every record
		WriteIntervalSeconds: 1,
	}

	writer, err := NewTimescaleWriter(mock, writerConfig, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectCopyFrom(
		pgx.Identifier{"backtest_trades"},
		[]string{"run_id", "symbol", "direction", "entry_date", "exit_date", "entry_price", "exit_price",
			"quantity", "pnl", "pnl_pct", "days_held", "exit_reason", "strength", "tag"},
	)

	writer.SaveTrade(TradeRecord{
		RunID:      uuid.New(),
		Symbol:     "ACME",
		Direction:  "long",
		EntryDate:  time.Now().AddDate(0, 0, -5),
		ExitDate:   time.Now(),
		EntryPrice: 100,
		ExitPrice:  110,
		Quantity:   50,
		PnL:        500,
		PnLPct:     10,
		DaysHeld:   5,
		ExitReason: "Take Profit",
	})
	writer.Close()

	require.NoError(t, mock.ExpectationsWereMet(), "there were unfulfilled expectations")
}

func TestTimescaleWriter_SaveEquityValue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	writer, err := NewTimescaleWriter(mock, config.DBWriterConfig{BatchSize: 1, WriteIntervalSeconds: 1}, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectCopyFrom(
		pgx.Identifier{"equity_curve"},
		[]string{"run_id", "day", "value"},
	)

	writer.SaveEquityValue(EquityValue{RunID: uuid.New(), Day: time.Now(), Value: 105000})
	writer.Close()

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimescaleWriter_SaveRunSummary(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	writer, err := NewTimescaleWriter(mock, config.DBWriterConfig{BatchSize: 100, WriteIntervalSeconds: 1}, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO backtest_runs").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = writer.SaveRunSummary(context.Background(), RunSummary{
		RunID:          uuid.New(),
		Strategy:       "rsi_reversion",
		InitialCapital: 100000,
		FinalCapital:   108000,
		TotalReturnPct: 8,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNilPoolWriterIsNoOp(t *testing.T) {
	writer, err := NewTimescaleWriter(nil, config.DBWriterConfig{}, zap.NewNop())
	require.NoError(t, err)

	// None of these may panic or touch a database.
	writer.SaveTrade(TradeRecord{})
	writer.SaveEquityValue(EquityValue{})
	assert.NoError(t, writer.SaveRunSummary(context.Background(), RunSummary{}))
	writer.Close()
}

func TestInMemWriterCollects(t *testing.T) {
	w := NewInMemWriter()
	w.SaveTrade(TradeRecord{Symbol: "ACME"})
	w.SaveEquityValue(EquityValue{Value: 1})
	require.NoError(t, w.SaveRunSummary(context.Background(), RunSummary{Strategy: "confluence"}))
	w.Close()

	assert.Len(t, w.Trades, 1)
	assert.Len(t, w.EquityValues, 1)
	assert.Len(t, w.RunSummaries, 1)
	assert.True(t, w.IsClosed)

	w.Clear()
	assert.Empty(t, w.Trades)
	assert.False(t, w.IsClosed)
}
