package dbwriter

import (
	"context"
)

// DBWriter defines the interface for persisting backtest results.
// This allows for mocking in tests.
type DBWriter interface {
	// SaveTrade adds a closed trade to the batch buffer.
	SaveTrade(trade TradeRecord)

	// SaveEquityValue adds one equity curve point to the batch buffer.
	SaveEquityValue(value EquityValue)

	// SaveRunSummary writes the headline row for a completed run.
	SaveRunSummary(ctx context.Context, summary RunSummary) error

	// Close flushes any buffered data and closes the database connection.
	Close()
}
