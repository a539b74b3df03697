// Package benchmark records the benchmark price path of a run so dashboards
// can overlay the strategy's equity curve against buy-and-hold.
package benchmark

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/your-org/portfolio-backtester/internal/market"
)

// PgxPoolIface lists the pool methods the service uses, so tests can inject
// a mock.
type PgxPoolIface interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Service records benchmark values for a run.
type Service interface {
	Record(ctx context.Context, runID uuid.UUID, day time.Time, value decimal.Decimal) error
	RecordSeries(ctx context.Context, runID uuid.UUID, series *market.Series) error
}

// DBService stores benchmark values in the database.
type DBService struct {
	pool PgxPoolIface
}

// NewDBService creates a DBService over the given pool.
func NewDBService(pool PgxPoolIface) *DBService {
	return &DBService{pool: pool}
}

// Record inserts a single benchmark value.
func (s *DBService) Record(ctx context.Context, runID uuid.UUID, day time.Time, value decimal.Decimal) error {
	const query = `
		INSERT INTO benchmark_values (run_id, day, value)
		VALUES ($1, $2, $3)
	`
	_, err := s.pool.Exec(ctx, query, runID, day, value)
	return err
}

// RecordSeries inserts the whole close series for a run.
func (s *DBService) RecordSeries(ctx context.Context, runID uuid.UUID, series *market.Series) error {
	for i := 0; i < series.Len(); i++ {
		b := series.At(i)
		if err := s.Record(ctx, runID, b.Date, decimal.NewFromFloat(b.Close)); err != nil {
			return err
		}
	}
	return nil
}

// NoOpService drops every record. It backs runs without a database.
type NoOpService struct{}

// Record implements Service.
func (NoOpService) Record(ctx context.Context, runID uuid.UUID, day time.Time, value decimal.Decimal) error {
	return nil
}

// RecordSeries implements Service.
func (NoOpService) RecordSeries(ctx context.Context, runID uuid.UUID, series *market.Series) error {
	return nil
}
