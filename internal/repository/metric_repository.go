package repository

import (
	"context"
	"time"

	"finndex/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const createDailyMetricValuesTable = `
CREATE TABLE IF NOT EXISTS daily_metric_values (
    symbol      TEXT             NOT NULL,
    metric      TEXT             NOT NULL,
    day         DATE             NOT NULL,
    value       DOUBLE PRECISION NOT NULL,
    updated_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
    PRIMARY KEY (symbol, metric, day)
);

CREATE INDEX IF NOT EXISTS idx_daily_metric_values_symbol_metric_day
    ON daily_metric_values (symbol, metric, day DESC);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// MetricRepository stores raw (un-normalised) daily metric readings.
type MetricRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewMetricRepository(pool PgxPool, tracer trace.Tracer) *MetricRepository {
	return &MetricRepository{pool: pool, tracer: tracer}
}

func (r *MetricRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "metric-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createDailyMetricValuesTable)
	return err
}

func (r *MetricRepository) UpsertValues(ctx context.Context, values []domain.DailyValue) error {
	if len(values) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "metric-repo.upsert-values")
	defer span.End()
	span.SetAttributes(attribute.Int("rows", len(values)))

	batch := &pgx.Batch{}
	for _, v := range values {
		batch.Queue(
			`INSERT INTO daily_metric_values (symbol, metric, day, value)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (symbol, metric, day) DO UPDATE SET
			     value = EXCLUDED.value,
			     updated_at = NOW()`,
			v.Symbol, string(v.Metric), v.Day, v.Value,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range values {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// GetValuesInRange returns stored readings with from <= day <= to, oldest first.
func (r *MetricRepository) GetValuesInRange(ctx context.Context, symbol string, metric domain.Metric, from, to time.Time) ([]domain.DailyValue, error) {
	_, span := r.tracer.Start(ctx, "metric-repo.get-values-in-range")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("metric", string(metric)),
	)

	rows, err := r.pool.Query(ctx,
		`SELECT symbol, metric, day, value
		 FROM daily_metric_values
		 WHERE symbol = $1 AND metric = $2 AND day >= $3 AND day <= $4
		 ORDER BY day ASC`,
		symbol, string(metric), from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []domain.DailyValue
	for rows.Next() {
		var (
			v      domain.DailyValue
			metric string
		)
		if err := rows.Scan(&v.Symbol, &metric, &v.Day, &v.Value); err != nil {
			return nil, err
		}
		v.Metric = domain.Metric(metric)
		values = append(values, v)
	}
	return values, rows.Err()
}
