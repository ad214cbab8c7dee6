package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finndex/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

type fakePool struct {
	execSQL   []string
	batchLen  int
	batchErr  error
	queryArgs []any
	rows      [][]any
	queryErr  error
}

func (p *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.execSQL = append(p.execSQL, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (p *fakePool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	p.batchLen = b.Len()
	return &fakeBatchResults{err: p.batchErr}
}

func (p *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	p.queryArgs = args
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	return &fakeRows{rows: p.rows, idx: -1}, nil
}

type fakeBatchResults struct {
	err error
}

func (b *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("INSERT 0 1"), b.err
}
func (b *fakeBatchResults) Query() (pgx.Rows, error) { return nil, errors.New("not implemented") }
func (b *fakeBatchResults) QueryRow() pgx.Row         { return nil }
func (b *fakeBatchResults) Close() error              { return nil }

type fakeRows struct {
	rows [][]any
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.idx], nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx]
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *time.Time:
			*p = row[i].(time.Time)
		case *float64:
			*p = row[i].(float64)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

func newTestRepo(pool PgxPool) *MetricRepository {
	return NewMetricRepository(pool, trace.NewNoopTracerProvider().Tracer("test"))
}

func TestRunMigrationsCreatesTable(t *testing.T) {
	pool := &fakePool{}
	if err := newTestRepo(pool).RunMigrations(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != 1 || !strings.Contains(pool.execSQL[0], "daily_metric_values") {
		t.Fatalf("unexpected migration sql: %v", pool.execSQL)
	}
}

func TestUpsertValuesQueuesOneStatementPerRow(t *testing.T) {
	pool := &fakePool{}
	day := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	values := []domain.DailyValue{
		{Symbol: "BTC", Metric: domain.MetricFearAndGreed, Day: day, Value: 26},
		{Symbol: "BTC", Metric: domain.MetricFearAndGreed, Day: day.AddDate(0, 0, 1), Value: 63},
	}

	if err := newTestRepo(pool).UpsertValues(context.Background(), values); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.batchLen != 2 {
		t.Fatalf("expected 2 queued statements, got %d", pool.batchLen)
	}
}

func TestUpsertValuesEmptyIsNoop(t *testing.T) {
	pool := &fakePool{}
	if err := newTestRepo(pool).UpsertValues(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.batchLen != 0 {
		t.Fatalf("expected no batch, got %d", pool.batchLen)
	}
}

func TestUpsertValuesPropagatesBatchError(t *testing.T) {
	pool := &fakePool{batchErr: errors.New("constraint")}
	values := []domain.DailyValue{{Symbol: "BTC", Metric: domain.MetricBlockCount, Day: time.Now(), Value: 1}}
	if err := newTestRepo(pool).UpsertValues(context.Background(), values); err == nil {
		t.Fatal("expected batch error")
	}
}

func TestGetValuesInRange(t *testing.T) {
	day := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	pool := &fakePool{rows: [][]any{
		{"BTC", "block_count", day, 143.0},
		{"BTC", "block_count", day.AddDate(0, 0, 1), 150.0},
	}}

	values, err := newTestRepo(pool).GetValuesInRange(context.Background(), "BTC", domain.MetricBlockCount, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(values))
	}
	if values[1].Metric != domain.MetricBlockCount || values[1].Value != 150 {
		t.Fatalf("unexpected second value: %+v", values[1])
	}
	if pool.queryArgs[1] != "block_count" {
		t.Fatalf("metric should be passed as text, got %v", pool.queryArgs[1])
	}
}

func TestGetValuesInRangeQueryError(t *testing.T) {
	pool := &fakePool{queryErr: errors.New("down")}
	if _, err := newTestRepo(pool).GetValuesInRange(context.Background(), "BTC", domain.MetricBlockCount, time.Now(), time.Now()); err == nil {
		t.Fatal("expected query error")
	}
}
