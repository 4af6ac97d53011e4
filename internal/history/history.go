// Package history records finished conversion runs in PostgreSQL.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonMunkholm/instructcsv/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversion_runs (
    run_id          UUID PRIMARY KEY,
    origin          TEXT NOT NULL,
    destination     TEXT,
    rows_read       BIGINT NOT NULL,
    rows_kept       BIGINT NOT NULL,
    rows_dropped    JSONB NOT NULL,
    records_written BIGINT NOT NULL,
    discarded       TEXT,
    status          TEXT NOT NULL,
    error           TEXT,
    started_at      TIMESTAMPTZ NOT NULL,
    duration_ms     BIGINT NOT NULL
)`

const insertRun = `
INSERT INTO conversion_runs (
    run_id, origin, destination, rows_read, rows_kept, rows_dropped,
    records_written, discarded, status, error, started_at, duration_ms
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Status values stored per run.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MaxConnLifetime time.Duration
}

// PostgresRecorder implements core.Recorder.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// Open connects, verifies the connection and creates the runs table if needed.
func Open(ctx context.Context, cfg PoolConfig) (*PostgresRecorder, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create conversion_runs: %w", err)
	}
	return &PostgresRecorder{pool: pool}, nil
}

// Record inserts one row for the run.
func (r *PostgresRecorder) Record(ctx context.Context, report core.Report, runErr error) error {
	row, err := runRow(report, runErr)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, insertRun, row.args()...)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", report.RunID, err)
	}
	return nil
}

// Close releases the pool.
func (r *PostgresRecorder) Close() {
	r.pool.Close()
}

// Nop discards every run. It is used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, core.Report, error) error { return nil }

type run struct {
	ID             pgtype.UUID
	Origin         string
	Destination    pgtype.Text
	RowsRead       int64
	RowsKept       int64
	Dropped        []byte
	RecordsWritten int64
	Discarded      pgtype.Text
	Status         string
	Error          pgtype.Text
	StartedAt      pgtype.Timestamptz
	DurationMS     int64
}

func (r run) args() []any {
	return []any{
		r.ID, r.Origin, r.Destination, r.RowsRead, r.RowsKept, r.Dropped,
		r.RecordsWritten, r.Discarded, r.Status, r.Error, r.StartedAt, r.DurationMS,
	}
}

func runRow(report core.Report, runErr error) (run, error) {
	id, err := uuid.Parse(report.RunID)
	if err != nil {
		return run{}, fmt.Errorf("invalid run id %q: %w", report.RunID, err)
	}

	dropped := make(map[string]int, len(report.Dropped))
	for reason, n := range report.Dropped {
		dropped[string(reason)] = n
	}
	droppedJSON, err := json.Marshal(dropped)
	if err != nil {
		return run{}, fmt.Errorf("encode dropped counts: %w", err)
	}

	row := run{
		ID:             pgtype.UUID{Bytes: id, Valid: true},
		Origin:         report.Origin,
		Destination:    text(report.Destination),
		RowsRead:       int64(report.RowsRead),
		RowsKept:       int64(report.RowsKept),
		Dropped:        droppedJSON,
		RecordsWritten: int64(report.RecordsWritten),
		Status:         StatusSuccess,
		StartedAt:      pgtype.Timestamptz{Time: report.StartedAt, Valid: true},
		DurationMS:     report.Duration.Milliseconds(),
	}
	if report.HasDiscarded {
		row.Discarded = text(string(report.Discarded))
	}
	if runErr != nil {
		row.Status = StatusFailure
		row.Error = text(runErr.Error())
	}
	return row, nil
}

func text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
