package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/company-lookup/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. Kept narrow so
// tests can substitute a mock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":     `INSERT INTO runs (id, total_companies, status, started_at) VALUES ($1, $2, $3, $4)`,
	"insert_company": `INSERT INTO run_companies (id, run_id, company_name, postal_code, prefecture, city, address, representative_title, representative_name, error_occurred, error, low_confidence, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
	"finish_run":     `UPDATE runs SET success_count = $1, error_count = $2, status = $3, finished_at = $4 WHERE id = $5`,
	"get_run":        `SELECT id, total_companies, success_count, error_count, status, started_at, finished_at FROM runs WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	total_companies INTEGER NOT NULL,
	success_count   INTEGER NOT NULL DEFAULT 0,
	error_count     INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL DEFAULT 'running',
	started_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at     TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS run_companies (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id               TEXT NOT NULL REFERENCES runs(id),
	company_name         TEXT NOT NULL,
	postal_code          TEXT NOT NULL DEFAULT '',
	prefecture           TEXT NOT NULL DEFAULT '',
	city                 TEXT NOT NULL DEFAULT '',
	address              TEXT NOT NULL DEFAULT '',
	representative_title TEXT NOT NULL DEFAULT '',
	representative_name  TEXT NOT NULL DEFAULT '',
	error_occurred       BOOLEAN NOT NULL DEFAULT false,
	error                TEXT NOT NULL DEFAULT '',
	low_confidence       BOOLEAN NOT NULL DEFAULT false,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_run_companies_run_id ON run_companies(run_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, totalCompanies int) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, total_companies, status, started_at) VALUES ($1, $2, $3, $4)`,
		id, totalCompanies, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:             id,
		TotalCompanies: totalCompanies,
		Status:         model.RunStatusRunning,
		StartedAt:      now,
	}, nil
}

func (s *PostgresStore) RecordCompany(ctx context.Context, runID string, rec model.CompanyRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO run_companies
		 (id, run_id, company_name, postal_code, prefecture, city, address,
		  representative_title, representative_name, error_occurred, error, low_confidence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		uuid.New().String(), runID, rec.CompanyName,
		rec.PostalCode, rec.Prefecture, rec.City, rec.Address,
		rec.RepresentativeTitle, rec.RepresentativeName,
		rec.ErrorOccurred, rec.Error, rec.LowConfidence, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: record company %q for run %s", rec.CompanyName, runID)
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, successCount, errorCount int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET success_count = $1, error_count = $2, status = $3, finished_at = $4 WHERE id = $5`,
		successCount, errorCount, string(model.RunStatusCompleted), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	err := s.pool.QueryRow(ctx,
		`SELECT id, total_companies, success_count, error_count, status, started_at, finished_at
		 FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.TotalCompanies, &r.SuccessCount, &r.ErrorCount, &r.Status, &r.StartedAt, &r.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("run not found: %s", runID)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, total_companies, success_count, error_count, status, started_at, finished_at
	          FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		if err := rows.Scan(&r.ID, &r.TotalCompanies, &r.SuccessCount, &r.ErrorCount,
			&r.Status, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) ListRunCompanies(ctx context.Context, runID string) ([]model.CompanyRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT company_name, postal_code, prefecture, city, address,
		        representative_title, representative_name, error_occurred, error, low_confidence
		 FROM run_companies WHERE run_id = $1 ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list companies for run %s", runID)
	}
	defer rows.Close()

	var recs []model.CompanyRecord
	for rows.Next() {
		var rec model.CompanyRecord
		if err := rows.Scan(
			&rec.CompanyName, &rec.PostalCode, &rec.Prefecture, &rec.City, &rec.Address,
			&rec.RepresentativeTitle, &rec.RepresentativeName,
			&rec.ErrorOccurred, &rec.Error, &rec.LowConfidence,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company record")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}
