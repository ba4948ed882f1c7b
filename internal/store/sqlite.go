package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/company-lookup/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	total_companies INTEGER NOT NULL,
	success_count   INTEGER NOT NULL DEFAULT 0,
	error_count     INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL DEFAULT 'running',
	started_at      DATETIME NOT NULL,
	finished_at     DATETIME
);

CREATE TABLE IF NOT EXISTS run_companies (
	id                   TEXT PRIMARY KEY,
	run_id               TEXT NOT NULL REFERENCES runs(id),
	company_name         TEXT NOT NULL,
	postal_code          TEXT NOT NULL DEFAULT '',
	prefecture           TEXT NOT NULL DEFAULT '',
	city                 TEXT NOT NULL DEFAULT '',
	address              TEXT NOT NULL DEFAULT '',
	representative_title TEXT NOT NULL DEFAULT '',
	representative_name  TEXT NOT NULL DEFAULT '',
	error_occurred       INTEGER NOT NULL DEFAULT 0,
	error                TEXT NOT NULL DEFAULT '',
	low_confidence       INTEGER NOT NULL DEFAULT 0,
	created_at           DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_run_companies_run_id ON run_companies(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, totalCompanies int) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, total_companies, status, started_at) VALUES (?, ?, ?, ?)`,
		id, totalCompanies, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:             id,
		TotalCompanies: totalCompanies,
		Status:         model.RunStatusRunning,
		StartedAt:      now,
	}, nil
}

func (s *SQLiteStore) RecordCompany(ctx context.Context, runID string, rec model.CompanyRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_companies
		 (id, run_id, company_name, postal_code, prefecture, city, address,
		  representative_title, representative_name, error_occurred, error, low_confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), runID, rec.CompanyName,
		rec.PostalCode, rec.Prefecture, rec.City, rec.Address,
		rec.RepresentativeTitle, rec.RepresentativeName,
		rec.ErrorOccurred, rec.Error, rec.LowConfidence, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: record company %q for run %s", rec.CompanyName, runID)
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, successCount, errorCount int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET success_count = ?, error_count = ?, status = ?, finished_at = ? WHERE id = ?`,
		successCount, errorCount, string(model.RunStatusCompleted), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, total_companies, success_count, error_count, status, started_at, finished_at
		 FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, total_companies, success_count, error_count, status, started_at, finished_at
	          FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) ListRunCompanies(ctx context.Context, runID string) ([]model.CompanyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT company_name, postal_code, prefecture, city, address,
		        representative_title, representative_name, error_occurred, error, low_confidence
		 FROM run_companies WHERE run_id = ? ORDER BY rowid`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list companies for run %s", runID)
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
			return nil, eris.Wrap(err, "sqlite: scan company record")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var finishedAt sql.NullTime

	err := row.Scan(&r.ID, &r.TotalCompanies, &r.SuccessCount, &r.ErrorCount,
		&r.Status, &r.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if finishedAt.Valid {
		t := finishedAt.Time
		r.FinishedAt = &t
	}
	return &r, nil
}
