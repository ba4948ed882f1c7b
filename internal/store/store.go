// Package store persists batch run history.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/company-lookup/internal/config"
	"github.com/sells-group/company-lookup/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for batch bookkeeping. The
// first three methods satisfy the pipeline's Recorder.
type Store interface {
	CreateRun(ctx context.Context, totalCompanies int) (*model.Run, error)
	RecordCompany(ctx context.Context, runID string, rec model.CompanyRecord) error
	FinishRun(ctx context.Context, runID string, successCount, errorCount int) error

	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	ListRunCompanies(ctx context.Context, runID string) ([]model.CompanyRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store selected by cfg.Driver and runs migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "off", "":
		return NopStore{}, nil
	case "sqlite":
		s, err = NewSQLite(cfg.Path)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// NopStore discards everything. Used when persistence is disabled.
type NopStore struct{}

func (NopStore) CreateRun(ctx context.Context, totalCompanies int) (*model.Run, error) {
	return &model.Run{TotalCompanies: totalCompanies, Status: model.RunStatusRunning}, nil
}

func (NopStore) RecordCompany(context.Context, string, model.CompanyRecord) error { return nil }

func (NopStore) FinishRun(context.Context, string, int, int) error { return nil }

func (NopStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	return nil, eris.Errorf("run not found: %s", runID)
}

func (NopStore) ListRuns(context.Context, RunFilter) ([]model.Run, error) { return nil, nil }

func (NopStore) ListRunCompanies(context.Context, string) ([]model.CompanyRecord, error) {
	return nil, nil
}

func (NopStore) Migrate(context.Context) error { return nil }

func (NopStore) Close() error { return nil }
