package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-lookup/internal/config"
	"github.com/sells-group/company-lookup/internal/model"
)

func TestOpen_Off(t *testing.T) {
	s, err := Open(context.Background(), config.StoreConfig{Driver: "off"})
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)
}

func TestOpen_SQLiteMigrates(t *testing.T) {
	cfg := config.StoreConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "runs.db"),
	}

	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck

	// Migrations ran, so a run can be created immediately.
	run, err := s.CreateRun(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestNopStore(t *testing.T) {
	s := NopStore{}
	ctx := context.Background()

	run, err := s.CreateRun(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, run.ID, "nop runs carry no ID so callers skip follow-up writes")
	assert.Equal(t, 7, run.TotalCompanies)

	assert.NoError(t, s.RecordCompany(ctx, "x", model.CompanyRecord{}))
	assert.NoError(t, s.FinishRun(ctx, "x", 0, 0))
	assert.NoError(t, s.Migrate(ctx))
	assert.NoError(t, s.Close())

	_, err = s.GetRun(ctx, "x")
	assert.Error(t, err)
}
