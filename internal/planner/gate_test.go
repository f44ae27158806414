package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
	pkgerrors "github.com/planboardhq/planboard-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupPlannerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	meta := `
CREATE TABLE IF NOT EXISTS planner_meta (
  id INTEGER PRIMARY KEY,
  week_start TEXT,
  version INTEGER NOT NULL DEFAULT 1,
  updated_at DATETIME
);`
	settings := `
CREATE TABLE IF NOT EXISTS planner_settings (
  id INTEGER PRIMARY KEY,
  per_km_rate NUMERIC NOT NULL DEFAULT 0,
  hourly_driver_cost NUMERIC NOT NULL DEFAULT 0,
  night_premium NUMERIC NOT NULL DEFAULT 0,
  trailer_type_daily_cost TEXT NOT NULL DEFAULT '{}',
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(meta).Error)
	require.NoError(t, db.Exec(settings).Error)
	require.NoError(t, db.Exec("DELETE FROM planner_meta").Error)
	require.NoError(t, db.Exec("DELETE FROM planner_settings").Error)
	return db
}

func newTestGate(t *testing.T, db *gorm.DB) (*Gate, Repository) {
	t.Helper()
	repo := NewRepository(db)
	gate, err := NewGate(gormTxRunner{db: db}, repo, nil)
	require.NoError(t, err)
	return gate, repo
}

func int64Ptr(v int64) *int64 { return &v }

func TestGateSeedsAndBumpsOncePerMutation(t *testing.T) {
	db := setupPlannerTestDB(t)
	gate, repo := newTestGate(t, db)
	ctx := context.Background()

	noop := func(_ *gorm.DB, _ *models.PlannerMeta) error { return nil }

	for i, want := range []int64{2, 3, 4} {
		meta, err := gate.Mutate(ctx, nil, noop)
		require.NoError(t, err, "mutation %d", i)
		assert.Equal(t, want, meta.Version)
	}

	stored, err := repo.GetMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.Version)
}

func TestGateAcceptsMatchingDeclaredVersion(t *testing.T) {
	db := setupPlannerTestDB(t)
	gate, _ := newTestGate(t, db)
	ctx := context.Background()

	meta, err := gate.Mutate(ctx, nil, func(_ *gorm.DB, _ *models.PlannerMeta) error { return nil })
	require.NoError(t, err)

	next, err := gate.Mutate(ctx, int64Ptr(meta.Version), func(_ *gorm.DB, _ *models.PlannerMeta) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, meta.Version+1, next.Version)
}

func TestGateRejectsStaleDeclaredVersion(t *testing.T) {
	db := setupPlannerTestDB(t)
	gate, repo := newTestGate(t, db)
	ctx := context.Background()

	_, err := gate.Mutate(ctx, nil, func(_ *gorm.DB, _ *models.PlannerMeta) error { return nil })
	require.NoError(t, err)

	ran := false
	_, err = gate.Mutate(ctx, int64Ptr(1), func(_ *gorm.DB, _ *models.PlannerMeta) error {
		ran = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, ran, "a stale mutation must be rejected before it runs")

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeVersionConflict, appErr.Code())

	details, ok := appErr.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(2), details["currentVersion"])
	assert.Equal(t, int64(1), details["declaredVersion"])

	stored, err := repo.GetMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version, "rejected mutation must not bump")
}

func TestGateRollsBackOnMutationError(t *testing.T) {
	db := setupPlannerTestDB(t)
	gate, repo := newTestGate(t, db)
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := gate.Mutate(ctx, nil, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		settings, err := NewRepository(tx).GetSettings(ctx)
		if err != nil {
			return err
		}
		settings.PerKMRate = decimal.NewFromInt(99)
		if err := NewRepository(tx).SaveSettings(ctx, settings); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, stored.PerKMRate.IsZero(), "failed mutation must roll back its writes")

	meta, err := repo.GetMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), meta.Version)
}
