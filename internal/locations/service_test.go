package locations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/internal/audit"
	"github.com/planboardhq/planboard-backend/internal/planner"
	"github.com/planboardhq/planboard-backend/internal/realtime"
	"github.com/planboardhq/planboard-backend/pkg/auth"
	"github.com/planboardhq/planboard-backend/pkg/enums"
	pkgerrors "github.com/planboardhq/planboard-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type capturingAuditor struct {
	changes []audit.Change
}

func (c *capturingAuditor) Record(_ context.Context, _ *gorm.DB, ch audit.Change) error {
	c.changes = append(c.changes, ch)
	return nil
}

type capturingAnnouncer struct {
	events []realtime.Event
}

func (c *capturingAnnouncer) Announce(_ context.Context, event realtime.Event) {
	c.events = append(c.events, event)
}

func setupLocationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS locations (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  lat REAL,
  lng REAL,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_locations_name ON locations (name) WHERE deleted_at IS NULL;`,
		`CREATE TABLE IF NOT EXISTS distances (
  id TEXT PRIMARY KEY,
  from_name TEXT NOT NULL,
  to_name TEXT NOT NULL,
  km REAL NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_distances_from_to ON distances (from_name, to_name) WHERE deleted_at IS NULL;`,
		`CREATE TABLE IF NOT EXISTS planner_meta (
  id INTEGER PRIMARY KEY,
  week_start TEXT,
  version INTEGER NOT NULL DEFAULT 1,
  updated_at DATETIME
);`,
		`DELETE FROM locations;`,
		`DELETE FROM distances;`,
		`DELETE FROM planner_meta;`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (Service, *capturingAuditor, *capturingAnnouncer) {
	t.Helper()
	gate, err := planner.NewGate(gormTxRunner{db: db}, planner.NewRepository(db), nil)
	require.NoError(t, err)
	auditor := &capturingAuditor{}
	announcer := &capturingAnnouncer{}
	svc, err := NewService(NewRepository(db), gate, auditor, announcer, nil)
	require.NoError(t, err)
	return svc, auditor, announcer
}

func adminMC() MutationContext {
	return MutationContext{Actor: auth.Actor{ID: "u-1", Role: enums.ActorRoleAdmin}}
}

func TestRenameCascadesThroughMatrix(t *testing.T) {
	db := setupLocationsTestDB(t)
	svc, _, _ := newTestService(t, db)
	ctx := context.Background()

	created, err := svc.CreateLocation(ctx, adminMC(), nil, LocationInput{Name: "Rotterdam"})
	require.NoError(t, err)
	_, err = svc.CreateLocation(ctx, adminMC(), nil, LocationInput{Name: "Antwerpen"})
	require.NoError(t, err)

	_, err = svc.UpsertDistance(ctx, adminMC(), DistanceInput{From: "Rotterdam", To: "Antwerpen", KM: 102})
	require.NoError(t, err)
	_, err = svc.UpsertDistance(ctx, adminMC(), DistanceInput{From: "Antwerpen", To: "Rotterdam", KM: 99})
	require.NoError(t, err)

	result, err := svc.UpdateLocation(ctx, adminMC(), created.Location.ID, LocationInput{Name: "Rotterdam Haven"})
	require.NoError(t, err)
	assert.Equal(t, "Rotterdam Haven", result.Location.Name)

	distances, err := svc.ListDistances(ctx, false)
	require.NoError(t, err)
	require.Len(t, distances, 2)
	for _, d := range distances {
		assert.NotEqual(t, "Rotterdam", d.From)
		assert.NotEqual(t, "Rotterdam", d.To)
	}
}

func TestDuplicateLocationNameRejected(t *testing.T) {
	db := setupLocationsTestDB(t)
	svc, _, _ := newTestService(t, db)
	ctx := context.Background()

	_, err := svc.CreateLocation(ctx, adminMC(), nil, LocationInput{Name: "Utrecht"})
	require.NoError(t, err)

	_, err = svc.CreateLocation(ctx, adminMC(), nil, LocationInput{Name: "Utrecht"})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestUpsertDistanceCreatesThenUpdates(t *testing.T) {
	db := setupLocationsTestDB(t)
	svc, auditor, _ := newTestService(t, db)
	ctx := context.Background()

	first, err := svc.UpsertDistance(ctx, adminMC(), DistanceInput{From: "A", To: "B", KM: 10})
	require.NoError(t, err)

	second, err := svc.UpsertDistance(ctx, adminMC(), DistanceInput{From: "A", To: "B", KM: 12})
	require.NoError(t, err)
	assert.Equal(t, first.Distance.ID, second.Distance.ID, "same cell, no duplicate row")
	assert.Equal(t, 12.0, second.Distance.KM)
	assert.Greater(t, second.Meta.Version, first.Meta.Version)

	require.Len(t, auditor.changes, 2)
	assert.Equal(t, enums.AuditActionCreate, auditor.changes[0].Action)
	assert.Equal(t, enums.AuditActionUpdate, auditor.changes[1].Action)
}

func TestUpsertDistanceValidation(t *testing.T) {
	db := setupLocationsTestDB(t)
	svc, _, _ := newTestService(t, db)
	ctx := context.Background()

	cases := []DistanceInput{
		{From: "", To: "B", KM: 1},
		{From: "A", To: "A", KM: 1},
		{From: "A", To: "B", KM: -1},
	}
	for _, input := range cases {
		_, err := svc.UpsertDistance(ctx, adminMC(), input)
		require.Error(t, err)
		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	}
}

func TestReplaceMatrix(t *testing.T) {
	db := setupLocationsTestDB(t)
	svc, auditor, announcer := newTestService(t, db)
	ctx := context.Background()

	_, err := svc.UpsertDistance(ctx, adminMC(), DistanceInput{From: "A", To: "B", KM: 10})
	require.NoError(t, err)

	result, err := svc.ReplaceMatrix(ctx, adminMC(), []DistanceInput{
		{From: "B", To: "C", KM: 20},
		{From: "C", To: "B", KM: 21},
	})
	require.NoError(t, err)
	assert.Len(t, result.Distances, 2)

	stored, err := svc.ListDistances(ctx, false)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, d := range stored {
		assert.NotEqual(t, "A", d.From)
	}

	last := auditor.changes[len(auditor.changes)-1]
	assert.Equal(t, enums.AuditActionReplace, last.Action)
	assert.Equal(t, "matrix", last.EntityID)
	assert.Equal(t, "replace", announcer.events[len(announcer.events)-1].Action)
}

func TestReplaceMatrixRejectsDuplicates(t *testing.T) {
	db := setupLocationsTestDB(t)
	svc, _, _ := newTestService(t, db)

	_, err := svc.ReplaceMatrix(context.Background(), adminMC(), []DistanceInput{
		{From: "A", To: "B", KM: 1},
		{From: "A", To: "B", KM: 2},
		{From: "C", To: "D", KM: -5},
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	assert.Contains(t, err.Error(), "entry 1")
	assert.Contains(t, err.Error(), "entry 2")
}

func TestDeleteLocationDropsItsDistances(t *testing.T) {
	db := setupLocationsTestDB(t)
	svc, _, _ := newTestService(t, db)
	ctx := context.Background()

	created, err := svc.CreateLocation(ctx, adminMC(), nil, LocationInput{Name: "Breda"})
	require.NoError(t, err)
	_, err = svc.UpsertDistance(ctx, adminMC(), DistanceInput{From: "Breda", To: "Tilburg", KM: 25})
	require.NoError(t, err)
	_, err = svc.UpsertDistance(ctx, adminMC(), DistanceInput{From: "Tilburg", To: "Eindhoven", KM: 36})
	require.NoError(t, err)

	mc := adminMC()
	mc.IntentConfirmed = true
	_, err = svc.DeleteLocation(ctx, mc, created.Location.ID)
	require.NoError(t, err)

	distances, err := svc.ListDistances(ctx, false)
	require.NoError(t, err)
	require.Len(t, distances, 1)
	assert.Equal(t, "Tilburg", distances[0].From)

	_, err = svc.GetLocation(ctx, created.Location.ID)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestDeleteLocationRequiresIntent(t *testing.T) {
	db := setupLocationsTestDB(t)
	svc, _, _ := newTestService(t, db)

	_, err := svc.DeleteLocation(context.Background(), adminMC(), uuid.New())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDeleteIntent, appErr.Code())
}
