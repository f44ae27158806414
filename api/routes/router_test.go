package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/internal/audit"
	"github.com/planboardhq/planboard-backend/internal/drivers"
	"github.com/planboardhq/planboard-backend/internal/fleet"
	"github.com/planboardhq/planboard-backend/internal/jobs"
	"github.com/planboardhq/planboard-backend/internal/locations"
	"github.com/planboardhq/planboard-backend/internal/planner"
	"github.com/planboardhq/planboard-backend/internal/realtime"
	"github.com/planboardhq/planboard-backend/pkg/auth"
	"github.com/planboardhq/planboard-backend/pkg/config"
	"github.com/planboardhq/planboard-backend/pkg/enums"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type dropAnnouncer struct{}

func (dropAnnouncer) Announce(context.Context, realtime.Event) {}

type routerTxRunner struct{ db *gorm.DB }

func (r routerTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

var routerSchema = []string{
	`CREATE TABLE IF NOT EXISTS drivers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  can_night INTEGER NOT NULL DEFAULT 0,
  sleeps_in_cab INTEGER NOT NULL DEFAULT 0,
  double_manned_eligible INTEGER NOT NULL DEFAULT 0,
  week_availability TEXT,
  leaves TEXT NOT NULL DEFAULT '{}',
  rating REAL NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS tractors (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  plate TEXT,
  location TEXT,
  double_manned INTEGER NOT NULL DEFAULT 0,
  type_tags TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS trailers (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  plate TEXT,
  type_tags TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS locations (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  lat REAL,
  lng REAL,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS distances (
  id TEXT PRIMARY KEY,
  from_name TEXT NOT NULL,
  to_name TEXT NOT NULL,
  km REAL NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  date TEXT,
  start TEXT,
  duration_hours REAL,
  slot TEXT,
  client TEXT,
  pickup TEXT,
  dropoff TEXT,
  start_point TEXT,
  end_point TEXT,
  allow_start_override INTEGER NOT NULL DEFAULT 0,
  tractor_id TEXT,
  trailer_id TEXT,
  driver_ids TEXT NOT NULL DEFAULT '{}',
  pricing_mode TEXT,
  price_value TEXT NOT NULL DEFAULT '0',
  revenue TEXT NOT NULL DEFAULT '0',
  cost_driver TEXT NOT NULL DEFAULT '0',
  cost_truck TEXT NOT NULL DEFAULT '0',
  cost_diesel TEXT NOT NULL DEFAULT '0',
  notes TEXT,
  code TEXT,
  color TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS planner_meta (
  id INTEGER PRIMARY KEY,
  week_start TEXT,
  version INTEGER NOT NULL DEFAULT 1,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS planner_settings (
  id INTEGER PRIMARY KEY,
  per_km_rate TEXT NOT NULL DEFAULT '0',
  hourly_driver_cost TEXT NOT NULL DEFAULT '0',
  night_premium TEXT NOT NULL DEFAULT '0',
  trailer_type_daily_cost TEXT NOT NULL DEFAULT '{}',
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS audit_entries (
  id TEXT PRIMARY KEY,
  actor_id TEXT NOT NULL,
  actor_email TEXT,
  actor_role TEXT,
  action TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id TEXT,
  before TEXT,
  after TEXT,
  request_id TEXT,
  created_at DATETIME
);`,
	`DELETE FROM drivers;`,
	`DELETE FROM tractors;`,
	`DELETE FROM trailers;`,
	`DELETE FROM locations;`,
	`DELETE FROM distances;`,
	`DELETE FROM jobs;`,
	`DELETE FROM planner_meta;`,
	`DELETE FROM planner_settings;`,
	`DELETE FROM audit_entries;`,
}

func newTestRouter(t *testing.T) (http.Handler, config.JWTConfig) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range routerSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}

	plannerRepo := planner.NewRepository(db)
	gate, err := planner.NewGate(routerTxRunner{db: db}, plannerRepo, nil)
	require.NoError(t, err)
	recorder := audit.NewRecorder(nil)
	announcer := dropAnnouncer{}

	driverSvc, err := drivers.NewService(drivers.NewRepository(db), gate, recorder, announcer, nil)
	require.NoError(t, err)
	fleetSvc, err := fleet.NewService(fleet.NewRepository(db), gate, recorder, announcer, nil)
	require.NoError(t, err)
	locationSvc, err := locations.NewService(locations.NewRepository(db), gate, recorder, announcer, nil)
	require.NoError(t, err)
	jobSvc, err := jobs.NewService(jobs.NewRepository(db), gate, recorder, announcer, nil)
	require.NoError(t, err)
	plannerSvc, err := planner.NewService(gate, plannerRepo, recorder, announcer, nil)
	require.NoError(t, err)
	auditSvc, err := audit.NewService(audit.NewRepository(db))
	require.NoError(t, err)

	jwtCfg := config.JWTConfig{Secret: "router-test-secret", Issuer: "planboard-test"}
	router := NewRouter(Dependencies{
		Config:    &config.Config{JWT: jwtCfg},
		Logger:    nil,
		DB:        stubPinger{},
		Redis:     stubPinger{},
		Drivers:   driverSvc,
		Fleet:     fleetSvc,
		Locations: locationSvc,
		Jobs:      jobSvc,
		Planner:   plannerSvc,
		Audit:     auditSvc,
	})
	return router, jwtCfg
}

func signTestToken(t *testing.T, cfg config.JWTConfig, role enums.ActorRole) string {
	t.Helper()
	claims := auth.AccessTokenClaims{
		UserID: "u-1",
		Email:  "planner@example.com",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, path, reader)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestHealthLiveIsOpen(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/v1/drivers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMutationsRequireAdmin(t *testing.T) {
	router, cfg := newTestRouter(t)
	token := signTestToken(t, cfg, enums.ActorRoleUser)

	w := doJSON(t, router, http.MethodGet, "/api/v1/drivers", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/drivers", token, map[string]any{"name": "Eva"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDriverCreateFlowReturnsMeta(t *testing.T) {
	router, cfg := newTestRouter(t)
	token := signTestToken(t, cfg, enums.ActorRoleAdmin)

	w := doJSON(t, router, http.MethodPost, "/api/v1/drivers", token, map[string]any{
		"name":     "Eva",
		"canNight": true,
		"rating":   4,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data struct {
			Driver struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"driver"`
			Meta struct {
				Version int64 `json:"version"`
			} `json:"meta"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Eva", created.Data.Driver.Name)
	assert.NotEmpty(t, created.Data.Driver.ID)
	assert.Equal(t, int64(2), created.Data.Meta.Version)

	w = doJSON(t, router, http.MethodGet, "/api/v1/drivers", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Data struct {
			Drivers []json.RawMessage `json:"drivers"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed.Data.Drivers, 1)

	w = doJSON(t, router, http.MethodGet, "/api/v1/audit", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var trail struct {
		Data struct {
			Entries []struct {
				Action     string `json:"action"`
				EntityType string `json:"entityType"`
			} `json:"entries"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trail))
	require.Len(t, trail.Data.Entries, 1)
	assert.Equal(t, "create", trail.Data.Entries[0].Action)
	assert.Equal(t, "driver", trail.Data.Entries[0].EntityType)
}

func TestStaleVersionHeaderConflicts(t *testing.T) {
	router, cfg := newTestRouter(t)
	token := signTestToken(t, cfg, enums.ActorRoleAdmin)

	w := doJSON(t, router, http.MethodPost, "/api/v1/drivers", token, map[string]any{"name": "Eva"})
	require.Equal(t, http.StatusCreated, w.Code)

	raw, err := json.Marshal(map[string]any{"name": "Friso"})
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/drivers", bytes.NewReader(raw))
	r.Header.Set("Authorization", "Bearer "+token)
	r.Header.Set("X-Planner-Version", "1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStateReturnsAllCollections(t *testing.T) {
	router, cfg := newTestRouter(t)
	token := signTestToken(t, cfg, enums.ActorRoleAdmin)

	w := doJSON(t, router, http.MethodGet, "/api/v1/state", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var state struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	for _, key := range []string{"drivers", "tractors", "trailers", "locations", "distances", "jobs", "meta", "settings"} {
		assert.Contains(t, state.Data, key)
	}
	assert.NotContains(t, state.Data, "segments")
}
