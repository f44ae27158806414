package fleet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/internal/audit"
	"github.com/planboardhq/planboard-backend/internal/realtime"
	"github.com/planboardhq/planboard-backend/pkg/auth"
	"github.com/planboardhq/planboard-backend/pkg/db/models"
	"github.com/planboardhq/planboard-backend/pkg/enums"
	pkgerrors "github.com/planboardhq/planboard-backend/pkg/errors"
)

type stubRepo struct {
	tractors map[uuid.UUID]*models.Tractor
	trailers map[uuid.UUID]*models.Trailer
	deleted  []uuid.UUID
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		tractors: map[uuid.UUID]*models.Tractor{},
		trailers: map[uuid.UUID]*models.Trailer{},
	}
}

func (s *stubRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubRepo) ListTractors(_ context.Context, _ bool) ([]models.Tractor, error) {
	out := make([]models.Tractor, 0, len(s.tractors))
	for _, t := range s.tractors {
		out = append(out, *t)
	}
	return out, nil
}

func (s *stubRepo) FindTractor(_ context.Context, id uuid.UUID) (*models.Tractor, error) {
	t, ok := s.tractors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *stubRepo) CreateTractor(_ context.Context, tractor *models.Tractor) (*models.Tractor, error) {
	s.tractors[tractor.ID] = tractor
	return tractor, nil
}

func (s *stubRepo) UpdateTractor(_ context.Context, tractor *models.Tractor) error {
	s.tractors[tractor.ID] = tractor
	return nil
}

func (s *stubRepo) SoftDeleteTractor(_ context.Context, id uuid.UUID) error {
	delete(s.tractors, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubRepo) ListTrailers(_ context.Context, _ bool) ([]models.Trailer, error) {
	out := make([]models.Trailer, 0, len(s.trailers))
	for _, t := range s.trailers {
		out = append(out, *t)
	}
	return out, nil
}

func (s *stubRepo) FindTrailer(_ context.Context, id uuid.UUID) (*models.Trailer, error) {
	t, ok := s.trailers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *stubRepo) CreateTrailer(_ context.Context, trailer *models.Trailer) (*models.Trailer, error) {
	s.trailers[trailer.ID] = trailer
	return trailer, nil
}

func (s *stubRepo) UpdateTrailer(_ context.Context, trailer *models.Trailer) error {
	s.trailers[trailer.ID] = trailer
	return nil
}

func (s *stubRepo) SoftDeleteTrailer(_ context.Context, id uuid.UUID) error {
	delete(s.trailers, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type stubGate struct {
	version int64
	calls   int
}

func (g *stubGate) Mutate(_ context.Context, declared *int64, fn func(tx *gorm.DB, meta *models.PlannerMeta) error) (*models.PlannerMeta, error) {
	g.calls++
	meta := &models.PlannerMeta{ID: models.PlannerMetaID, Version: g.version}
	if declared != nil && *declared != meta.Version {
		return nil, pkgerrors.New(pkgerrors.CodeVersionConflict, "planner version conflict")
	}
	if err := fn(nil, meta); err != nil {
		return nil, err
	}
	meta.Version++
	g.version = meta.Version
	return meta, nil
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

func newTestService(t *testing.T) (Service, *stubRepo, *capturingAuditor, *capturingAnnouncer) {
	t.Helper()
	repo := newStubRepo()
	svc, err := NewService(repo, &stubGate{version: 1}, &capturingAuditor{}, &capturingAnnouncer{}, nil)
	require.NoError(t, err)
	s := svc.(*service)
	return svc, repo, s.auditor.(*capturingAuditor), s.announcer.(*capturingAnnouncer)
}

func adminMC() MutationContext {
	return MutationContext{Actor: auth.Actor{ID: "u-1", Role: enums.ActorRoleAdmin}}
}

func TestCreateTractor(t *testing.T) {
	svc, repo, auditor, announcer := newTestService(t)

	result, err := svc.CreateTractor(context.Background(), adminMC(), nil, TractorInput{
		Code:         "T-7",
		Plate:        "AB-12-CD",
		DoubleManned: true,
		TypeTags:     []string{"reefer"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Meta.Version)
	assert.True(t, result.Tractor.DoubleManned)

	_, ok := repo.tractors[result.Tractor.ID]
	assert.True(t, ok)
	require.Len(t, auditor.changes, 1)
	assert.Equal(t, enums.EntityTractor, auditor.changes[0].EntityType)
	require.Len(t, announcer.events, 1)
	assert.Equal(t, "tractors", announcer.events[0].Collection)
}

func TestCreateTractorRequiresCode(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.CreateTractor(context.Background(), adminMC(), nil, TractorInput{})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestUpdateTrailerReplacesFields(t *testing.T) {
	svc, repo, auditor, _ := newTestService(t)
	id := uuid.New()
	repo.trailers[id] = &models.Trailer{ID: id, Code: "R-1", Plate: "XX-1"}

	result, err := svc.UpdateTrailer(context.Background(), adminMC(), id, TrailerInput{Code: "R-2"})
	require.NoError(t, err)
	assert.Equal(t, "R-2", result.Trailer.Code)
	assert.Empty(t, result.Trailer.Plate, "full replace clears omitted fields")

	require.Len(t, auditor.changes, 1)
	before, ok := auditor.changes[0].Before.(models.Trailer)
	require.True(t, ok)
	assert.Equal(t, "R-1", before.Code)
}

func TestDeleteTractorRequiresIntent(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	id := uuid.New()
	repo.tractors[id] = &models.Tractor{ID: id, Code: "T-1"}

	_, err := svc.DeleteTractor(context.Background(), adminMC(), id)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDeleteIntent, appErr.Code())
	assert.Empty(t, repo.deleted)
}

func TestDeleteTrailer(t *testing.T) {
	svc, repo, auditor, announcer := newTestService(t)
	id := uuid.New()
	repo.trailers[id] = &models.Trailer{ID: id, Code: "R-9"}

	mc := adminMC()
	mc.IntentConfirmed = true
	meta, err := svc.DeleteTrailer(context.Background(), mc, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), meta.Version)
	assert.Equal(t, []uuid.UUID{id}, repo.deleted)

	require.Len(t, auditor.changes, 1)
	assert.Equal(t, enums.AuditActionDelete, auditor.changes[0].Action)
	require.Len(t, announcer.events, 1)
	assert.Equal(t, "trailers", announcer.events[0].Collection)
}

func TestGetTractorNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.GetTractor(context.Background(), uuid.New())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
