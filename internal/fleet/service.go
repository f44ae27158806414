package fleet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/internal/audit"
	"github.com/planboardhq/planboard-backend/internal/realtime"
	"github.com/planboardhq/planboard-backend/pkg/db/models"
	"github.com/planboardhq/planboard-backend/pkg/enums"
	pkgerrors "github.com/planboardhq/planboard-backend/pkg/errors"
	"github.com/planboardhq/planboard-backend/pkg/metrics"
)

const (
	tractorCollection = "tractors"
	trailerCollection = "trailers"
)

type mutationGate interface {
	Mutate(ctx context.Context, declared *int64, fn func(tx *gorm.DB, meta *models.PlannerMeta) error) (*models.PlannerMeta, error)
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, ch audit.Change) error
}

type changeAnnouncer interface {
	Announce(ctx context.Context, event realtime.Event)
}

type service struct {
	repo      Repository
	gate      mutationGate
	auditor   auditRecorder
	announcer changeAnnouncer
	metrics   *metrics.PlannerMetrics
}

// NewService builds the fleet service.
func NewService(repo Repository, gate mutationGate, auditor auditRecorder, announcer changeAnnouncer, m *metrics.PlannerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fleet repository required")
	}
	if gate == nil {
		return nil, fmt.Errorf("mutation gate required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, gate: gate, auditor: auditor, announcer: announcer, metrics: m}, nil
}

func (s *service) ListTractors(ctx context.Context, includeDeleted bool) ([]models.Tractor, error) {
	return s.repo.ListTractors(ctx, includeDeleted)
}

func (s *service) GetTractor(ctx context.Context, id uuid.UUID) (*models.Tractor, error) {
	tractor, err := s.repo.FindTractor(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tractor not found")
	}
	return tractor, err
}

func (s *service) CreateTractor(ctx context.Context, mc MutationContext, id *uuid.UUID, input TractorInput) (*TractorResult, error) {
	if input.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tractor code required")
	}

	tractor := applyTractorInput(&models.Tractor{}, input)
	if id != nil {
		tractor.ID = *id
	} else {
		tractor.ID = uuid.New()
	}

	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		if _, err := s.repo.WithTx(tx).CreateTractor(ctx, tractor); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      mc.Actor,
			Action:     enums.AuditActionCreate,
			EntityType: enums.EntityTractor,
			EntityID:   tractor.ID.String(),
			After:      tractor,
			RequestID:  mc.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(tractorCollection, "create")
	s.announce(ctx, realtime.Event{Collection: tractorCollection, Action: "create", EntityID: tractor.ID.String(), Version: meta.Version})
	return &TractorResult{Tractor: tractor, Meta: meta}, nil
}

func (s *service) UpdateTractor(ctx context.Context, mc MutationContext, id uuid.UUID, input TractorInput) (*TractorResult, error) {
	if input.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tractor code required")
	}

	var updated *models.Tractor
	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindTractor(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "tractor not found")
		}
		if err != nil {
			return err
		}
		before := *existing

		updated = applyTractorInput(existing, input)
		if err := repo.UpdateTractor(ctx, updated); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      mc.Actor,
			Action:     enums.AuditActionUpdate,
			EntityType: enums.EntityTractor,
			EntityID:   id.String(),
			Before:     before,
			After:      updated,
			RequestID:  mc.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(tractorCollection, "update")
	s.announce(ctx, realtime.Event{Collection: tractorCollection, Action: "update", EntityID: id.String(), Version: meta.Version})
	return &TractorResult{Tractor: updated, Meta: meta}, nil
}

func (s *service) DeleteTractor(ctx context.Context, mc MutationContext, id uuid.UUID) (*models.PlannerMeta, error) {
	if !mc.IntentConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeDeleteIntent, "delete requires explicit intent")
	}

	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindTractor(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "tractor not found")
		}
		if err != nil {
			return err
		}

		if err := repo.SoftDeleteTractor(ctx, id); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      mc.Actor,
			Action:     enums.AuditActionDelete,
			EntityType: enums.EntityTractor,
			EntityID:   id.String(),
			Before:     existing,
			RequestID:  mc.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(tractorCollection, "delete")
	s.announce(ctx, realtime.Event{Collection: tractorCollection, Action: "delete", EntityID: id.String(), Version: meta.Version})
	return meta, nil
}

func (s *service) ListTrailers(ctx context.Context, includeDeleted bool) ([]models.Trailer, error) {
	return s.repo.ListTrailers(ctx, includeDeleted)
}

func (s *service) GetTrailer(ctx context.Context, id uuid.UUID) (*models.Trailer, error) {
	trailer, err := s.repo.FindTrailer(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "trailer not found")
	}
	return trailer, err
}

func (s *service) CreateTrailer(ctx context.Context, mc MutationContext, id *uuid.UUID, input TrailerInput) (*TrailerResult, error) {
	if input.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trailer code required")
	}

	trailer := applyTrailerInput(&models.Trailer{}, input)
	if id != nil {
		trailer.ID = *id
	} else {
		trailer.ID = uuid.New()
	}

	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		if _, err := s.repo.WithTx(tx).CreateTrailer(ctx, trailer); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      mc.Actor,
			Action:     enums.AuditActionCreate,
			EntityType: enums.EntityTrailer,
			EntityID:   trailer.ID.String(),
			After:      trailer,
			RequestID:  mc.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(trailerCollection, "create")
	s.announce(ctx, realtime.Event{Collection: trailerCollection, Action: "create", EntityID: trailer.ID.String(), Version: meta.Version})
	return &TrailerResult{Trailer: trailer, Meta: meta}, nil
}

func (s *service) UpdateTrailer(ctx context.Context, mc MutationContext, id uuid.UUID, input TrailerInput) (*TrailerResult, error) {
	if input.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trailer code required")
	}

	var updated *models.Trailer
	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindTrailer(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "trailer not found")
		}
		if err != nil {
			return err
		}
		before := *existing

		updated = applyTrailerInput(existing, input)
		if err := repo.UpdateTrailer(ctx, updated); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      mc.Actor,
			Action:     enums.AuditActionUpdate,
			EntityType: enums.EntityTrailer,
			EntityID:   id.String(),
			Before:     before,
			After:      updated,
			RequestID:  mc.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(trailerCollection, "update")
	s.announce(ctx, realtime.Event{Collection: trailerCollection, Action: "update", EntityID: id.String(), Version: meta.Version})
	return &TrailerResult{Trailer: updated, Meta: meta}, nil
}

func (s *service) DeleteTrailer(ctx context.Context, mc MutationContext, id uuid.UUID) (*models.PlannerMeta, error) {
	if !mc.IntentConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeDeleteIntent, "delete requires explicit intent")
	}

	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindTrailer(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "trailer not found")
		}
		if err != nil {
			return err
		}

		if err := repo.SoftDeleteTrailer(ctx, id); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      mc.Actor,
			Action:     enums.AuditActionDelete,
			EntityType: enums.EntityTrailer,
			EntityID:   id.String(),
			Before:     existing,
			RequestID:  mc.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(trailerCollection, "delete")
	s.announce(ctx, realtime.Event{Collection: trailerCollection, Action: "delete", EntityID: id.String(), Version: meta.Version})
	return meta, nil
}

func (s *service) announce(ctx context.Context, event realtime.Event) {
	if s.announcer != nil {
		s.announcer.Announce(ctx, event)
	}
}

func applyTractorInput(tractor *models.Tractor, input TractorInput) *models.Tractor {
	tractor.Code = input.Code
	tractor.Plate = input.Plate
	tractor.Location = input.Location
	tractor.DoubleManned = input.DoubleManned
	tractor.TypeTags = pq.StringArray(append([]string(nil), input.TypeTags...))
	return tractor
}

func applyTrailerInput(trailer *models.Trailer, input TrailerInput) *models.Trailer {
	trailer.Code = input.Code
	trailer.Plate = input.Plate
	trailer.TypeTags = pq.StringArray(append([]string(nil), input.TypeTags...))
	return trailer
}
