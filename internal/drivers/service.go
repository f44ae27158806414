package drivers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/internal/audit"
	"github.com/planboardhq/planboard-backend/internal/realtime"
	"github.com/planboardhq/planboard-backend/internal/schedule"
	"github.com/planboardhq/planboard-backend/pkg/db/models"
	"github.com/planboardhq/planboard-backend/pkg/enums"
	pkgerrors "github.com/planboardhq/planboard-backend/pkg/errors"
	"github.com/planboardhq/planboard-backend/pkg/metrics"
)

const collection = "drivers"

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

// NewService builds the drivers service.
func NewService(repo Repository, gate mutationGate, auditor auditRecorder, announcer changeAnnouncer, m *metrics.PlannerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("drivers repository required")
	}
	if gate == nil {
		return nil, fmt.Errorf("mutation gate required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, gate: gate, auditor: auditor, announcer: announcer, metrics: m}, nil
}

func (s *service) List(ctx context.Context, includeDeleted bool) ([]models.Driver, error) {
	return s.repo.List(ctx, includeDeleted)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	driver, err := s.repo.Find(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
	}
	return driver, err
}

func (s *service) Create(ctx context.Context, input CreateInput) (*MutationResult, error) {
	if err := validateInput(input.Driver); err != nil {
		return nil, err
	}

	driver := applyInput(&models.Driver{}, input.Driver)
	if input.ID != nil {
		driver.ID = *input.ID
	} else {
		driver.ID = uuid.New()
	}

	meta, err := s.gate.Mutate(ctx, input.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, driver); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      input.Actor,
			Action:     enums.AuditActionCreate,
			EntityType: enums.EntityDriver,
			EntityID:   driver.ID.String(),
			After:      driver,
			RequestID:  input.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(collection, "create")
	s.announce(ctx, realtime.Event{Collection: collection, Action: "create", EntityID: driver.ID.String(), Version: meta.Version})
	return &MutationResult{Driver: driver, Meta: meta}, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*MutationResult, error) {
	if err := validateInput(input.Driver); err != nil {
		return nil, err
	}

	var updated *models.Driver
	meta, err := s.gate.Mutate(ctx, input.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.Find(ctx, input.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		if err != nil {
			return err
		}
		before := *existing

		updated = applyInput(existing, input.Driver)
		if err := repo.Update(ctx, updated); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      input.Actor,
			Action:     enums.AuditActionUpdate,
			EntityType: enums.EntityDriver,
			EntityID:   input.ID.String(),
			Before:     before,
			After:      updated,
			RequestID:  input.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(collection, "update")
	s.announce(ctx, realtime.Event{Collection: collection, Action: "update", EntityID: input.ID.String(), Version: meta.Version})
	return &MutationResult{Driver: updated, Meta: meta}, nil
}

func (s *service) Delete(ctx context.Context, input DeleteInput) (*models.PlannerMeta, error) {
	if !input.IntentConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeDeleteIntent, "delete requires explicit intent")
	}

	meta, err := s.gate.Mutate(ctx, input.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.Find(ctx, input.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		if err != nil {
			return err
		}

		if err := repo.SoftDelete(ctx, input.ID); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      input.Actor,
			Action:     enums.AuditActionDelete,
			EntityType: enums.EntityDriver,
			EntityID:   input.ID.String(),
			Before:     existing,
			RequestID:  input.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(collection, "delete")
	s.announce(ctx, realtime.Event{Collection: collection, Action: "delete", EntityID: input.ID.String(), Version: meta.Version})
	return meta, nil
}

func (s *service) announce(ctx context.Context, event realtime.Event) {
	if s.announcer != nil {
		s.announcer.Announce(ctx, event)
	}
}

func validateInput(input DriverInput) error {
	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "driver name required")
	}
	if input.WeekAvailability != nil {
		for _, day := range *input.WeekAvailability {
			if day < 0 || day > 6 {
				return pkgerrors.New(pkgerrors.CodeValidation, "weekAvailability days must be 0 through 6")
			}
		}
	}
	if input.Rating < 0 || input.Rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 0 and 5")
	}
	return nil
}

// applyInput overwrites every editable field, normalizing leave dates to
// bare ISO days.
func applyInput(driver *models.Driver, input DriverInput) *models.Driver {
	driver.Name = input.Name
	driver.CanNight = input.CanNight
	driver.SleepsInCab = input.SleepsInCab
	driver.DoubleMannedEligible = input.DoubleMannedEligible
	driver.Rating = input.Rating

	if input.WeekAvailability == nil {
		driver.WeekAvailability = nil
	} else {
		mask := pq.Int64Array(append([]int64(nil), (*input.WeekAvailability)...))
		driver.WeekAvailability = &mask
	}

	leaves := make(pq.StringArray, 0, len(input.Leaves))
	for _, leave := range input.Leaves {
		leaves = append(leaves, schedule.NormalizeDay(leave))
	}
	driver.Leaves = leaves
	return driver
}
