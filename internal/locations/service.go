package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/internal/audit"
	"github.com/planboardhq/planboard-backend/internal/realtime"
	"github.com/planboardhq/planboard-backend/pkg/db"
	"github.com/planboardhq/planboard-backend/pkg/db/models"
	"github.com/planboardhq/planboard-backend/pkg/enums"
	pkgerrors "github.com/planboardhq/planboard-backend/pkg/errors"
	"github.com/planboardhq/planboard-backend/pkg/metrics"
)

const (
	locationCollection = "locations"
	distanceCollection = "distances"
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

// NewService builds the locations service.
func NewService(repo Repository, gate mutationGate, auditor auditRecorder, announcer changeAnnouncer, m *metrics.PlannerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("locations repository required")
	}
	if gate == nil {
		return nil, fmt.Errorf("mutation gate required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, gate: gate, auditor: auditor, announcer: announcer, metrics: m}, nil
}

func (s *service) ListLocations(ctx context.Context, includeDeleted bool) ([]models.Location, error) {
	return s.repo.ListLocations(ctx, includeDeleted)
}

func (s *service) GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	location, err := s.repo.FindLocation(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
	}
	return location, err
}

func (s *service) CreateLocation(ctx context.Context, mc MutationContext, id *uuid.UUID, input LocationInput) (*LocationResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name required")
	}

	location := &models.Location{Name: name, Lat: input.Lat, Lng: input.Lng}
	if id != nil {
		location.ID = *id
	} else {
		location.ID = uuid.New()
	}

	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		if _, err := s.repo.WithTx(tx).CreateLocation(ctx, location); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeValidation, "location name already in use")
			}
			return err
		}
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      mc.Actor,
			Action:     enums.AuditActionCreate,
			EntityType: enums.EntityLocation,
			EntityID:   location.ID.String(),
			After:      location,
			RequestID:  mc.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(locationCollection, "create")
	s.announce(ctx, realtime.Event{Collection: locationCollection, Action: "create", EntityID: location.ID.String(), Version: meta.Version})
	return &LocationResult{Location: location, Meta: meta}, nil
}

// UpdateLocation renames or moves a location. Because distances key on the
// name, a rename rewrites every matching matrix cell in the same
// transaction.
func (s *service) UpdateLocation(ctx context.Context, mc MutationContext, id uuid.UUID, input LocationInput) (*LocationResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name required")
	}

	var updated *models.Location
	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindLocation(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		if err != nil {
			return err
		}
		before := *existing
		oldName := existing.Name

		existing.Name = name
		existing.Lat = input.Lat
		existing.Lng = input.Lng
		if err := repo.UpdateLocation(ctx, existing); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeValidation, "location name already in use")
			}
			return err
		}
		if oldName != name {
			if err := repo.RenameInDistances(ctx, oldName, name); err != nil {
				return err
			}
		}
		updated = existing

		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      mc.Actor,
			Action:     enums.AuditActionUpdate,
			EntityType: enums.EntityLocation,
			EntityID:   id.String(),
			Before:     before,
			After:      updated,
			RequestID:  mc.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(locationCollection, "update")
	s.announce(ctx, realtime.Event{Collection: locationCollection, Action: "update", EntityID: id.String(), Version: meta.Version})
	return &LocationResult{Location: updated, Meta: meta}, nil
}

// DeleteLocation removes the location and every matrix cell that references
// it. Jobs keep their free-text route names.
func (s *service) DeleteLocation(ctx context.Context, mc MutationContext, id uuid.UUID) (*models.PlannerMeta, error) {
	if !mc.IntentConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeDeleteIntent, "delete requires explicit intent")
	}

	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindLocation(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		if err != nil {
			return err
		}

		if err := repo.SoftDeleteLocation(ctx, id); err != nil {
			return err
		}
		if err := repo.DeleteDistancesForLocation(ctx, existing.Name); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      mc.Actor,
			Action:     enums.AuditActionDelete,
			EntityType: enums.EntityLocation,
			EntityID:   id.String(),
			Before:     existing,
			RequestID:  mc.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(locationCollection, "delete")
	s.announce(ctx, realtime.Event{Collection: locationCollection, Action: "delete", EntityID: id.String(), Version: meta.Version})
	return meta, nil
}

func (s *service) ListDistances(ctx context.Context, includeDeleted bool) ([]models.Distance, error) {
	return s.repo.ListDistances(ctx, includeDeleted)
}

// UpsertDistance sets one directed cell, creating or overwriting it.
func (s *service) UpsertDistance(ctx context.Context, mc MutationContext, input DistanceInput) (*DistanceResult, error) {
	if err := validateDistance(input); err != nil {
		return nil, err
	}

	var committed *models.Distance
	var action enums.AuditAction
	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindDistance(ctx, input.From, input.To)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			action = enums.AuditActionCreate
			distance := &models.Distance{ID: uuid.New(), From: input.From, To: input.To, KM: input.KM}
			if _, err := repo.CreateDistance(ctx, distance); err != nil {
				return err
			}
			committed = distance
			return s.auditor.Record(ctx, tx, audit.Change{
				Actor:      mc.Actor,
				Action:     action,
				EntityType: enums.EntityDistance,
				EntityID:   distance.ID.String(),
				After:      distance,
				RequestID:  mc.RequestID,
			})
		case err != nil:
			return err
		default:
			action = enums.AuditActionUpdate
			before := *existing
			if err := repo.UpdateDistanceKM(ctx, existing.ID, input.KM); err != nil {
				return err
			}
			existing.KM = input.KM
			committed = existing
			return s.auditor.Record(ctx, tx, audit.Change{
				Actor:      mc.Actor,
				Action:     action,
				EntityType: enums.EntityDistance,
				EntityID:   existing.ID.String(),
				Before:     before,
				After:      existing,
				RequestID:  mc.RequestID,
			})
		}
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(distanceCollection, string(action))
	s.announce(ctx, realtime.Event{Collection: distanceCollection, Action: string(action), EntityID: committed.ID.String(), Version: meta.Version})
	return &DistanceResult{Distance: committed, Meta: meta}, nil
}

// DeleteDistance removes one directed cell; the route becomes unknown again
// and per-km revenue estimation stops for jobs using it.
func (s *service) DeleteDistance(ctx context.Context, mc MutationContext, from, to string) (*models.PlannerMeta, error) {
	if !mc.IntentConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeDeleteIntent, "delete requires explicit intent")
	}

	var deletedID uuid.UUID
	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindDistance(ctx, from, to)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "distance not found")
		}
		if err != nil {
			return err
		}
		if err := repo.SoftDeleteDistance(ctx, existing.ID); err != nil {
			return err
		}
		deletedID = existing.ID
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      mc.Actor,
			Action:     enums.AuditActionDelete,
			EntityType: enums.EntityDistance,
			EntityID:   existing.ID.String(),
			Before:     existing,
			RequestID:  mc.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(distanceCollection, "delete")
	s.announce(ctx, realtime.Event{Collection: distanceCollection, Action: "delete", EntityID: deletedID.String(), Version: meta.Version})
	return meta, nil
}

// ReplaceMatrix swaps the whole distance matrix in one gated transaction.
func (s *service) ReplaceMatrix(ctx context.Context, mc MutationContext, inputs []DistanceInput) (*MatrixResult, error) {
	seen := map[string]struct{}{}
	distances := make([]models.Distance, 0, len(inputs))
	var errs []error
	for i, input := range inputs {
		if err := validateDistance(input); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		key := input.From + "\x00" + input.To
		if _, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("entry %d: duplicate distance %s to %s", i, input.From, input.To))
			continue
		}
		seen[key] = struct{}{}
		distances = append(distances, models.Distance{ID: uuid.New(), From: input.From, To: input.To, KM: input.KM})
	}
	// Reject the whole upload with every bad entry named, not just the first.
	if combined := multierr.Combine(errs...); combined != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, combined, combined.Error())
	}

	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		before, err := repo.ListDistances(ctx, false)
		if err != nil {
			return err
		}
		if err := repo.ReplaceDistances(ctx, distances); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      mc.Actor,
			Action:     enums.AuditActionReplace,
			EntityType: enums.EntityDistance,
			EntityID:   "matrix",
			Before:     before,
			After:      distances,
			RequestID:  mc.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(distanceCollection, "replace")
	s.announce(ctx, realtime.Event{Collection: distanceCollection, Action: "replace", Version: meta.Version})
	return &MatrixResult{Distances: distances, Meta: meta}, nil
}

func (s *service) announce(ctx context.Context, event realtime.Event) {
	if s.announcer != nil {
		s.announcer.Announce(ctx, event)
	}
}

func validateDistance(input DistanceInput) error {
	if strings.TrimSpace(input.From) == "" || strings.TrimSpace(input.To) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "distance endpoints required")
	}
	if input.From == input.To {
		return pkgerrors.New(pkgerrors.CodeValidation, "distance endpoints must differ")
	}
	if input.KM < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "distance must not be negative")
	}
	return nil
}
