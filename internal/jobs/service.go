package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/internal/audit"
	"github.com/planboardhq/planboard-backend/internal/realtime"
	"github.com/planboardhq/planboard-backend/internal/schedule"
	"github.com/planboardhq/planboard-backend/pkg/db/models"
	dbtypes "github.com/planboardhq/planboard-backend/pkg/db/types"
	"github.com/planboardhq/planboard-backend/pkg/enums"
	pkgerrors "github.com/planboardhq/planboard-backend/pkg/errors"
	"github.com/planboardhq/planboard-backend/pkg/metrics"
)

const collection = "jobs"

const (
	dayLayout  = "2006-01-02"
	timeLayout = "15:04"
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

// NewService builds the jobs service.
func NewService(repo Repository, gate mutationGate, auditor auditRecorder, announcer changeAnnouncer, m *metrics.PlannerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("jobs repository required")
	}
	if gate == nil {
		return nil, fmt.Errorf("mutation gate required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, gate: gate, auditor: auditor, announcer: announcer, metrics: m}, nil
}

func (s *service) List(ctx context.Context, includeDeleted bool) ([]models.Job, error) {
	return s.repo.List(ctx, includeDeleted)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := s.repo.Find(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
	}
	return job, err
}

func (s *service) Create(ctx context.Context, mc MutationContext, id *uuid.UUID, input JobInput) (*MutationResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	job := buildJob(input)
	if id != nil {
		job.ID = *id
	} else {
		job.ID = uuid.New()
	}

	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		state, err := repo.LoadState(ctx)
		if err != nil {
			return err
		}
		if err := s.checkSchedule(state, *job, nil); err != nil {
			return err
		}
		if err := s.estimate(ctx, repo, state, job); err != nil {
			return err
		}
		if _, err := repo.Create(ctx, job); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      mc.Actor,
			Action:     enums.AuditActionCreate,
			EntityType: enums.EntityJob,
			EntityID:   job.ID.String(),
			After:      job,
			RequestID:  mc.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(collection, "create")
	s.announce(ctx, realtime.Event{Collection: collection, Action: "create", EntityID: job.ID.String(), Version: meta.Version})
	return &MutationResult{Job: job, Meta: meta}, nil
}

// Update replaces the stored record with the submitted fields; the job's own
// row is excluded from the double-booking scans.
func (s *service) Update(ctx context.Context, mc MutationContext, id uuid.UUID, input JobInput) (*MutationResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var updated *models.Job
	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.Find(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		if err != nil {
			return err
		}
		before := *existing

		job := buildJob(input)
		job.ID = id
		job.CreatedAt = existing.CreatedAt

		state, err := repo.LoadState(ctx)
		if err != nil {
			return err
		}
		if err := s.checkSchedule(state, *job, &id); err != nil {
			return err
		}
		if err := s.estimate(ctx, repo, state, job); err != nil {
			return err
		}
		if err := repo.Update(ctx, job); err != nil {
			return err
		}
		updated = job

		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      mc.Actor,
			Action:     enums.AuditActionUpdate,
			EntityType: enums.EntityJob,
			EntityID:   id.String(),
			Before:     before,
			After:      updated,
			RequestID:  mc.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(collection, "update")
	s.announce(ctx, realtime.Event{Collection: collection, Action: "update", EntityID: id.String(), Version: meta.Version})
	return &MutationResult{Job: updated, Meta: meta}, nil
}

func (s *service) Delete(ctx context.Context, mc MutationContext, id uuid.UUID) (*models.PlannerMeta, error) {
	if !mc.IntentConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeDeleteIntent, "delete requires explicit intent")
	}

	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.Find(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		if err != nil {
			return err
		}
		if err := repo.SoftDelete(ctx, id); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      mc.Actor,
			Action:     enums.AuditActionDelete,
			EntityType: enums.EntityJob,
			EntityID:   id.String(),
			Before:     existing,
			RequestID:  mc.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(collection, "delete")
	s.announce(ctx, realtime.Event{Collection: collection, Action: "delete", EntityID: id.String(), Version: meta.Version})
	return meta, nil
}

// BatchUpsert applies several creates and updates in one gated transaction,
// bumping the version exactly once. Entries flagged for deletion are refused
// before anything runs; the single delete endpoint carries the intent header
// a batch cannot express. Earlier entries are visible to the conflict checks
// of later ones.
func (s *service) BatchUpsert(ctx context.Context, mc MutationContext, items []BatchItem) (*BatchResult, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty batch")
	}
	for i, item := range items {
		if item.Delete {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("batch entry %d requests a delete; use the delete endpoint", i))
		}
		if err := validateInput(item.Job); err != nil {
			return nil, err
		}
	}

	committed := make([]models.Job, 0, len(items))
	meta, err := s.gate.Mutate(ctx, mc.DeclaredVersion, func(tx *gorm.DB, _ *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		state, err := repo.LoadState(ctx)
		if err != nil {
			return err
		}

		stored := map[uuid.UUID]int{}
		for i := range state.Jobs {
			stored[state.Jobs[i].ID] = i
		}

		for _, item := range items {
			job := buildJob(item.Job)

			var existing *models.Job
			if item.ID != nil {
				job.ID = *item.ID
				if idx, ok := stored[*item.ID]; ok {
					snapshot := state.Jobs[idx]
					existing = &snapshot
					job.CreatedAt = snapshot.CreatedAt
				}
			} else {
				job.ID = uuid.New()
			}

			var excludeID *uuid.UUID
			if existing != nil {
				excludeID = &job.ID
			}
			if err := s.checkSchedule(state, *job, excludeID); err != nil {
				return err
			}
			if err := s.estimate(ctx, repo, state, job); err != nil {
				return err
			}

			change := audit.Change{
				Actor:      mc.Actor,
				EntityType: enums.EntityJob,
				EntityID:   job.ID.String(),
				After:      *job,
				RequestID:  mc.RequestID,
			}
			if existing != nil {
				change.Action = enums.AuditActionUpdate
				change.Before = *existing
				if err := repo.Update(ctx, job); err != nil {
					return err
				}
				state.Jobs[stored[job.ID]] = *job
			} else {
				change.Action = enums.AuditActionCreate
				if _, err := repo.Create(ctx, job); err != nil {
					return err
				}
				stored[job.ID] = len(state.Jobs)
				state.Jobs = append(state.Jobs, *job)
			}
			if err := s.auditor.Record(ctx, tx, change); err != nil {
				return err
			}
			committed = append(committed, *job)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation(collection, "batch")
	s.announce(ctx, realtime.Event{Collection: collection, Action: "batch", Version: meta.Version})
	return &BatchResult{Jobs: committed, Meta: meta}, nil
}

func (s *service) checkSchedule(state schedule.State, candidate models.Job, excludeID *uuid.UUID) error {
	violation := schedule.ValidateJob(state, candidate, excludeID)
	if violation == nil {
		return nil
	}
	s.metrics.IncRuleRejection(string(violation.Rule))
	return pkgerrors.New(pkgerrors.CodeBusinessRule, violation.Message).WithDetails(violation)
}

// estimate fills the money fields. Per-km revenue needs a matrix cell for
// the pickup/dropoff pair; without one the estimate is omitted and revenue
// stays zero rather than defaulting the distance. Crew and truck costs need
// a resolvable interval.
func (s *service) estimate(ctx context.Context, repo Repository, state schedule.State, job *models.Job) error {
	settings, err := repo.Settings(ctx)
	if err != nil {
		return err
	}

	job.Revenue = decimal.Zero
	job.CostDriver = decimal.Zero
	job.CostTruck = decimal.Zero

	switch job.PricingMode {
	case enums.PricingFixed:
		job.Revenue = job.PriceValue
	case enums.PricingPerKM:
		if job.Pickup != "" && job.Dropoff != "" {
			km, err := repo.DistanceKM(ctx, job.Pickup, job.Dropoff)
			if err != nil {
				return err
			}
			if km != nil {
				rate := job.PriceValue
				if rate.IsZero() {
					rate = settings.PerKMRate
				}
				job.Revenue = decimal.NewFromFloat(*km).Mul(rate)
			}
		}
	}

	iv, scheduled := schedule.ResolveInterval(schedule.TimingOf(*job))
	if !scheduled {
		return nil
	}

	hours := decimal.NewFromFloat(iv.End.Sub(iv.Start).Hours())
	hourly := settings.HourlyDriverCost
	if job.Slot == enums.SlotNight {
		hourly = hourly.Add(settings.NightPremium)
	}
	crew := decimal.NewFromInt(int64(len(job.DriverIDs)))
	job.CostDriver = hours.Mul(hourly).Mul(crew)

	if job.TrailerID != nil {
		if trailer, ok := state.Trailers[*job.TrailerID]; ok {
			if daily, ok := dailyTrailerCost(settings.TrailerTypeDailyCost, trailer); ok {
				days := decimal.NewFromInt(int64(len(schedule.TouchedDays(iv))))
				job.CostTruck = daily.Mul(days)
			}
		}
	}
	return nil
}

// dailyTrailerCost resolves the first trailer type tag priced in settings.
func dailyTrailerCost(rates dbtypes.DecimalMap, trailer *models.Trailer) (decimal.Decimal, bool) {
	for _, tag := range trailer.TypeTags {
		if rate, ok := rates[tag]; ok {
			return rate, true
		}
	}
	return decimal.Zero, false
}

func buildJob(input JobInput) *models.Job {
	job := &models.Job{
		Date:               input.Date,
		Start:              input.Start,
		DurationHours:      input.DurationHours,
		Slot:               input.Slot,
		Client:             input.Client,
		Pickup:             input.Pickup,
		Dropoff:            input.Dropoff,
		StartPoint:         input.StartPoint,
		EndPoint:           input.EndPoint,
		AllowStartOverride: input.AllowStartOverride,
		TractorID:          input.TractorID,
		TrailerID:          input.TrailerID,
		DriverIDs:          dbtypes.UUIDArray(append([]uuid.UUID(nil), input.DriverIDs...)),
		PricingMode:        input.PricingMode,
		PriceValue:         input.PriceValue,
		Notes:              input.Notes,
		Code:               input.Code,
		Color:              input.Color,
	}
	if job.PricingMode == "" {
		job.PricingMode = enums.PricingPerKM
	}
	if job.Slot == "" {
		job.Slot = schedule.SlotOf(*job)
	}
	return job
}

func validateInput(input JobInput) error {
	if input.Date != nil {
		if _, err := time.Parse(dayLayout, *input.Date); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid date %q, want YYYY-MM-DD", *input.Date))
		}
	}
	if input.Start != nil {
		if _, err := time.Parse(timeLayout, *input.Start); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid start %q, want HH:MM", *input.Start))
		}
	}
	if input.DurationHours != nil && *input.DurationHours < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "duration cannot be negative")
	}
	if input.Slot != "" && !input.Slot.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid slot %q", input.Slot))
	}
	if input.PricingMode != "" && !input.PricingMode.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid pricing mode %q", input.PricingMode))
	}
	if input.PriceValue.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	// The crew cap is structural and holds for drafts too; only the
	// availability and double-booking rules wait for a resolvable interval.
	if len(input.DriverIDs) > schedule.MaxCrew {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("a job can carry at most %d drivers", schedule.MaxCrew))
	}
	seen := map[uuid.UUID]struct{}{}
	for _, id := range input.DriverIDs {
		if _, dup := seen[id]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate driver assignment")
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (s *service) announce(ctx context.Context, event realtime.Event) {
	if s.announcer != nil {
		s.announcer.Announce(ctx, event)
	}
}
